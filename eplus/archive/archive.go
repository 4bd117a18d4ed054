// Package archive keeps a copy of a model file before it is overwritten by
// an upgraded version.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eplus-sim/eplus-sim/internal/fsutil"
)

// Archiver stores a copy of the file at path. version is the engine version
// the file declares; the returned location identifies the stored copy.
type Archiver interface {
	Archive(ctx context.Context, path string, version string) (location string, err error)
}

// Config selects an archiver. At most one of Dir and Bucket is used; Dir
// wins when both are set.
type Config struct {
	Dir    string `yaml:"dir"`
	Bucket string `yaml:"s3_bucket"`
	Prefix string `yaml:"s3_prefix"`
}

// New returns the archiver described by cfg, or nil when archiving is off.
func New(ctx context.Context, cfg Config) (Archiver, error) {
	switch {
	case cfg.Dir != "":
		return NewLocalArchiver(cfg.Dir), nil
	case cfg.Bucket != "":
		a, err := NewS3Archiver(ctx, cfg.Bucket, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	return nil, nil
}

// objectName builds "<stem>_<version>_<timestamp><ext>" so repeated
// archives of the same model never collide.
func objectName(path, version string, now time.Time) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if version != "" {
		stem += "_V" + strings.ReplaceAll(version, ".", "-")
	}
	return fmt.Sprintf("%s_%s%s", stem, now.UTC().Format("20060102T150405.000000000"), ext)
}

// LocalArchiver copies files into a directory.
type LocalArchiver struct {
	dir string
	now func() time.Time
}

func NewLocalArchiver(dir string) *LocalArchiver {
	return &LocalArchiver{dir: dir, now: time.Now}
}

func (a *LocalArchiver) Archive(_ context.Context, path string, version string) (string, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating archive dir: %w", err)
	}
	dst := filepath.Join(a.dir, objectName(path, version, a.now()))
	if err := fsutil.CopyFile(path, dst); err != nil {
		return "", fmt.Errorf("archiving %s: %w", path, err)
	}
	return dst, nil
}
