package idf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eplus-sim/eplus-sim/eplus"
)

// ReadVersion returns the engine version declared by the Version object of
// the model file at path. A two-part identifier ("9.2") has patch 0.
func ReadVersion(path string) (eplus.Version, error) {
	f, err := os.Open(path)
	if err != nil {
		return eplus.Version{}, fmt.Errorf("reading model version: %w", err)
	}
	defer f.Close()
	return ParseVersionObject(f)
}

// ParseVersionObject scans model text for the Version object. Comments
// ("!" to end of line) are ignored and the object may span lines.
func ParseVersionObject(r io.Reader) (eplus.Version, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	var obj strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '!'); i >= 0 {
			line = line[:i]
		}
		for _, c := range line {
			if c != ';' {
				obj.WriteRune(c)
				continue
			}
			if v, ok, err := versionFromObject(obj.String()); ok || err != nil {
				return v, err
			}
			obj.Reset()
		}
		obj.WriteByte(' ')
	}
	if err := scanner.Err(); err != nil {
		return eplus.Version{}, err
	}
	return eplus.Version{}, &eplus.FieldError{ObjectType: TypeVersion, Field: "Version Identifier", Reason: "is missing"}
}

func versionFromObject(obj string) (eplus.Version, bool, error) {
	parts := strings.Split(obj, ",")
	if len(parts) < 2 || !strings.EqualFold(strings.TrimSpace(parts[0]), TypeVersion) {
		return eplus.Version{}, false, nil
	}
	v, err := eplus.ParseVersion(strings.TrimSpace(parts[1]))
	return v, true, err
}
