package transition

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eplus-sim/eplus-sim/eplus/idf"
	"github.com/eplus-sim/eplus-sim/internal/testutil"
)

func TestBatch_IndependentOutcomes(t *testing.T) {
	// GIVEN six good models and one that declares a newer version than the target
	f := newFixture(t)
	testutil.WriteFakeTool(t, f.tools, v800, v850, testutil.ToolOK)
	testutil.WriteFakeTool(t, f.tools, v850, v890, testutil.ToolOK)
	var models []Model
	for i := 0; i < 6; i++ {
		p := testutil.WriteModel(t, f.models, fmt.Sprintf("m%d.idf", i), v800)
		models = append(models, Model{Path: p, Version: v800})
	}
	bad := testutil.WriteModel(t, f.models, "newer.idf", v901)
	models = append(models, Model{Path: bad, Version: v901})

	// WHEN run as a batch with three workers
	b := &Batch{Pipeline: f.pipeline(t, f.options(v890)), Workers: 3}
	runs := b.Run(context.Background(), models)

	// THEN each good model succeeded and only the bad one failed
	require.Len(t, runs, 7)
	for _, m := range models[:6] {
		run := runs[m.Path]
		require.NoError(t, run.Err, m.Path)
		got, err := idf.ReadVersion(filepath.Join(f.out, filepath.Base(m.Path)))
		require.NoError(t, err)
		assert.Equal(t, v890, got)
	}
	assert.Equal(t, OutcomeFailed, runs[bad].Outcome)

	s := Summarize(runs)
	assert.Equal(t, 7, s.Total)
	assert.Equal(t, 6, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 12, s.StepsApplied)
	assert.Equal(t, []string{bad}, s.FailedModels)
	assert.False(t, s.OK())
}

func TestBatch_CancelledContext_AllCancelled(t *testing.T) {
	f := newFixture(t)
	testutil.WriteFakeTool(t, f.tools, v800, v850, testutil.ToolOK)
	p := testutil.WriteModel(t, f.models, "a.idf", v800)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runs := (&Batch{Pipeline: f.pipeline(t, f.options(v850))}).Run(ctx, []Model{{Path: p, Version: v800}})

	assert.Equal(t, OutcomeCancelled, runs[p].Outcome)
	assert.Equal(t, 1, Summarize(runs).Cancelled)
}

func TestBatch_SameFileNameInTwoDirectories_SecondRejected(t *testing.T) {
	// GIVEN two different models named in.idf sharing one output directory
	f := newFixture(t)
	testutil.WriteFakeTool(t, f.tools, v800, v850, testutil.ToolOK)
	testutil.WriteFakeTool(t, f.tools, v850, v890, testutil.ToolOK)
	dirA, dirB := filepath.Join(f.models, "a"), filepath.Join(f.models, "b")
	require.NoError(t, os.MkdirAll(dirA, 0o755))
	require.NoError(t, os.MkdirAll(dirB, 0o755))
	a := testutil.WriteModel(t, dirA, "in.idf", v800)
	b := testutil.WriteModel(t, dirB, "in.idf", v850)

	// WHEN both are upgraded in one batch
	runs := (&Batch{Pipeline: f.pipeline(t, f.options(v890)), Workers: 2}).Run(context.Background(),
		[]Model{{Path: a, Version: v800}, {Path: b, Version: v850}})

	// THEN the first is delivered and the second fails without running
	require.Len(t, runs, 2)
	assert.Equal(t, OutcomeSucceeded, runs[a].Outcome)
	assert.Len(t, runs[a].Applied, 2)
	assert.Equal(t, OutcomeFailed, runs[b].Outcome)
	require.Error(t, runs[b].Err)
	assert.Contains(t, runs[b].Err.Error(), a)
	assert.Empty(t, runs[b].StagingDir)
	assert.Empty(t, runs[b].Applied)

	entries, err := os.ReadDir(f.out)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, Summarize(runs).Failed)
}

func TestBatch_DuplicatePath_UpgradedOnce(t *testing.T) {
	f := newFixture(t)
	testutil.WriteFakeTool(t, f.tools, v800, v850, testutil.ToolOK)
	p := testutil.WriteModel(t, f.models, "a.idf", v800)
	again := f.models + "/./a.idf"

	runs := (&Batch{Pipeline: f.pipeline(t, f.options(v850))}).Run(context.Background(),
		[]Model{{Path: p, Version: v800}, {Path: again, Version: v800}})

	require.Len(t, runs, 1)
	assert.Equal(t, OutcomeSucceeded, runs[p].Outcome)
	assert.Equal(t, 1, Summarize(runs).Total)
}

func TestSummarize_Nil(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Total)
	assert.True(t, s.OK())
}
