package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queuesweep/internal/measure"
	"queuesweep/internal/sweep"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newRun(t *testing.T, baseline float64) *sweep.Result {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return &sweep.Result{
		ID:        id.String(),
		StartedAt: time.Now().UTC().Truncate(time.Second),
		Plan:      sweep.DefaultPlan(),
		Baseline:  &measure.Measurement{Mean: baseline, Samples: []float64{baseline}},
		Points: []sweep.Point{
			{Capacity: 1, Measurement: &measure.Measurement{Mean: baseline / 2}, Speedup: 2},
			{Capacity: 2, Error: "trial failed"},
		},
	}
}

func TestSaveGet(t *testing.T) {
	s := openTemp(t)
	run := newRun(t, 8)
	require.NoError(t, s.Save(run))

	got, err := s.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, 8.0, got.Baseline.Mean)
	require.Len(t, got.Points, 2)
	assert.True(t, got.Points[0].Present())
	assert.False(t, got.Points[1].Present())
	assert.Equal(t, "trial failed", got.Points[1].Error)
	assert.Equal(t, []int{1, 2, 4, 8, 16, 32, 64}, got.Plan.Capacities)
}

func TestList_NewestFirst(t *testing.T) {
	s := openTemp(t)
	var ids []string
	for i := 0; i < 3; i++ {
		run := newRun(t, float64(i+1))
		ids = append(ids, run.ID)
		require.NoError(t, s.Save(run))
		time.Sleep(2 * time.Millisecond)
	}

	all, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	limited, err := s.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestGet_Prefix(t *testing.T) {
	s := openTemp(t)
	run := newRun(t, 8)
	require.NoError(t, s.Save(run))

	got, err := s.Get(run.ID[:13])
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
}

func TestGet_NotFound(t *testing.T) {
	s := openTemp(t)
	_, err := s.Get("does-not-exist")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGet_AmbiguousPrefix(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.Save(&sweep.Result{ID: "abc-1"}))
	require.NoError(t, s.Save(&sweep.Result{ID: "abc-2"}))

	_, err := s.Get("abc")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestSave_RequiresID(t *testing.T) {
	s := openTemp(t)
	assert.Error(t, s.Save(&sweep.Result{}))
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	run := newRun(t, 3)
	require.NoError(t, s.Save(run))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.Baseline.Mean)
}

func TestExpandPath(t *testing.T) {
	got, err := ExpandPath("/tmp/x.db")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", got)

	got, err = ExpandPath("~/.queuesweep/history.db")
	require.NoError(t, err)
	assert.NotContains(t, got, "~")
	assert.Equal(t, "history.db", filepath.Base(got))
}
