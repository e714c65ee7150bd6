package history

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queuesweep/internal/measure"
	"queuesweep/internal/sweep"
)

type listerFunc func(limit int) ([]*sweep.Result, error)

func (f listerFunc) List(limit int) ([]*sweep.Result, error) { return f(limit) }

func runs() []*sweep.Result {
	return []*sweep.Result{
		{
			ID:        "0190f5a2-aaaa-7bbb-8ccc-123456789abc",
			StartedAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
			Baseline:  &measure.Measurement{Mean: 8},
			Points: []sweep.Point{
				{Capacity: 1, Measurement: &measure.Measurement{Mean: 4}, Speedup: 2},
				{Capacity: 2},
			},
		},
		{ID: "short", Points: []sweep.Point{{Capacity: 1}}},
	}
}

func TestRefresh(t *testing.T) {
	m := NewModel(listerFunc(func(limit int) ([]*sweep.Result, error) {
		assert.Equal(t, listLimit, limit)
		return runs(), nil
	}))
	require.Len(t, m.Table.Rows(), 2)

	row := m.Table.Rows()[0]
	assert.Equal(t, "0190f5a2", row[1])
	assert.Equal(t, "8.000s", row[2])
	assert.Equal(t, "1 (2.00x)", row[3])
	assert.Equal(t, "1/2", row[4])

	row = m.Table.Rows()[1]
	assert.Equal(t, "short", row[1])
	assert.Equal(t, "N/A", row[2])
	assert.Equal(t, "-", row[3])
}

func TestEnterSelectsCurrent(t *testing.T) {
	m := NewModel(listerFunc(func(int) ([]*sweep.Result, error) { return runs(), nil }))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.Selected)
	assert.Equal(t, "0190f5a2-aaaa-7bbb-8ccc-123456789abc", m.Selected.ID)
}

func TestRefresh_Error(t *testing.T) {
	m := NewModel(listerFunc(func(int) ([]*sweep.Result, error) { return nil, errors.New("locked") }))
	assert.Error(t, m.Err)
	assert.Contains(t, m.View(), "locked")
}
