package filter_test

import (
	"testing"
	"time"

	"taskDeck/internal/filter"
	"taskDeck/internal/models/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func id(v int64) *int64 { return &v }

func sample() []task.Task {
	return []task.Task{
		{ID: 1, Title: "Buy milk", Priority: task.PriorityLow, CategoryID: id(1)},
		{ID: 2, Title: "Ship release", Completed: true, Priority: task.PriorityHigh, CategoryID: id(2)},
		{ID: 3, Title: "Call mom", Description: "Ask about the MILK recipe", Priority: task.PriorityMedium, CategoryID: id(1)},
		{ID: 4, Title: "Write report", Priority: task.PriorityHigh},
	}
}

func ids(tasks []task.Task) []int64 {
	out := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		criteria filter.Criteria
		want     []int64
	}{
		{name: "no criteria keeps everything", criteria: filter.Criteria{}, want: []int64{1, 2, 3, 4}},
		{name: "status active", criteria: filter.Criteria{Status: filter.StatusActive}, want: []int64{1, 3, 4}},
		{name: "status completed", criteria: filter.Criteria{Status: filter.StatusCompleted}, want: []int64{2}},
		{name: "status all", criteria: filter.Criteria{Status: filter.StatusAll}, want: []int64{1, 2, 3, 4}},
		{name: "search title or description case-insensitive", criteria: filter.Criteria{SearchText: "mIlK"}, want: []int64{1, 3}},
		{name: "search without match", criteria: filter.Criteria{SearchText: "nothing"}, want: []int64{}},
		{name: "category", criteria: filter.Criteria{CategoryID: id(1)}, want: []int64{1, 3}},
		{name: "category skips tasks without category", criteria: filter.Criteria{CategoryID: id(2)}, want: []int64{2}},
		{name: "priority", criteria: filter.Criteria{Priority: task.PriorityHigh}, want: []int64{2, 4}},
		{
			name:     "conjunction of all criteria",
			criteria: filter.Criteria{SearchText: "milk", Status: filter.StatusActive, CategoryID: id(1), Priority: task.PriorityMedium},
			want:     []int64{3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.Apply(sample(), tt.criteria)

			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApply_ActiveScenario(t *testing.T) {
	tasks := []task.Task{
		{ID: 1, Title: "Buy milk", Completed: false, Priority: task.PriorityLow, CategoryID: id(1)},
		{ID: 2, Title: "Ship release", Completed: true, Priority: task.PriorityHigh, CategoryID: id(2)},
	}

	got := filter.Apply(tasks, filter.Criteria{Status: filter.StatusActive})

	require.Len(t, got, 1)
	assert.Equal(t, tasks[0], got[0])
}

func TestApply_IdempotentAndOrderPreserving(t *testing.T) {
	tasks := sample()
	before := ids(tasks)
	criteria := filter.Criteria{SearchText: "r", Status: filter.StatusAll}

	first := filter.Apply(tasks, criteria)
	second := filter.Apply(first, criteria)
	again := filter.Apply(tasks, criteria)

	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, ids(first), ids(again))
	assert.Equal(t, before, ids(tasks), "вход не должен меняться")

	// результат подпоследовательность входа
	pos := 0
	for _, got := range first {
		for pos < len(tasks) && tasks[pos].ID != got.ID {
			pos++
		}
		require.Less(t, pos, len(tasks))
	}
}

func TestParseCriteria(t *testing.T) {
	tests := []struct {
		name                               string
		search, status, category, priority string
		want                               filter.Criteria
		wantErr                            bool
	}{
		{name: "all disabled", status: "all", category: "all", priority: "all", want: filter.Criteria{}},
		{name: "empty disabled", want: filter.Criteria{}},
		{
			name:   "all set",
			search: "milk", status: "Completed", category: "7", priority: "HIGH",
			want: filter.Criteria{SearchText: "milk", Status: filter.StatusCompleted, CategoryID: id(7), Priority: task.PriorityHigh},
		},
		{name: "bad status", status: "done", wantErr: true},
		{name: "bad category", category: "work", wantErr: true},
		{name: "bad priority", priority: "urgent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filter.ParseCriteria(tt.search, tt.status, tt.category, tt.priority)

			if tt.wantErr {
				assert.ErrorIs(t, err, filter.ErrInvalidCriteria)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, time.January, 15, 18, 0, 0, 0, time.UTC)
	today := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	tasks := []task.Task{
		{ID: 1, DueDate: &today},
		{ID: 2, DueDate: &yesterday},
		{ID: 3, DueDate: &yesterday, Completed: true},
		{ID: 4, DueDate: &tomorrow},
		{ID: 5},
		{ID: 6, Completed: true},
	}

	got := filter.Summarize(tasks, now)

	assert.Equal(t, filter.Stats{Total: 6, Completed: 2, Active: 4, CompletionRate: 33, DueToday: 1, Overdue: 1}, got)
	assert.Equal(t, filter.Stats{}, filter.Summarize(nil, now))
}
