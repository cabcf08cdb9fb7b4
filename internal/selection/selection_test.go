package selection_test

import (
	"testing"

	"taskDeck/internal/selection"

	"github.com/stretchr/testify/assert"
)

func TestSet_ToggleScenario(t *testing.T) {
	s := selection.New()
	assert.False(t, s.Active())
	assert.Empty(t, s.IDs())

	assert.True(t, s.Toggle(5))
	assert.Equal(t, []int64{5}, s.IDs())
	assert.True(t, s.Active())

	assert.False(t, s.Toggle(5))
	assert.Empty(t, s.IDs())
	assert.False(t, s.Active())
}

func TestSet_SelectAll(t *testing.T) {
	tests := []struct {
		name   string
		before []int64
		all    []int64
		want   []int64
	}{
		{name: "replaces previous selection", before: []int64{9}, all: []int64{1, 2, 3}, want: []int64{1, 2, 3}},
		{name: "drops duplicates", all: []int64{1, 1, 2}, want: []int64{1, 2}},
		{name: "empty collection keeps mode on", before: []int64{4}, all: nil, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := selection.New()
			for _, id := range tt.before {
				s.Toggle(id)
			}

			s.SelectAll(tt.all)

			assert.Equal(t, tt.want, s.IDs())
			assert.True(t, s.Active())
		})
	}
}

func TestSet_StickyMode(t *testing.T) {
	s := selection.New()
	s.Enter()
	assert.True(t, s.Active())

	s.Toggle(3)
	s.Toggle(3)
	assert.True(t, s.Active(), "явно включённый режим не зависит от содержимого")

	s.Clear()
	assert.False(t, s.Active())
	assert.Zero(t, s.Len())
}

func TestSet_Remove(t *testing.T) {
	s := selection.New()
	s.Toggle(1)
	s.Toggle(2)
	s.Toggle(3)

	s.Remove(2, 42)

	assert.Equal(t, []int64{1, 3}, s.IDs())
	assert.False(t, s.Contains(2))
	assert.True(t, s.Contains(3))

	s.Remove(1, 3)
	assert.False(t, s.Active())
}

func TestSet_IDsReturnsCopy(t *testing.T) {
	s := selection.New()
	s.Toggle(1)

	ids := s.IDs()
	ids[0] = 100

	assert.Equal(t, []int64{1}, s.IDs())
}
