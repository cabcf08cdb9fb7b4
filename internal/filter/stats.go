package filter

import (
	"math"
	"time"

	"taskDeck/internal/models/task"
)

type Stats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Active         int `json:"active"`
	CompletionRate int `json:"completion_rate"`
	DueToday       int `json:"due_today"`
	Overdue        int `json:"overdue"`
}

// Summarize считает сводку по задачам. Просрочка и "на сегодня" учитывают
// только невыполненные задачи со сроком; границы дня берутся по календарной дате now.
func Summarize(tasks []task.Task, now time.Time) Stats {
	var s Stats
	today := task.DateOnly(now)

	for _, t := range tasks {
		s.Total++
		if t.Completed {
			s.Completed++
			continue
		}
		s.Active++
		if t.DueDate == nil {
			continue
		}
		due := task.DateOnly(*t.DueDate)
		switch {
		case due.Equal(today):
			s.DueToday++
		case due.Before(today):
			s.Overdue++
		}
	}

	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Completed) * 100 / float64(s.Total)))
	}
	return s
}
