package templates

import (
	"fmt"
	"slices"
	"time"

	"taskDeck/internal/models/task"
	"taskDeck/internal/recurrence"
)

// Apply превращает шаблон в черновик новой задачи. Черновик ничего не разделяет
// с шаблоном и не сохраняется: дальше он идёт по обычному пути создания с валидацией.
// Для повторяющегося шаблона срок ставится на ближайшее повторение после now.
func Apply(tmpl task.Template, now time.Time) (task.Draft, error) {
	draft := task.Draft{
		Title:         tmpl.Title,
		Description:   tmpl.Description,
		Priority:      tmpl.Priority,
		IsRecurring:   tmpl.IsRecurring,
		Frequency:     tmpl.Frequency,
		SelectedDays:  slices.Clone(tmpl.SelectedDays),
		RecurringTime: tmpl.RecurringTime,
	}
	if draft.SelectedDays == nil {
		draft.SelectedDays = []int{}
	}
	if tmpl.CategoryID != nil {
		id := *tmpl.CategoryID
		draft.CategoryID = &id
	}

	if !tmpl.IsRecurring {
		return draft, nil
	}

	due, err := recurrence.NextOccurrence(recurrence.RuleOfTemplate(tmpl), now)
	if err != nil {
		return task.Draft{}, fmt.Errorf("шаблон %d: %w", tmpl.ID, err)
	}
	draft.DueDate = &due
	return draft, nil
}
