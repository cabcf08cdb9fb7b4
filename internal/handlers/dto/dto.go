package dto

import (
	"time"

	"taskDeck/internal/models/task"
	"taskDeck/internal/recurrence"
)

// DateLayout формат дат без времени в запросах и ответах.
const DateLayout = "2006-01-02"

type CreateTaskRequest struct {
	Title         string  `json:"title" validate:"required,max=200"`
	Description   string  `json:"description" validate:"max=2000"`
	DueDate       *string `json:"due_date,omitempty" validate:"omitempty,eq=|datetime=2006-01-02"`
	Priority      string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	CategoryID    *int64  `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	SubcategoryID *int64  `json:"subcategory_id,omitempty" validate:"omitempty,gt=0"`
	IsRecurring   bool    `json:"is_recurring"`
	Frequency     string  `json:"frequency" validate:"omitempty,oneof=daily weekly monthly custom"`
	SelectedDays  []int   `json:"selected_days" validate:"dive,min=0,max=6"`
	RecurringTime string  `json:"recurring_time" validate:"omitempty,datetime=15:04"`
}

// ToDraft переводит запрос в черновик; значения по умолчанию проставит сервис.
func (r CreateTaskRequest) ToDraft() task.Draft {
	draft := task.Draft{
		Title:         r.Title,
		Description:   r.Description,
		Priority:      task.Priority(r.Priority),
		CategoryID:    r.CategoryID,
		SubcategoryID: r.SubcategoryID,
		IsRecurring:   r.IsRecurring,
		Frequency:     task.Frequency(r.Frequency),
		SelectedDays:  r.SelectedDays,
		RecurringTime: r.RecurringTime,
	}
	if due, ok := parseDate(r.DueDate); ok {
		draft.DueDate = &due
	}
	return draft
}

// UpdateTaskRequest частичное изменение: отсутствующее поле не трогается.
// Пустая строка в due_date снимает срок.
type UpdateTaskRequest struct {
	Title         *string            `json:"title,omitempty" validate:"omitempty,max=200"`
	Description   *string            `json:"description,omitempty" validate:"omitempty,max=2000"`
	DueDate       *string            `json:"due_date,omitempty" validate:"omitempty,eq=|datetime=2006-01-02"`
	Priority      *string            `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	CategoryID    *int64             `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	SubcategoryID *int64             `json:"subcategory_id,omitempty" validate:"omitempty,gt=0"`
	Completed     *bool              `json:"completed,omitempty"`
	Recurrence    *RecurrenceRequest `json:"recurrence,omitempty"`
}

type RecurrenceRequest struct {
	IsRecurring   bool   `json:"is_recurring"`
	Frequency     string `json:"frequency" validate:"required,oneof=daily weekly monthly custom"`
	SelectedDays  []int  `json:"selected_days" validate:"dive,min=0,max=6"`
	RecurringTime string `json:"recurring_time" validate:"omitempty,datetime=15:04"`
}

// Options собирает опции обновления; now нужен для отметки выполнения.
func (r UpdateTaskRequest) Options(now time.Time) []task.PatchOption {
	var opts []task.PatchOption
	if r.Title != nil {
		opts = append(opts, task.WithTitle(*r.Title))
	}
	if r.Description != nil {
		opts = append(opts, task.WithDescription(*r.Description))
	}
	if r.DueDate != nil {
		if due, ok := parseDate(r.DueDate); ok {
			opts = append(opts, task.WithDueDate(due))
		} else {
			opts = append(opts, task.WithoutDueDate())
		}
	}
	if r.Priority != nil {
		opts = append(opts, task.WithPriority(task.Priority(*r.Priority)))
	}
	if r.CategoryID != nil {
		opts = append(opts, task.WithCategory(*r.CategoryID))
	}
	if r.SubcategoryID != nil {
		opts = append(opts, task.WithSubcategory(*r.SubcategoryID))
	}
	if r.Completed != nil {
		opts = append(opts, task.WithCompleted(*r.Completed, now))
	}
	if r.Recurrence != nil {
		opts = append(opts, task.WithRecurrence(
			r.Recurrence.IsRecurring,
			task.Frequency(r.Recurrence.Frequency),
			r.Recurrence.SelectedDays,
			r.Recurrence.RecurringTime,
		))
	}
	return opts
}

type CategoryRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"max=50"`
	Icon  string `json:"icon" validate:"max=50"`
}

type SubcategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type TaskResponse struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	DueDate       *string    `json:"due_date"`
	Priority      string     `json:"priority"`
	CategoryID    *int64     `json:"category_id"`
	SubcategoryID *int64     `json:"subcategory_id"`
	Completed     bool       `json:"completed"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Archived      bool       `json:"archived"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
	IsRecurring   bool       `json:"is_recurring"`
	Frequency     string     `json:"frequency"`
	SelectedDays  []int      `json:"selected_days"`
	RecurringTime string     `json:"recurring_time"`
	Recurrence    string     `json:"recurrence,omitempty"`
	NextDue       *string    `json:"next_due,omitempty"`
	IsOverdue     bool       `json:"is_overdue"`
}

func FromTask(t task.Task, now time.Time) TaskResponse {
	resp := TaskResponse{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		DueDate:       formatDate(t.DueDate),
		Priority:      string(t.Priority),
		CategoryID:    t.CategoryID,
		SubcategoryID: t.SubcategoryID,
		Completed:     t.Completed,
		CreatedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
		Archived:      t.Archived,
		ArchivedAt:    t.ArchivedAt,
		IsRecurring:   t.IsRecurring,
		Frequency:     string(t.Frequency),
		SelectedDays:  t.SelectedDays,
		RecurringTime: t.RecurringTime,
		IsOverdue:     !t.Completed && t.DueDate != nil && t.DueDate.Before(task.DateOnly(now)),
	}
	if resp.SelectedDays == nil {
		resp.SelectedDays = []int{}
	}

	if t.IsRecurring {
		rule := recurrence.RuleOf(t)
		resp.Recurrence = recurrence.Describe(rule)
		if next, err := recurrence.NextOccurrence(rule, now); err == nil {
			resp.NextDue = formatDate(&next)
		}
	}
	return resp
}

func FromTaskList(tasks []task.Task, now time.Time) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t, now)
	}
	return result
}

type DraftResponse struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	DueDate       *string `json:"due_date"`
	Priority      string  `json:"priority"`
	CategoryID    *int64  `json:"category_id"`
	IsRecurring   bool    `json:"is_recurring"`
	Frequency     string  `json:"frequency"`
	SelectedDays  []int   `json:"selected_days"`
	RecurringTime string  `json:"recurring_time"`
	Recurrence    string  `json:"recurrence,omitempty"`
}

func FromDraft(d task.Draft) DraftResponse {
	resp := DraftResponse{
		Title:         d.Title,
		Description:   d.Description,
		DueDate:       formatDate(d.DueDate),
		Priority:      string(d.Priority),
		CategoryID:    d.CategoryID,
		IsRecurring:   d.IsRecurring,
		Frequency:     string(d.Frequency),
		SelectedDays:  d.SelectedDays,
		RecurringTime: d.RecurringTime,
	}
	if d.IsRecurring {
		resp.Recurrence = recurrence.Describe(recurrence.Rule{
			Frequency:     d.Frequency,
			SelectedDays:  d.SelectedDays,
			RecurringTime: d.RecurringTime,
		})
	}
	return resp
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

func parseDate(s *string) (time.Time, bool) {
	if s == nil || *s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, *s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
