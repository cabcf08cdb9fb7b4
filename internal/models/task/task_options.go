package task

import (
	"slices"
	"time"
)

// Patch частичное обновление задачи: nil означает "поле не трогать".
type Patch struct {
	Title         *string
	Description   *string
	DueDate       *time.Time
	ClearDueDate  bool
	Priority      *Priority
	CategoryID    *int64
	SubcategoryID *int64
	Completed     *bool
	CompletedAt   *time.Time
	Archived      *bool
	ArchivedAt    *time.Time
	IsRecurring   *bool
	Frequency     *Frequency
	SelectedDays  *[]int
	RecurringTime *string
}

type PatchOption func(*Patch)

// NewPatch собирает патч из опций; nil-опции пропускаются.
func NewPatch(opts ...PatchOption) Patch {
	var p Patch
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}
	return p
}

func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

func WithTitle(title string) PatchOption {
	return func(p *Patch) {
		p.Title = &title
	}
}

func WithDescription(description string) PatchOption {
	return func(p *Patch) {
		p.Description = &description
	}
}

func WithDueDate(due time.Time) PatchOption {
	if due.IsZero() {
		return nil
	}
	day := DateOnly(due)
	return func(p *Patch) {
		p.DueDate = &day
		p.ClearDueDate = false
	}
}

func WithoutDueDate() PatchOption {
	return func(p *Patch) {
		p.DueDate = nil
		p.ClearDueDate = true
	}
}

func WithPriority(priority Priority) PatchOption {
	if priority == "" {
		return nil
	}
	return func(p *Patch) {
		p.Priority = &priority
	}
}

func WithCategory(id int64) PatchOption {
	return func(p *Patch) {
		p.CategoryID = &id
	}
}

func WithSubcategory(id int64) PatchOption {
	return func(p *Patch) {
		p.SubcategoryID = &id
	}
}

// WithCompleted отмечает выполнение. Отметка ставит completedAt, снятие его очищает.
func WithCompleted(done bool, at time.Time) PatchOption {
	return func(p *Patch) {
		p.Completed = &done
		if done {
			p.CompletedAt = &at
		} else {
			p.CompletedAt = nil
		}
	}
}

func WithArchived(at time.Time) PatchOption {
	return func(p *Patch) {
		archived := true
		p.Archived = &archived
		p.ArchivedAt = &at
	}
}

// WithRecurrence задаёт правило повторения целиком, дни приводятся к каноничному виду.
func WithRecurrence(isRecurring bool, frequency Frequency, days []int, recurringTime string) PatchOption {
	return func(p *Patch) {
		normalized := NormalizeDays(frequency, days)
		p.IsRecurring = &isRecurring
		p.Frequency = &frequency
		p.SelectedDays = &normalized
		p.RecurringTime = &recurringTime
	}
}

// ApplyTo возвращает копию задачи с применённым патчем. Исходная задача не меняется.
func (p Patch) ApplyTo(t Task) Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.ClearDueDate {
		out.DueDate = nil
	} else if p.DueDate != nil {
		out.DueDate = cloneTime(p.DueDate)
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.CategoryID != nil {
		out.CategoryID = cloneID(p.CategoryID)
	}
	if p.SubcategoryID != nil {
		out.SubcategoryID = cloneID(p.SubcategoryID)
	}
	if p.Completed != nil {
		out.Completed = *p.Completed
		out.CompletedAt = cloneTime(p.CompletedAt)
	}
	if p.Archived != nil {
		out.Archived = *p.Archived
		out.ArchivedAt = cloneTime(p.ArchivedAt)
	}
	if p.IsRecurring != nil {
		out.IsRecurring = *p.IsRecurring
	}
	if p.Frequency != nil {
		out.Frequency = *p.Frequency
	}
	if p.SelectedDays != nil {
		out.SelectedDays = slices.Clone(*p.SelectedDays)
	}
	if p.RecurringTime != nil {
		out.RecurringTime = *p.RecurringTime
	}
	return out
}
