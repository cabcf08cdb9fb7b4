package task

import (
	"slices"
	"time"
)

type Priority string
type Frequency string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyCustom  Frequency = "custom"
)

const DefaultRecurringTime = "09:00"

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return true
	}
	return false
}

// NeedsDays сообщает, что частота опирается на набор дней недели.
func (f Frequency) NeedsDays() bool {
	return f == FrequencyWeekly || f == FrequencyCustom
}

type Task struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Priority      Priority   `json:"priority"`
	CategoryID    *int64     `json:"category_id,omitempty"`
	SubcategoryID *int64     `json:"subcategory_id,omitempty"`
	Completed     bool       `json:"completed"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Archived      bool       `json:"archived"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
	IsRecurring   bool       `json:"is_recurring"`
	Frequency     Frequency  `json:"frequency"`
	SelectedDays  []int      `json:"selected_days"`
	RecurringTime string     `json:"recurring_time"`
}

// Clone возвращает копию, не разделяющую указатели и срезы с оригиналом.
func (t Task) Clone() Task {
	c := t
	c.DueDate = cloneTime(t.DueDate)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.ArchivedAt = cloneTime(t.ArchivedAt)
	c.CategoryID = cloneID(t.CategoryID)
	c.SubcategoryID = cloneID(t.SubcategoryID)
	c.SelectedDays = slices.Clone(t.SelectedDays)
	return c
}

// Draft задача до сохранения: без идентификатора и полей жизненного цикла.
type Draft struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Priority      Priority   `json:"priority"`
	CategoryID    *int64     `json:"category_id,omitempty"`
	SubcategoryID *int64     `json:"subcategory_id,omitempty"`
	IsRecurring   bool       `json:"is_recurring"`
	Frequency     Frequency  `json:"frequency"`
	SelectedDays  []int      `json:"selected_days"`
	RecurringTime string     `json:"recurring_time"`
}

// DraftOf собирает черновик из существующей задачи, чтобы проверить её по тем же правилам.
func DraftOf(t Task) Draft {
	return Draft{
		Title:         t.Title,
		Description:   t.Description,
		DueDate:       cloneTime(t.DueDate),
		Priority:      t.Priority,
		CategoryID:    cloneID(t.CategoryID),
		SubcategoryID: cloneID(t.SubcategoryID),
		IsRecurring:   t.IsRecurring,
		Frequency:     t.Frequency,
		SelectedDays:  slices.Clone(t.SelectedDays),
		RecurringTime: t.RecurringTime,
	}
}

// Normalize заполняет значения по умолчанию и приводит набор дней к каноничному виду.
func (d *Draft) Normalize() {
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if d.Frequency == "" {
		d.Frequency = FrequencyDaily
	}
	if d.RecurringTime == "" && !d.IsRecurring {
		d.RecurringTime = DefaultRecurringTime
	}
	d.SelectedDays = NormalizeDays(d.Frequency, d.SelectedDays)
	if d.DueDate != nil {
		day := DateOnly(*d.DueDate)
		d.DueDate = &day
	}
}

// NormalizeDays сортирует и убирает дубли; для daily и monthly набор всегда пуст.
func NormalizeDays(f Frequency, days []int) []int {
	if !f.NeedsDays() {
		return []int{}
	}
	out := slices.Clone(days)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []int{}
	}
	return out
}

// DateOnly отбрасывает время суток: полночь UTC той же календарной даты.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
