package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"taskDeck/internal/models/task"
)

// ToRecord переводит черновик в запись хранилища. Id назначает хранилище.
func ToRecord(d task.Draft, createdAt time.Time) Record {
	return Record{
		Title:         d.Title,
		Description:   d.Description,
		DueDate:       dateOnly(d.DueDate),
		Priority:      string(d.Priority),
		CategoryID:    RefJSON(d.CategoryID),
		SubcategoryID: RefJSON(d.SubcategoryID),
		CreatedAt:     createdAt,
		IsRecurring:   d.IsRecurring,
		Frequency:     string(d.Frequency),
		SelectedDays:  daysField(d.SelectedDays),
		RecurringTime: d.RecurringTime,
	}
}

// FromRecord переводит запись хранилища в доменную задачу.
func FromRecord(r Record) task.Task {
	return task.Task{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		DueDate:       dateOnly(r.DueDate),
		Priority:      task.Priority(r.Priority),
		CategoryID:    ParseRef(r.CategoryID),
		SubcategoryID: ParseRef(r.SubcategoryID),
		Completed:     r.Completed,
		CreatedAt:     r.CreatedAt,
		CompletedAt:   r.CompletedAt,
		Archived:      r.Archived,
		ArchivedAt:    r.ArchivedAt,
		IsRecurring:   r.IsRecurring,
		Frequency:     task.Frequency(r.Frequency),
		SelectedDays:  ParseDays(r.SelectedDays),
		RecurringTime: r.RecurringTime,
	}
}

// PatchFields переименовывает поля патча в поля хранилища. Нетронутые поля не попадают в карту.
func PatchFields(p task.Patch) Fields {
	f := Fields{}
	if p.Title != nil {
		f[ColTitle] = *p.Title
	}
	if p.Description != nil {
		f[ColDescription] = *p.Description
	}
	if p.ClearDueDate {
		f[ColDueDate] = (*time.Time)(nil)
	} else if p.DueDate != nil {
		f[ColDueDate] = dateOnly(p.DueDate)
	}
	if p.Priority != nil {
		f[ColPriority] = string(*p.Priority)
	}
	if p.CategoryID != nil {
		f[ColCategory] = p.CategoryID
	}
	if p.SubcategoryID != nil {
		f[ColSubcategory] = p.SubcategoryID
	}
	if p.Completed != nil {
		f[ColCompleted] = *p.Completed
		f[ColCompletedAt] = p.CompletedAt
	}
	if p.Archived != nil {
		f[ColArchived] = *p.Archived
		f[ColArchivedAt] = p.ArchivedAt
	}
	if p.IsRecurring != nil {
		f[ColIsRecurring] = *p.IsRecurring
	}
	if p.Frequency != nil {
		f[ColFrequency] = string(*p.Frequency)
	}
	if p.SelectedDays != nil {
		f[ColSelectedDays] = daysField(*p.SelectedDays)
	}
	if p.RecurringTime != nil {
		f[ColRecurringTime] = *p.RecurringTime
	}
	return f
}

// CheckFields проверяет, что обновление трогает только изменяемые поля с ожидаемыми типами.
func CheckFields(f Fields) error {
	for col, v := range f {
		var ok bool
		switch col {
		case ColTitle, ColDescription, ColPriority, ColFrequency, ColRecurringTime:
			_, ok = v.(string)
		case ColCompleted, ColArchived, ColIsRecurring:
			_, ok = v.(bool)
		case ColDueDate, ColCompletedAt, ColArchivedAt:
			_, ok = v.(*time.Time)
		case ColCategory, ColSubcategory:
			_, ok = v.(*int64)
		case ColSelectedDays:
			_, ok = v.(*string)
		}
		if !ok {
			return fmt.Errorf("%w: %s (%T)", ErrUnknownField, col, v)
		}
	}
	return nil
}

// SortedKeys имена полей в порядке схемы, для детерминированных запросов.
func (f Fields) SortedKeys() []string {
	keys := make([]string, 0, len(f))
	for _, col := range Columns {
		if _, ok := f[col]; ok {
			keys = append(keys, col)
		}
	}
	return keys
}

// ApplyFields применяет обновление к записи. Поля должны пройти CheckFields.
func ApplyFields(r *Record, f Fields) {
	for col, v := range f {
		switch col {
		case ColTitle:
			r.Title = v.(string)
		case ColDescription:
			r.Description = v.(string)
		case ColPriority:
			r.Priority = v.(string)
		case ColFrequency:
			r.Frequency = v.(string)
		case ColRecurringTime:
			r.RecurringTime = v.(string)
		case ColCompleted:
			r.Completed = v.(bool)
		case ColArchived:
			r.Archived = v.(bool)
		case ColIsRecurring:
			r.IsRecurring = v.(bool)
		case ColDueDate:
			r.DueDate = copyTime(v.(*time.Time))
		case ColCompletedAt:
			r.CompletedAt = copyTime(v.(*time.Time))
		case ColArchivedAt:
			r.ArchivedAt = copyTime(v.(*time.Time))
		case ColCategory:
			r.CategoryID = RefJSON(v.(*int64))
		case ColSubcategory:
			r.SubcategoryID = RefJSON(v.(*int64))
		case ColSelectedDays:
			if s := v.(*string); s != nil {
				days := *s
				r.SelectedDays = &days
			} else {
				r.SelectedDays = nil
			}
		}
	}
}

// FormatDays сериализует дни недели в строку через запятую: [5 1 3] -> "1,3,5".
func FormatDays(days []int) string {
	clean := make([]int, 0, len(days))
	for _, d := range days {
		if d >= 0 && d <= 6 {
			clean = append(clean, d)
		}
	}
	slices.Sort(clean)
	clean = slices.Compact(clean)

	parts := make([]string, len(clean))
	for i, d := range clean {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// ParseDays разбирает строку дней. Нечисловые и вне 0..6 значения молча отбрасываются;
// пустая строка или nil дают пустой набор.
func ParseDays(s *string) []int {
	days := []int{}
	if s == nil {
		return days
	}
	for _, token := range strings.Split(*s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil || d < 0 || d > 6 {
			continue
		}
		days = append(days, d)
	}
	slices.Sort(days)
	return slices.Compact(days)
}

// ParseRef сводит ссылку к голому id. Понимает 3, "3" и {"Id": 3}; остальное считается пустой ссылкой.
func ParseRef(raw json.RawMessage) *int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	switch raw[0] {
	case '{':
		var expanded struct {
			ID json.RawMessage `json:"Id"`
		}
		if err := json.Unmarshal(raw, &expanded); err != nil {
			return nil
		}
		if len(bytes.TrimSpace(expanded.ID)) > 0 && expanded.ID[0] == '{' {
			return nil
		}
		return ParseRef(expanded.ID)
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return parseID(s)
	}
	return parseID(string(raw))
}

func parseID(s string) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

// RefJSON сериализует ссылку голым id.
func RefJSON(id *int64) json.RawMessage {
	if id == nil {
		return nil
	}
	return json.RawMessage(strconv.FormatInt(*id, 10))
}

func daysField(days []int) *string {
	s := FormatDays(days)
	if s == "" {
		return nil
	}
	return &s
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := task.DateOnly(*t)
	return &d
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
