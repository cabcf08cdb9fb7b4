package task

import (
	"strings"
	"time"
)

const clockLayout = "15:04"

// Поля, которые возвращаются в деталях ошибки валидации.
const (
	FieldTitle         = "title"
	FieldCategory      = "category_id"
	FieldSubcategory   = "subcategory_id"
	FieldPriority      = "priority"
	FieldFrequency     = "frequency"
	FieldSelectedDays  = "selected_days"
	FieldRecurringTime = "recurring_time"
)

// Validate проверяет черновик и возвращает все нарушения сразу: поле -> причина.
// Пустая карта означает, что черновик можно сохранять.
func (d Draft) Validate() map[string]string {
	problems := make(map[string]string)

	if strings.TrimSpace(d.Title) == "" {
		problems[FieldTitle] = "название обязательно"
	}
	if d.CategoryID == nil {
		problems[FieldCategory] = "категория обязательна"
	} else if d.SubcategoryID == nil {
		problems[FieldSubcategory] = "подкатегория обязательна"
	}
	if !d.Priority.Valid() {
		problems[FieldPriority] = "допустимы low, medium, high"
	}

	if !d.IsRecurring {
		return problems
	}

	if !d.Frequency.Valid() {
		problems[FieldFrequency] = "допустимы daily, weekly, monthly, custom"
	}
	if d.Frequency.NeedsDays() && len(d.SelectedDays) == 0 {
		problems[FieldSelectedDays] = "выберите хотя бы один день"
	}
	for _, day := range d.SelectedDays {
		if day < 0 || day > 6 {
			problems[FieldSelectedDays] = "дни недели задаются числами от 0 до 6"
			break
		}
	}
	if strings.TrimSpace(d.RecurringTime) == "" {
		problems[FieldRecurringTime] = "время обязательно"
	} else if !ValidClock(d.RecurringTime) {
		problems[FieldRecurringTime] = "ожидается формат HH:MM"
	}

	return problems
}

// ValidClock проверяет строку времени суток вида "HH:MM".
func ValidClock(s string) bool {
	if len(s) != len(clockLayout) {
		return false
	}
	_, err := time.Parse(clockLayout, s)
	return err == nil
}
