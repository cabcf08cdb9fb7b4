// Package recurrence вычисляет дату следующего повторения задачи по её правилу.
//
// Пакет ничего не планирует и не запускает: NextOccurrence чистая функция
// от правила и опорной даты. Результат всегда календарная дата без времени
// суток (полночь UTC); время повторения хранится в правиле отдельно и в дату
// не подмешивается.
//
// Дни недели нумеруются как в time.Weekday: воскресенье 0, суббота 6.
package recurrence

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"taskDeck/internal/models/task"

	"github.com/robfig/cron/v3"
)

// ErrInvalidRule правило нарушает контракт: пустой набор дней для weekly/custom,
// день вне диапазона 0..6, дни у monthly или неизвестная частота.
var ErrInvalidRule = errors.New("некорректное правило повторения")

type Rule struct {
	Frequency     task.Frequency
	SelectedDays  []int
	RecurringTime string
}

func RuleOf(t task.Task) Rule {
	return Rule{Frequency: t.Frequency, SelectedDays: t.SelectedDays, RecurringTime: t.RecurringTime}
}

func RuleOfTemplate(t task.Template) Rule {
	return Rule{Frequency: t.Frequency, SelectedDays: t.SelectedDays, RecurringTime: t.RecurringTime}
}

// NextOccurrence возвращает ближайшую дату повторения строго после календарной даты ref.
// Календарная дата ref берётся в часовом поясе самого ref.
func NextOccurrence(rule Rule, ref time.Time) (time.Time, error) {
	day := task.DateOnly(ref)

	switch rule.Frequency {
	case task.FrequencyDaily:
		return day.AddDate(0, 0, 1), nil

	case task.FrequencyWeekly:
		if err := checkDays(rule); err != nil {
			return time.Time{}, err
		}
		// weekly смотрит только на наименьший выбранный день
		return nextMatching(day, []int{slices.Min(rule.SelectedDays)})

	case task.FrequencyCustom:
		if err := checkDays(rule); err != nil {
			return time.Time{}, err
		}
		return nextMatching(day, rule.SelectedDays)

	case task.FrequencyMonthly:
		if len(rule.SelectedDays) > 0 {
			return time.Time{}, fmt.Errorf("%w: monthly не принимает дни недели", ErrInvalidRule)
		}
		return sameDayNextMonth(day), nil
	}

	return time.Time{}, fmt.Errorf("%w: неизвестная частота %q", ErrInvalidRule, rule.Frequency)
}

func checkDays(rule Rule) error {
	if len(rule.SelectedDays) == 0 {
		return fmt.Errorf("%w: %s без выбранных дней", ErrInvalidRule, rule.Frequency)
	}
	for _, d := range rule.SelectedDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: день недели %d вне диапазона 0..6", ErrInvalidRule, d)
		}
	}
	return nil
}

// nextMatching ищет первый подходящий день недели после day через расписание cron.
// Поиск стартует с последней секунды опорного дня, поэтому сам день никогда не подходит.
func nextMatching(day time.Time, weekdays []int) (time.Time, error) {
	dow := make([]string, 0, len(weekdays))
	for _, d := range weekdays {
		dow = append(dow, strconv.Itoa(d))
	}

	schedule, err := cron.ParseStandard("0 0 * * " + strings.Join(dow, ","))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	endOfDay := day.Add(24*time.Hour - time.Second)
	next := schedule.Next(endOfDay)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("%w: расписание не даёт дат", ErrInvalidRule)
	}
	return task.DateOnly(next), nil
}

// sameDayNextMonth переносит дату на тот же день следующего месяца.
// Если такого дня нет (31 января -> февраль), берётся последний день месяца.
func sameDayNextMonth(day time.Time) time.Time {
	year, month, d := day.Date()
	month++
	if month > time.December {
		month = time.January
		year++
	}
	if last := daysInMonth(year, month); d > last {
		d = last
	}
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

var weekdayShort = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Describe короткая подпись правила для клиента, например "Weekly on Sat at 10:00".
func Describe(rule Rule) string {
	var b strings.Builder
	switch rule.Frequency {
	case task.FrequencyDaily:
		b.WriteString("Daily")
	case task.FrequencyMonthly:
		b.WriteString("Monthly")
	case task.FrequencyWeekly, task.FrequencyCustom:
		if rule.Frequency == task.FrequencyWeekly {
			b.WriteString("Weekly")
		} else {
			b.WriteString("Custom")
		}
		names := make([]string, 0, len(rule.SelectedDays))
		for _, d := range rule.SelectedDays {
			if d >= 0 && d <= 6 {
				names = append(names, weekdayShort[d])
			}
		}
		if len(names) > 0 {
			b.WriteString(" on ")
			b.WriteString(strings.Join(names, ", "))
		}
	default:
		return ""
	}
	if rule.RecurringTime != "" {
		b.WriteString(" at ")
		b.WriteString(rule.RecurringTime)
	}
	return b.String()
}
