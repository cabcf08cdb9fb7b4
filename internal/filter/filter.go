package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"taskDeck/internal/models/task"
)

type Status string

const (
	StatusAll       Status = "all"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

const all = "all"

var ErrInvalidCriteria = errors.New("некорректный критерий фильтра")

// Criteria набор независимых условий. Нулевое значение каждого поля условие отключает.
type Criteria struct {
	SearchText string
	Status     Status
	CategoryID *int64
	Priority   task.Priority
}

// ParseCriteria разбирает строковые параметры запроса. Пустая строка и "all" отключают условие.
func ParseCriteria(search, status, category, priority string) (Criteria, error) {
	c := Criteria{SearchText: search}

	switch Status(strings.ToLower(status)) {
	case "", StatusAll:
	case StatusActive:
		c.Status = StatusActive
	case StatusCompleted:
		c.Status = StatusCompleted
	default:
		return Criteria{}, fmt.Errorf("%w: status=%q", ErrInvalidCriteria, status)
	}

	if category != "" && !strings.EqualFold(category, all) {
		id, err := strconv.ParseInt(category, 10, 64)
		if err != nil {
			return Criteria{}, fmt.Errorf("%w: category=%q", ErrInvalidCriteria, category)
		}
		c.CategoryID = &id
	}

	if priority != "" && !strings.EqualFold(priority, all) {
		p := task.Priority(strings.ToLower(priority))
		if !p.Valid() {
			return Criteria{}, fmt.Errorf("%w: priority=%q", ErrInvalidCriteria, priority)
		}
		c.Priority = p
	}

	return c, nil
}

// Match проверяет задачу по всем включённым условиям сразу.
func (c Criteria) Match(t task.Task) bool {
	if c.SearchText != "" && !matchesText(t, strings.ToLower(c.SearchText)) {
		return false
	}
	switch c.Status {
	case StatusActive:
		if t.Completed {
			return false
		}
	case StatusCompleted:
		if !t.Completed {
			return false
		}
	}
	if c.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *c.CategoryID) {
		return false
	}
	if c.Priority != "" && t.Priority != c.Priority {
		return false
	}
	return true
}

func matchesText(t task.Task, needle string) bool {
	if strings.Contains(strings.ToLower(t.Title), needle) {
		return true
	}
	return t.Description != "" && strings.Contains(strings.ToLower(t.Description), needle)
}

// Apply возвращает подходящие задачи в исходном порядке. Вход не изменяется.
func Apply(tasks []task.Task, c Criteria) []task.Task {
	res := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if c.Match(t) {
			res = append(res, t)
		}
	}
	return res
}
