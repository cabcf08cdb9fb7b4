package service

import (
	"context"

	"taskDeck/internal/models/task"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	List(context.Context) []task.Task
	GetByID(context.Context, int64) (*task.Task, error)
	Create(context.Context, task.Draft) (*task.Task, error)
	Update(context.Context, int64, task.Patch) (*task.Task, error)
	Delete(context.Context, int64) error
	BulkUpdate(context.Context, []int64, task.Patch) []task.Task
	BulkDelete(context.Context, []int64) []int64
}

type CategoryRepository interface {
	List(context.Context) ([]task.Category, error)
	Create(context.Context, task.Category) (*task.Category, error)
	ListSubcategories(context.Context, int64) ([]task.Subcategory, error)
	CreateSubcategory(context.Context, string, int64) (*task.Subcategory, error)
}
