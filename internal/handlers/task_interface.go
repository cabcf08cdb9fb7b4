package handlers

import (
	"context"

	"taskDeck/internal/filter"
	"taskDeck/internal/models/task"
	"taskDeck/internal/service"
	"taskDeck/internal/workspace"
)

type TaskService interface {
	HealthCheck(context.Context) error
	Load(context.Context) (service.LoadSummary, error)
	List(filter.Criteria) []task.Task
	Stats() filter.Stats
	Get(context.Context, int64) (*task.Task, error)
	Create(context.Context, task.Draft) (*task.Task, error)
	Update(context.Context, int64, ...task.PatchOption) (*task.Task, error)
	ToggleComplete(context.Context, int64) (*task.Task, error)
	Delete(context.Context, int64) error

	ToggleSelection(int64) (workspace.SelectionState, error)
	SelectAll() workspace.SelectionState
	EnterSelectMode() workspace.SelectionState
	ClearSelection() workspace.SelectionState
	Selection() workspace.SelectionState
	BulkComplete(context.Context) (service.BulkResult, error)
	BulkArchive(context.Context) (service.BulkResult, error)
	BulkDelete(context.Context) (service.BulkResult, error)

	Templates(string) []task.Template
	TemplateCategories() []string
	DraftFromTemplate(int) (task.Draft, error)
	Categories() []task.Category
	CreateCategory(context.Context, task.Category) (*task.Category, error)
	Subcategories(context.Context, int64) ([]task.Subcategory, error)
	CreateSubcategory(context.Context, string, int64) (*task.Subcategory, error)
}

var _ TaskService = (*service.TaskService)(nil)
