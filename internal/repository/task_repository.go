package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskDeck/internal/logger"
	"taskDeck/internal/models/task"

	"go.uber.org/zap"
)

// TaskRepository типизированная граница к хранилищу записей: переводит доменные
// задачи в схему хранилища и обратно, а ошибки хранилища сводит к ErrNotFound,
// ErrInvalidReference и ErrTransport.
type TaskRepository struct {
	store RecordStore
	now   func() time.Time
}

type TaskRepositoryOption func(*TaskRepository)

// WithClock подменяет источник времени для createdAt.
func WithClock(now func() time.Time) TaskRepositoryOption {
	return func(r *TaskRepository) {
		r.now = now
	}
}

func NewTaskRepository(store RecordStore, opts ...TaskRepositoryOption) *TaskRepository {
	r := &TaskRepository{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *TaskRepository) HealthCheck(ctx context.Context) error {
	if err := r.store.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

// List возвращает все задачи. При сбое хранилища ошибка логируется, а результат пустой.
func (r *TaskRepository) List(ctx context.Context) []task.Task {
	records, err := r.store.ListRecords(ctx)
	if err != nil {
		logger.Error("Repository: Ошибка получения списка задач", err)
		return []task.Task{}
	}

	tasks := make([]task.Task, 0, len(records))
	for _, rec := range records {
		tasks = append(tasks, FromRecord(rec))
	}
	return tasks
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	rec, err := r.store.GetRecord(ctx, id)
	if err != nil {
		return nil, r.fail("получение задачи", id, err)
	}
	t := FromRecord(rec)
	return &t, nil
}

func (r *TaskRepository) Create(ctx context.Context, draft task.Draft) (*task.Task, error) {
	rec, err := r.store.CreateRecord(ctx, ToRecord(draft, r.now()))
	if err != nil {
		return nil, r.fail("создание задачи", 0, err)
	}
	t := FromRecord(rec)
	logger.Debug("Repository: Задача создана", zap.Int64("task_id", t.ID))
	return &t, nil
}

func (r *TaskRepository) Update(ctx context.Context, id int64, patch task.Patch) (*task.Task, error) {
	results, err := r.store.UpdateRecords(ctx, []int64{id}, PatchFields(patch))
	if err != nil {
		return nil, r.fail("обновление задачи", id, err)
	}
	if len(results) != 1 {
		return nil, r.fail("обновление задачи", id, fmt.Errorf("%w: ожидался один результат, получено %d", ErrTransport, len(results)))
	}
	if !results[0].OK() {
		return nil, r.fail("обновление задачи", id, results[0].Err)
	}
	t := FromRecord(results[0].Record)
	return &t, nil
}

// Delete удаляет задачу; nil означает успех.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	results, err := r.store.DeleteRecords(ctx, []int64{id})
	if err != nil {
		return r.fail("удаление задачи", id, err)
	}
	if len(results) != 1 || !results[0].OK() {
		cause := ErrNotFound
		if len(results) == 1 {
			cause = results[0].Err
		}
		return r.fail("удаление задачи", id, cause)
	}
	return nil
}

// BulkUpdate применяет одно обновление к группе задач одним запросом и
// возвращает только успешно обновлённые задачи. Неудачи логируются по каждому id.
func (r *TaskRepository) BulkUpdate(ctx context.Context, ids []int64, patch task.Patch) []task.Task {
	results, err := r.store.UpdateRecords(ctx, ids, PatchFields(patch))
	if err != nil {
		logger.Error("Repository: Групповое обновление не выполнено", err, zap.Int64s("task_ids", ids))
		return []task.Task{}
	}

	updated := make([]task.Task, 0, len(results))
	for _, res := range results {
		if !res.OK() {
			logger.Warn("Repository: Задача не обновлена",
				zap.Int64("task_id", res.ID),
				zap.Error(res.Err))
			continue
		}
		updated = append(updated, FromRecord(res.Record))
	}
	return updated
}

// BulkDelete удаляет группу задач и возвращает id, удаление которых хранилище подтвердило.
func (r *TaskRepository) BulkDelete(ctx context.Context, ids []int64) []int64 {
	results, err := r.store.DeleteRecords(ctx, ids)
	if err != nil {
		logger.Error("Repository: Групповое удаление не выполнено", err, zap.Int64s("task_ids", ids))
		return []int64{}
	}

	deleted := make([]int64, 0, len(results))
	for _, res := range results {
		if !res.OK() {
			logger.Warn("Repository: Задача не удалена",
				zap.Int64("task_id", res.ID),
				zap.Error(res.Err))
			continue
		}
		deleted = append(deleted, res.ID)
	}
	return deleted
}

// fail логирует ошибку хранилища и приводит её к одной из ошибок пакета.
func (r *TaskRepository) fail(op string, id int64, err error) error {
	wrapped := classify(err)
	logger.Error("Repository: Ошибка хранилища", err,
		zap.String("operation", op),
		zap.Int64("task_id", id))
	return fmt.Errorf("%s %d: %w", op, id, wrapped)
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidReference), errors.Is(err, ErrTransport):
		return err
	case errors.Is(err, ErrUnknownField):
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}
