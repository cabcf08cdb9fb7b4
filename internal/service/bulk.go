package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"taskDeck/internal/logger"
	"taskDeck/internal/models/task"
	"taskDeck/internal/workspace"

	"go.uber.org/zap"
)

type BulkKind string

const (
	BulkComplete BulkKind = "complete"
	BulkArchive  BulkKind = "archive"
	BulkDelete   BulkKind = "delete"
)

// BulkResult итог групповой операции по выбранным задачам.
type BulkResult struct {
	Kind      BulkKind `json:"kind"`
	Requested int      `json:"requested"`
	Succeeded []int64  `json:"succeeded"`
	Failed    []int64  `json:"failed"`
}

// BulkCoordinator выполняет групповые операции над выбором из workspace.
// Операция идёт в две фазы: один групповой запрос к репозиторию ждётся целиком,
// затем результат сверяется с актуальным кэшем. Выбор очищается всегда,
// повтора неудавшихся id нет.
type BulkCoordinator struct {
	repo     TaskRepository
	ws       *workspace.Workspace
	now      func() time.Time
	inFlight atomic.Bool
}

func NewBulkCoordinator(repo TaskRepository, ws *workspace.Workspace, now func() time.Time) *BulkCoordinator {
	if now == nil {
		now = time.Now
	}
	return &BulkCoordinator{repo: repo, ws: ws, now: now}
}

func (b *BulkCoordinator) Complete(ctx context.Context) (BulkResult, error) {
	return b.run(ctx, BulkComplete, func(ids []int64) []int64 {
		return b.update(ctx, ids, task.NewPatch(task.WithCompleted(true, b.now())))
	})
}

func (b *BulkCoordinator) Archive(ctx context.Context) (BulkResult, error) {
	return b.run(ctx, BulkArchive, func(ids []int64) []int64 {
		return b.update(ctx, ids, task.NewPatch(task.WithArchived(b.now())))
	})
}

func (b *BulkCoordinator) Delete(ctx context.Context) (BulkResult, error) {
	return b.run(ctx, BulkDelete, func(ids []int64) []int64 {
		deleted := b.repo.BulkDelete(ctx, ids)
		b.ws.Remove(deleted...)
		return deleted
	})
}

// InFlight сообщает, выполняется ли сейчас групповая операция.
func (b *BulkCoordinator) InFlight() bool {
	return b.inFlight.Load()
}

func (b *BulkCoordinator) update(ctx context.Context, ids []int64, patch task.Patch) []int64 {
	updated := b.repo.BulkUpdate(ctx, ids, patch)
	b.ws.Merge(updated...)

	succeeded := make([]int64, 0, len(updated))
	for _, t := range updated {
		succeeded = append(succeeded, t.ID)
	}
	return succeeded
}

func (b *BulkCoordinator) run(ctx context.Context, kind BulkKind, apply func(ids []int64) []int64) (BulkResult, error) {
	result := BulkResult{Kind: kind, Succeeded: []int64{}, Failed: []int64{}}

	if !b.inFlight.CompareAndSwap(false, true) {
		logger.Warn("Service: Групповая операция уже выполняется", zap.String("kind", string(kind)))
		return result, newBulkInProgress()
	}
	defer b.inFlight.Store(false)

	ids := b.ws.SelectedIDs()
	if len(ids) == 0 {
		return result, newEmptySelection()
	}
	defer b.ws.ClearSelection()

	start := time.Now()
	logger.Info("Service: Групповая операция",
		zap.String("kind", string(kind)),
		zap.Int("requested", len(ids)))

	succeeded := apply(ids)

	done := make(map[int64]bool, len(succeeded))
	for _, id := range succeeded {
		done[id] = true
	}
	result.Requested = len(ids)
	for _, id := range ids {
		if done[id] {
			result.Succeeded = append(result.Succeeded, id)
		} else {
			result.Failed = append(result.Failed, id)
		}
	}

	logger.Info("Service: Групповая операция завершена",
		zap.String("kind", string(kind)),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
		zap.Duration("ms", time.Since(start)))

	if len(result.Failed) == 0 {
		return result, nil
	}
	code := CodePartialFailure
	if len(result.Succeeded) == 0 {
		code = CodeBulkFailed
	}
	return result, NewBusinessError(code,
		fmt.Sprintf("Операция %s выполнена для %d из %d задач", kind, len(result.Succeeded), len(ids)),
		ToDetail("kind", kind),
		ToDetail("succeeded", result.Succeeded),
		ToDetail("failed", result.Failed),
	)
}
