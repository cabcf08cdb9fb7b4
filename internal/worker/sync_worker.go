package worker

import (
	"context"
	"time"

	"taskDeck/internal/logger"
	"taskDeck/internal/service"

	"go.uber.org/zap"
)

// Loader перечитывает локальный кэш из хранилища.
type Loader interface {
	Load(ctx context.Context) (service.LoadSummary, error)
}

// SyncWorker периодически обновляет кэш задач. Сами задачи он не трогает.
type SyncWorker struct {
	loader   Loader
	interval time.Duration
}

func NewSyncWorker(loader Loader, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		loader:   loader,
		interval: interval,
	}
}

func (w *SyncWorker) Enabled() bool {
	return w.interval > 0
}

// Start блокируется до отмены ctx. При нулевом интервале сразу возвращается.
func (w *SyncWorker) Start(ctx context.Context) {
	if !w.Enabled() {
		logger.Info("Worker: Синхронизация кэша выключена")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Синхронизация кэша запущена", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ticker.C:
			w.Sync(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Синхронизация кэша останавливается")
			return
		}
	}
}

// Sync один проход. Ошибка только логируется: кэш остаётся прежним.
func (w *SyncWorker) Sync(ctx context.Context) {
	start := time.Now()

	summary, err := w.loader.Load(ctx)
	if err != nil {
		logger.Warn("Worker: Ошибка синхронизации кэша", zap.Error(err))
		return
	}

	logger.Info("Worker: Кэш синхронизирован",
		zap.Int("tasks", summary.Tasks),
		zap.Int("categories", summary.Categories),
		zap.Duration("ms", time.Since(start)))
}
