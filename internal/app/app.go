package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskDeck/internal/config"
	"taskDeck/internal/handlers"
	"taskDeck/internal/logger"
	"taskDeck/internal/middleware"
	"taskDeck/internal/models/task"
	"taskDeck/internal/repository"
	"taskDeck/internal/repository/task/inmemory"
	"taskDeck/internal/repository/task/postgres"
	"taskDeck/internal/repository/task/sqlite"
	"taskDeck/internal/service"
	"taskDeck/internal/templates"
	"taskDeck/internal/worker"
	"taskDeck/internal/workspace"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultSubcategory = "General"

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	store      repository.RecordStore
	categories *repository.CategoryRepository
	catalog    *templates.Catalog
	service    *service.TaskService
	worker     *worker.SyncWorker
	shutdowns  []func() // выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init собирает все слои. При ошибке уже открытые ресурсы закрываются.
func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initCatalog(); err != nil {
		a.Shutdown()
		return nil, err
	}

	if err := a.initStore(ctx); err != nil {
		a.Shutdown()
		return nil, err
	}

	a.initService(ctx)
	a.initRouter()

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           otelhttp.NewHandler(a.router, "taskdeck"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.worker = worker.NewSyncWorker(a.service, a.config.Sync.Interval)

	logger.Info("App: Приложение собрано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))
	return a, nil
}

func (a *App) initCatalog() error {
	var (
		catalog *templates.Catalog
		err     error
	)
	if a.config.Templates.Path != "" {
		catalog, err = templates.LoadFile(a.config.Templates.Path)
	} else {
		catalog, err = templates.Default()
	}
	if err != nil {
		logger.Error("App: Ошибка загрузки каталога шаблонов", err)
		return fmt.Errorf("каталог шаблонов: %w", err)
	}
	a.catalog = catalog
	return nil
}

func (a *App) initStore(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		db := a.config.Database
		storage, err := postgres.New(ctx, db.URL, postgres.Options{
			MaxConns:        db.MaxConnections,
			MinConns:        db.MinConnections,
			MaxConnIdleTime: db.IdleTimeout,
		})
		if err != nil {
			return fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		if err := storage.Migrate(); err != nil {
			storage.Close()
			return fmt.Errorf("миграции PostgreSQL: %w", err)
		}
		a.shutdowns = append(a.shutdowns, storage.Close)
		a.store = storage

	case config.RepositorySQLite:
		storage, err := sqlite.New(ctx, a.config.Database.SQLitePath)
		if err != nil {
			return fmt.Errorf("открытие SQLite: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			if err := storage.Close(); err != nil {
				logger.Error("App: Ошибка закрытия SQLite", err)
			}
		})
		a.store = storage

	default:
		a.store = inmemory.NewTaskStorage()
	}
	return nil
}

func (a *App) initService(ctx context.Context) {
	a.categories = repository.NewCategoryRepository(a.store)
	a.service = service.NewTaskService(
		repository.NewTaskRepository(a.store),
		a.categories,
		a.catalog,
		workspace.New(),
	)

	if err := a.seedCategories(ctx); err != nil {
		logger.Warn("App: Не удалось создать категории по умолчанию", zap.Error(err))
	}
	if _, err := a.service.Load(ctx); err != nil {
		logger.Warn("App: Первичная загрузка кэша не удалась", zap.Error(err))
	}
}

// seedCategories на пустом хранилище заводит категории из каталога шаблонов.
func (a *App) seedCategories(ctx context.Context) error {
	existing, err := a.categories.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, label := range a.catalog.Categories() {
		created, err := a.categories.Create(ctx, task.Category{Name: label})
		if err != nil {
			return fmt.Errorf("категория %q: %w", label, err)
		}
		if _, err := a.categories.CreateSubcategory(ctx, defaultSubcategory, created.ID); err != nil {
			return fmt.Errorf("подкатегория для %q: %w", label, err)
		}
	}
	logger.Info("App: Созданы категории по умолчанию", zap.Int("count", len(a.catalog.Categories())))
	return nil
}

func (a *App) initRouter() {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "X-RateLimit-Remaining"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))

	handlers.NewTaskHandler(a.service).Register(r)
	a.router = r
}

// Handler корневой обработчик сервера.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run держит сервер и воркер до отмены ctx, затем останавливает всё.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("запуск сервера: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.worker.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("App: Остановка сервера")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Shutdown()
	return err
}

func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
