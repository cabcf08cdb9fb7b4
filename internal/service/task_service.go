package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"taskDeck/internal/filter"
	"taskDeck/internal/logger"
	"taskDeck/internal/models/task"
	"taskDeck/internal/templates"
	"taskDeck/internal/workspace"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// здесь происходит проверка ошибок бизнес-логики

const (
	resourceTask        = "задача"
	resourceTemplate    = "шаблон"
	resourceCategory    = "категория"
	resourceSubcategory = "подкатегория"
)

type TaskService struct {
	tasks      TaskRepository
	categories CategoryRepository
	catalog    *templates.Catalog
	ws         *workspace.Workspace
	bulk       *BulkCoordinator
	now        func() time.Time

	mtx           sync.RWMutex
	categoryCache []task.Category
}

type Option func(*TaskService)

// WithClock подменяет источник времени для отметок выполнения и расчёта сроков.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

// LoadSummary сколько записей пришло при последней загрузке.
type LoadSummary struct {
	Tasks      int `json:"tasks"`
	Categories int `json:"categories"`
}

func NewTaskService(tasks TaskRepository, categories CategoryRepository, catalog *templates.Catalog, ws *workspace.Workspace, opts ...Option) *TaskService {
	s := &TaskService{
		tasks:      tasks,
		categories: categories,
		catalog:    catalog,
		ws:         ws,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.bulk = NewBulkCoordinator(tasks, ws, s.now)
	return s
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.tasks.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// loadAttempts сколько раз Load перечитывает список, если кэш менялся во время чтения.
const loadAttempts = 3

// Load перечитывает задачи и категории из хранилища и заменяет кэш.
// Если хранилище недоступно, кэш остаётся прежним. Список, прочитанный до
// изменения кэша, не применяется: Load читает заново.
func (s *TaskService) Load(ctx context.Context) (LoadSummary, error) {
	start := time.Now()

	if err := s.tasks.HealthCheck(ctx); err != nil {
		logger.Error("Service: Хранилище недоступно, кэш не обновлён", err)
		return LoadSummary{}, newTransportFailure("загрузка задач", err)
	}

	for attempt := 1; ; attempt++ {
		version := s.ws.Version()

		var (
			tasks      []task.Task
			categories []task.Category
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			tasks = s.tasks.List(gctx)
			return nil
		})
		g.Go(func() error {
			var err error
			categories, err = s.categories.List(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return LoadSummary{}, fromRepositoryError("загрузка категорий", resourceCategory, "", err)
		}
		s.setCategories(categories)

		if s.ws.ReplaceIfUnchanged(version, tasks) {
			logger.Info("Service: Кэш обновлён",
				zap.Int("tasks", len(tasks)),
				zap.Int("categories", len(categories)),
				zap.Int("attempt", attempt),
				zap.Duration("ms", time.Since(start)))
			return LoadSummary{Tasks: len(tasks), Categories: len(categories)}, nil
		}

		if attempt == loadAttempts {
			logger.Warn("Service: Кэш менялся во время каждой загрузки, список задач не применён",
				zap.Int("attempts", attempt))
			return LoadSummary{Tasks: s.ws.Len(), Categories: len(categories)}, nil
		}
		logger.Debug("Service: Кэш изменился во время загрузки, повтор", zap.Int("attempt", attempt))
	}
}

// List отфильтрованный срез кэша в исходном порядке.
func (s *TaskService) List(criteria filter.Criteria) []task.Task {
	return filter.Apply(s.ws.Snapshot(), criteria)
}

func (s *TaskService) Stats() filter.Stats {
	return filter.Summarize(s.ws.Snapshot(), s.now())
}

// Get ищет задачу в кэше, а при промахе спрашивает хранилище.
func (s *TaskService) Get(ctx context.Context, id int64) (*task.Task, error) {
	if t, ok := s.ws.Get(id); ok {
		return &t, nil
	}

	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
		return nil, fromRepositoryError("получение задачи", resourceTask, id, err)
	}
	return t, nil
}

// Create проверяет черновик до обращения к хранилищу и кладёт новую задачу в начало кэша.
func (s *TaskService) Create(ctx context.Context, draft task.Draft) (*task.Task, error) {
	draft.Normalize()
	if problems := draft.Validate(); len(problems) > 0 {
		logger.Warn("Service: Черновик не прошёл проверку", zap.Any("fields", problems))
		return nil, NewValidationErrors(problems)
	}

	if err := s.checkSubcategory(ctx, draft.CategoryID, draft.SubcategoryID); err != nil {
		return nil, err
	}

	created, err := s.tasks.Create(ctx, draft)
	if err != nil {
		return nil, fromRepositoryError("создание задачи", resourceTask, "", err)
	}

	s.ws.Prepend(*created)
	logger.Info("Service: Задача создана", zap.Int64("task_id", created.ID))
	return created, nil
}

// Update применяет опции к актуальной копии из кэша, проверяет результат
// и только потом отправляет изменения в хранилище.
func (s *TaskService) Update(ctx context.Context, id int64, opts ...task.PatchOption) (*task.Task, error) {
	current, ok := s.ws.Get(id)
	if !ok {
		logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
		return nil, NewNotFound(resourceTask, id)
	}

	patch := task.NewPatch(opts...)
	if patch.Completed != nil && *patch.Completed == current.Completed {
		// completedAt меняется только при смене отметки
		patch.Completed, patch.CompletedAt = nil, nil
	}
	if patch.IsEmpty() {
		return &current, nil
	}

	merged := patch.ApplyTo(current)
	if problems := task.DraftOf(merged).Validate(); len(problems) > 0 {
		logger.Warn("Service: Изменения не прошли проверку",
			zap.Int64("task_id", id),
			zap.Any("fields", problems))
		return nil, NewValidationErrors(problems)
	}
	if patch.CategoryID != nil || patch.SubcategoryID != nil {
		if err := s.checkSubcategory(ctx, merged.CategoryID, merged.SubcategoryID); err != nil {
			return nil, err
		}
	}

	updated, err := s.tasks.Update(ctx, id, patch)
	if err != nil {
		return nil, fromRepositoryError("обновление задачи", resourceTask, id, err)
	}

	s.ws.Merge(*updated)
	return updated, nil
}

// ToggleComplete переключает отметку выполнения; completedAt ставится или очищается вместе с ней.
func (s *TaskService) ToggleComplete(ctx context.Context, id int64) (*task.Task, error) {
	current, ok := s.ws.Get(id)
	if !ok {
		return nil, NewNotFound(resourceTask, id)
	}
	return s.Update(ctx, id, task.WithCompleted(!current.Completed, s.now()))
}

// Delete удаляет задачу из хранилища, а затем из кэша и выбора.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return fromRepositoryError("удаление задачи", resourceTask, id, err)
	}

	s.ws.Remove(id)
	logger.Info("Service: Задача удалена", zap.Int64("task_id", id))
	return nil
}

func (s *TaskService) ToggleSelection(id int64) (workspace.SelectionState, error) {
	if _, ok := s.ws.Toggle(id); !ok {
		return s.ws.Selection(), NewNotFound(resourceTask, id)
	}
	return s.ws.Selection(), nil
}

func (s *TaskService) SelectAll() workspace.SelectionState {
	s.ws.SelectAll()
	return s.ws.Selection()
}

func (s *TaskService) EnterSelectMode() workspace.SelectionState {
	s.ws.EnterSelectMode()
	return s.ws.Selection()
}

func (s *TaskService) ClearSelection() workspace.SelectionState {
	s.ws.ClearSelection()
	return s.ws.Selection()
}

func (s *TaskService) Selection() workspace.SelectionState {
	return s.ws.Selection()
}

func (s *TaskService) BulkComplete(ctx context.Context) (BulkResult, error) {
	return s.bulk.Complete(ctx)
}

func (s *TaskService) BulkArchive(ctx context.Context) (BulkResult, error) {
	return s.bulk.Archive(ctx)
}

func (s *TaskService) BulkDelete(ctx context.Context) (BulkResult, error) {
	return s.bulk.Delete(ctx)
}

func (s *TaskService) Templates(category string) []task.Template {
	return s.catalog.ByCategory(category)
}

func (s *TaskService) TemplateCategories() []string {
	return s.catalog.Categories()
}

// DraftFromTemplate готовит черновик по шаблону. Если у шаблона нет id категории,
// он ищется среди загруженных категорий по названию.
func (s *TaskService) DraftFromTemplate(id int) (task.Draft, error) {
	tmpl, ok := s.catalog.ByID(id)
	if !ok {
		return task.Draft{}, NewNotFound(resourceTemplate, id)
	}

	draft, err := templates.Apply(tmpl, s.now())
	if err != nil {
		logger.Error("Service: Некорректное правило шаблона", err, zap.Int("template_id", id))
		return task.Draft{}, &BusinessError{
			Code:    CodeInvalidRule,
			Message: fmt.Sprintf("Шаблон %d содержит некорректное правило повторения", id),
			Details: map[string]any{"template_id": id},
			Err:     err,
		}
	}

	if draft.CategoryID == nil {
		if c, ok := s.categoryByName(tmpl.Category); ok {
			categoryID := c.ID
			draft.CategoryID = &categoryID
		}
	}
	return draft, nil
}

func (s *TaskService) Categories() []task.Category {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	out := make([]task.Category, len(s.categoryCache))
	copy(out, s.categoryCache)
	return out
}

func (s *TaskService) CreateCategory(ctx context.Context, c task.Category) (*task.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, NewValidationError("name", "название обязательно")
	}

	created, err := s.categories.Create(ctx, c)
	if err != nil {
		return nil, fromRepositoryError("создание категории", resourceCategory, "", err)
	}

	s.mtx.Lock()
	s.categoryCache = append(s.categoryCache, *created)
	s.mtx.Unlock()

	logger.Info("Service: Категория создана", zap.Int64("category_id", created.ID))
	return created, nil
}

func (s *TaskService) Subcategories(ctx context.Context, categoryID int64) ([]task.Subcategory, error) {
	subs, err := s.categories.ListSubcategories(ctx, categoryID)
	if err != nil {
		return nil, fromRepositoryError("получение подкатегорий", resourceSubcategory, categoryID, err)
	}
	return subs, nil
}

func (s *TaskService) CreateSubcategory(ctx context.Context, name string, categoryID int64) (*task.Subcategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("name", "название обязательно")
	}

	sub, err := s.categories.CreateSubcategory(ctx, name, categoryID)
	if err != nil {
		return nil, fromRepositoryError("создание подкатегории", resourceSubcategory, "", err)
	}
	return sub, nil
}

// checkSubcategory проверяет, что подкатегория принадлежит выбранной категории.
// Пустые ссылки уже отсеяны проверкой черновика.
func (s *TaskService) checkSubcategory(ctx context.Context, categoryID, subcategoryID *int64) error {
	if categoryID == nil || subcategoryID == nil {
		return nil
	}

	subs, err := s.categories.ListSubcategories(ctx, *categoryID)
	if err != nil {
		return fromRepositoryError("проверка подкатегории", resourceSubcategory, *subcategoryID, err)
	}
	if !slices.ContainsFunc(subs, func(sub task.Subcategory) bool { return sub.ID == *subcategoryID }) {
		logger.Warn("Service: Подкатегория из другой категории",
			zap.Int64("category_id", *categoryID),
			zap.Int64("subcategory_id", *subcategoryID))
		return NewValidationErrors(map[string]string{
			task.FieldSubcategory: "подкатегория не относится к выбранной категории",
		})
	}
	return nil
}

func (s *TaskService) setCategories(categories []task.Category) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.categoryCache = slices.Clone(categories)
}

func (s *TaskService) categoryByName(name string) (task.Category, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for _, c := range s.categoryCache {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return task.Category{}, false
}
