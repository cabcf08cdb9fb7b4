package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"taskDeck/internal/filter"
	"taskDeck/internal/models/task"
	"taskDeck/internal/repository"
	"taskDeck/internal/service"
	"taskDeck/internal/templates"
	"taskDeck/internal/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskRepository - мок репозитория задач
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskRepository) List(ctx context.Context) []task.Task {
	args := m.Called(ctx)
	return args.Get(0).([]task.Task)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, id int64) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Create(ctx context.Context, d task.Draft) (*task.Task, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, id int64, p task.Patch) (*task.Task, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) BulkUpdate(ctx context.Context, ids []int64, p task.Patch) []task.Task {
	args := m.Called(ctx, ids, p)
	return args.Get(0).([]task.Task)
}

func (m *MockTaskRepository) BulkDelete(ctx context.Context, ids []int64) []int64 {
	args := m.Called(ctx, ids)
	return args.Get(0).([]int64)
}

// MockCategoryRepository - мок репозитория категорий
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) List(ctx context.Context) ([]task.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]task.Category), args.Error(1)
}

func (m *MockCategoryRepository) Create(ctx context.Context, c task.Category) (*task.Category, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Category), args.Error(1)
}

func (m *MockCategoryRepository) ListSubcategories(ctx context.Context, categoryID int64) ([]task.Subcategory, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]task.Subcategory), args.Error(1)
}

func (m *MockCategoryRepository) CreateSubcategory(ctx context.Context, name string, categoryID int64) (*task.Subcategory, error) {
	args := m.Called(ctx, name, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Subcategory), args.Error(1)
}

var (
	_ service.TaskRepository     = (*MockTaskRepository)(nil)
	_ service.CategoryRepository = (*MockCategoryRepository)(nil)
)

// среда, 15 января 2025
var fixedNow = time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)

type env struct {
	repo *MockTaskRepository
	cats *MockCategoryRepository
	ws   *workspace.Workspace
	svc  *service.TaskService
}

func newEnv(t *testing.T, cached ...task.Task) env {
	t.Helper()
	catalog, err := templates.Default()
	require.NoError(t, err)
	return newEnvWithCatalog(catalog, cached...)
}

func newEnvWithCatalog(catalog *templates.Catalog, cached ...task.Task) env {
	e := env{
		repo: new(MockTaskRepository),
		cats: new(MockCategoryRepository),
		ws:   workspace.New(),
	}
	e.ws.Replace(cached)
	e.svc = service.NewTaskService(e.repo, e.cats, catalog, e.ws,
		service.WithClock(func() time.Time { return fixedNow }))
	return e
}

func ptr[T any](v T) *T {
	return &v
}

func sample(id int64, title string) task.Task {
	return task.Task{
		ID:            id,
		Title:         title,
		Priority:      task.PriorityMedium,
		CategoryID:    ptr(int64(1)),
		SubcategoryID: ptr(int64(1)),
		Frequency:     task.FrequencyDaily,
		SelectedDays:  []int{},
		RecurringTime: task.DefaultRecurringTime,
		CreatedAt:     fixedNow.Add(-time.Hour),
	}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	busErr, ok := service.AsBusinessError(err)
	require.True(t, ok, "ожидалась бизнес-ошибка, получено %v", err)
	return busErr.Code
}

// TestTaskService_HealthCheck тестирует HealthCheck
func TestTaskService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		setupMock   func(*MockTaskRepository)
		expectError bool
	}{
		{
			name: "success - health check passes",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectError: false,
		},
		{
			name: "error - health check fails",
			setupMock: func(m *MockTaskRepository) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("db connection failed"))
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			tt.setupMock(e.repo)

			err := e.svc.HealthCheck(context.Background())

			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "проверка здоровья сервиса")
			} else {
				assert.NoError(t, err)
			}

			e.repo.AssertExpectations(t)
		})
	}
}

// TestTaskService_Load тестирует загрузку кэша и категорий
func TestTaskService_Load(t *testing.T) {
	stale := sample(99, "stale")
	fresh := []task.Task{sample(2, "b"), sample(1, "a")}
	categories := []task.Category{{ID: 1, Name: "Work"}}

	tests := []struct {
		name          string
		setupMock     func(*MockTaskRepository, *MockCategoryRepository)
		expectedCode  string
		expectedCache []task.Task
	}{
		{
			name: "success - cache replaced",
			setupMock: func(r *MockTaskRepository, c *MockCategoryRepository) {
				r.On("HealthCheck", mock.Anything).Return(nil)
				r.On("List", mock.Anything).Return(fresh)
				c.On("List", mock.Anything).Return(categories, nil)
			},
			expectedCache: fresh,
		},
		{
			name: "error - store unreachable keeps cache",
			setupMock: func(r *MockTaskRepository, c *MockCategoryRepository) {
				r.On("HealthCheck", mock.Anything).Return(repository.ErrTransport)
			},
			expectedCode:  service.CodeTransport,
			expectedCache: []task.Task{stale},
		},
		{
			name: "error - categories fail keeps cache",
			setupMock: func(r *MockTaskRepository, c *MockCategoryRepository) {
				r.On("HealthCheck", mock.Anything).Return(nil)
				r.On("List", mock.Anything).Return(fresh)
				c.On("List", mock.Anything).Return(nil, repository.ErrTransport)
			},
			expectedCode:  service.CodeTransport,
			expectedCache: []task.Task{stale},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, stale)
			tt.setupMock(e.repo, e.cats)

			summary, err := e.svc.Load(context.Background())

			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, codeOf(t, err))
				assert.Empty(t, e.svc.Categories())
			} else {
				require.NoError(t, err)
				assert.Equal(t, service.LoadSummary{Tasks: 2, Categories: 1}, summary)
				assert.Equal(t, categories, e.svc.Categories())
			}
			assert.Equal(t, tt.expectedCache, e.ws.Snapshot())
		})
	}
}

// TestTaskService_Create тестирует создание задачи
func TestTaskService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("validation error - repository not called", func(t *testing.T) {
		e := newEnv(t)

		created, err := e.svc.Create(ctx, task.Draft{Title: "  ", IsRecurring: true, Frequency: task.FrequencyWeekly})

		assert.Nil(t, created)
		require.Equal(t, service.CodeValidation, codeOf(t, err))
		busErr, _ := service.AsBusinessError(err)
		fields := busErr.Details["fields"].(map[string]string)
		assert.Contains(t, fields, task.FieldTitle)
		assert.Contains(t, fields, task.FieldCategory)
		assert.Contains(t, fields, task.FieldSelectedDays)
		assert.Contains(t, fields, task.FieldRecurringTime)
		e.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("success - normalized draft and prepended to cache", func(t *testing.T) {
		e := newEnv(t, sample(1, "old"))
		draft := task.Draft{Title: "Buy milk", CategoryID: ptr(int64(1)), SubcategoryID: ptr(int64(2))}
		stored := sample(2, "Buy milk")
		e.cats.On("ListSubcategories", mock.Anything, int64(1)).
			Return([]task.Subcategory{{ID: 2, Name: "Meetings", CategoryID: 1}}, nil)

		e.repo.On("Create", mock.Anything, mock.MatchedBy(func(d task.Draft) bool {
			return d.Priority == task.PriorityMedium &&
				d.Frequency == task.FrequencyDaily &&
				d.RecurringTime == task.DefaultRecurringTime
		})).Return(&stored, nil)

		created, err := e.svc.Create(ctx, draft)

		require.NoError(t, err)
		assert.Equal(t, int64(2), created.ID)
		snapshot := e.ws.Snapshot()
		require.Len(t, snapshot, 2)
		assert.Equal(t, int64(2), snapshot[0].ID)
		e.repo.AssertExpectations(t)
	})

	t.Run("invalid reference", func(t *testing.T) {
		e := newEnv(t)
		e.cats.On("ListSubcategories", mock.Anything, int64(9)).
			Return([]task.Subcategory{{ID: 9, Name: "Other", CategoryID: 9}}, nil)
		e.repo.On("Create", mock.Anything, mock.Anything).Return(nil, repository.ErrInvalidReference)

		_, err := e.svc.Create(ctx, task.Draft{Title: "x", CategoryID: ptr(int64(9)), SubcategoryID: ptr(int64(9))})

		assert.Equal(t, service.CodeInvalidReference, codeOf(t, err))
		assert.Zero(t, e.ws.Len())
	})
}

// TestTaskService_Update тестирует обновление задачи через опции
func TestTaskService_Update(t *testing.T) {
	ctx := context.Background()
	original := sample(1, "Buy milk")

	tests := []struct {
		name         string
		id           int64
		opts         []task.PatchOption
		setupMock    func(*MockTaskRepository)
		expectedCode string
		cachedTitle  string
	}{
		{
			name:         "not in cache",
			id:           42,
			opts:         []task.PatchOption{task.WithTitle("x")},
			setupMock:    func(*MockTaskRepository) {},
			expectedCode: service.CodeNotFound,
			cachedTitle:  "Buy milk",
		},
		{
			name:         "validation error",
			id:           1,
			opts:         []task.PatchOption{task.WithTitle("")},
			setupMock:    func(*MockTaskRepository) {},
			expectedCode: service.CodeValidation,
			cachedTitle:  "Buy milk",
		},
		{
			name: "weekly without days",
			id:   1,
			opts: []task.PatchOption{task.WithRecurrence(true, task.FrequencyWeekly, nil, "10:00")},
			setupMock: func(*MockTaskRepository) {
			},
			expectedCode: service.CodeValidation,
			cachedTitle:  "Buy milk",
		},
		{
			name: "deleted elsewhere - cache untouched",
			id:   1,
			opts: []task.PatchOption{task.WithTitle("Buy oat milk")},
			setupMock: func(m *MockTaskRepository) {
				m.On("Update", mock.Anything, int64(1), mock.Anything).Return(nil, repository.ErrNotFound)
			},
			expectedCode: service.CodeNotFound,
			cachedTitle:  "Buy milk",
		},
		{
			name: "transport failure",
			id:   1,
			opts: []task.PatchOption{task.WithTitle("Buy oat milk")},
			setupMock: func(m *MockTaskRepository) {
				m.On("Update", mock.Anything, int64(1), mock.Anything).Return(nil, repository.ErrTransport)
			},
			expectedCode: service.CodeTransport,
			cachedTitle:  "Buy milk",
		},
		{
			name: "success",
			id:   1,
			opts: []task.PatchOption{task.WithTitle("Buy oat milk")},
			setupMock: func(m *MockTaskRepository) {
				updated := original.Clone()
				updated.Title = "Buy oat milk"
				m.On("Update", mock.Anything, int64(1), task.NewPatch(task.WithTitle("Buy oat milk"))).Return(&updated, nil)
			},
			cachedTitle: "Buy oat milk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, original)
			tt.setupMock(e.repo)

			updated, err := e.svc.Update(ctx, tt.id, tt.opts...)

			if tt.expectedCode != "" {
				assert.Nil(t, updated)
				assert.Equal(t, tt.expectedCode, codeOf(t, err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.cachedTitle, updated.Title)
			}
			cached, ok := e.ws.Get(1)
			require.True(t, ok)
			assert.Equal(t, tt.cachedTitle, cached.Title)
			e.repo.AssertExpectations(t)
		})
	}
}

// TestTaskService_ToggleComplete тестирует переключение отметки выполнения
func TestTaskService_ToggleComplete(t *testing.T) {
	ctx := context.Background()
	open := sample(1, "Buy milk")
	e := newEnv(t, open)

	done := open.Clone()
	done.Completed = true
	done.CompletedAt = ptr(fixedNow)
	e.repo.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(p task.Patch) bool {
		return p.Completed != nil && *p.Completed && p.CompletedAt != nil && p.CompletedAt.Equal(fixedNow)
	})).Return(&done, nil).Once()

	toggled, err := e.svc.ToggleComplete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	e.repo.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(p task.Patch) bool {
		return p.Completed != nil && !*p.Completed && p.CompletedAt == nil
	})).Return(&open, nil).Once()

	toggled, err = e.svc.ToggleComplete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
	assert.Nil(t, toggled.CompletedAt)
	e.repo.AssertExpectations(t)

	_, err = e.svc.ToggleComplete(ctx, 404)
	assert.Equal(t, service.CodeNotFound, codeOf(t, err))
}

// TestTaskService_Delete тестирует, что удалённая задача уходит из кэша и выбора
func TestTaskService_Delete(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, sample(1, "a"), sample(2, "b"))
	_, err := e.svc.ToggleSelection(1)
	require.NoError(t, err)

	e.repo.On("Delete", mock.Anything, int64(1)).Return(nil)
	e.repo.On("Delete", mock.Anything, int64(2)).Return(repository.ErrTransport)

	require.NoError(t, e.svc.Delete(ctx, 1))
	assert.Equal(t, service.CodeTransport, codeOf(t, e.svc.Delete(ctx, 2)))

	assert.Equal(t, 1, e.ws.Len())
	assert.Empty(t, e.svc.Selection().IDs)
	assert.False(t, e.svc.Selection().Active)
}

// TestTaskService_ListAndStats тестирует фильтрацию кэша и сводку
func TestTaskService_ListAndStats(t *testing.T) {
	milk := sample(1, "Buy milk")
	milk.Priority = task.PriorityLow
	release := sample(2, "Ship release")
	release.Completed = true
	release.Priority = task.PriorityHigh
	e := newEnv(t, milk, release)

	criteria, err := filter.ParseCriteria("", "active", "", "")
	require.NoError(t, err)

	active := e.svc.List(criteria)
	require.Len(t, active, 1)
	assert.Equal(t, "Buy milk", active[0].Title)

	stats := e.svc.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Completed)
}

// TestTaskService_Selection тестирует выбор задач
func TestTaskService_Selection(t *testing.T) {
	e := newEnv(t, sample(1, "a"), sample(2, "b"))

	state, err := e.svc.ToggleSelection(2)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, state.IDs)
	assert.True(t, state.Active)

	_, err = e.svc.ToggleSelection(404)
	assert.Equal(t, service.CodeNotFound, codeOf(t, err))

	state = e.svc.SelectAll()
	assert.ElementsMatch(t, []int64{1, 2}, state.IDs)

	state = e.svc.ClearSelection()
	assert.Empty(t, state.IDs)
	assert.False(t, state.Active)

	state = e.svc.EnterSelectMode()
	assert.Empty(t, state.IDs)
	assert.True(t, state.Active)
}

// TestTaskService_DraftFromTemplate тестирует черновик из шаблона
func TestTaskService_DraftFromTemplate(t *testing.T) {
	t.Run("weekly saturday template on a wednesday", func(t *testing.T) {
		e := newEnv(t)

		draft, err := e.svc.DraftFromTemplate(1)
		require.NoError(t, err)

		require.NotNil(t, draft.DueDate)
		assert.Equal(t, time.Date(2025, time.January, 18, 0, 0, 0, 0, time.UTC), *draft.DueDate)
		assert.Equal(t, task.FrequencyWeekly, draft.Frequency)
		assert.Equal(t, task.PriorityMedium, draft.Priority)
		assert.Equal(t, ptr(int64(1)), draft.CategoryID)
	})

	t.Run("unknown template", func(t *testing.T) {
		_, err := newEnv(t).svc.DraftFromTemplate(100)

		assert.Equal(t, service.CodeNotFound, codeOf(t, err))
	})

	t.Run("category resolved by name", func(t *testing.T) {
		catalog, err := templates.Load(strings.NewReader("templates:\n  - {id: 1, title: Read, category: Learning, priority: low}\n"))
		require.NoError(t, err)
		e := newEnvWithCatalog(catalog)
		e.repo.On("HealthCheck", mock.Anything).Return(nil)
		e.repo.On("List", mock.Anything).Return([]task.Task{})
		e.cats.On("List", mock.Anything).Return([]task.Category{{ID: 5, Name: "learning"}}, nil)
		_, err = e.svc.Load(context.Background())
		require.NoError(t, err)

		draft, err := e.svc.DraftFromTemplate(1)
		require.NoError(t, err)

		assert.Nil(t, draft.DueDate)
		assert.Equal(t, ptr(int64(5)), draft.CategoryID)
	})
}

// TestTaskService_Categories тестирует категории и подкатегории
func TestTaskService_Categories(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	_, err := e.svc.CreateCategory(ctx, task.Category{Name: " "})
	assert.Equal(t, service.CodeValidation, codeOf(t, err))

	work := &task.Category{ID: 1, Name: "Work"}
	e.cats.On("Create", mock.Anything, task.Category{Name: "Work"}).Return(work, nil)
	created, err := e.svc.CreateCategory(ctx, task.Category{Name: " Work "})
	require.NoError(t, err)
	assert.Equal(t, work, created)
	assert.Equal(t, []task.Category{*work}, e.svc.Categories())

	e.cats.On("CreateSubcategory", mock.Anything, "Meetings", int64(404)).Return(nil, repository.ErrInvalidReference)
	_, err = e.svc.CreateSubcategory(ctx, "Meetings", 404)
	assert.Equal(t, service.CodeInvalidReference, codeOf(t, err))

	e.cats.On("ListSubcategories", mock.Anything, int64(1)).Return([]task.Subcategory{{ID: 3, Name: "Email", CategoryID: 1}}, nil)
	subs, err := e.svc.Subcategories(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	e.cats.AssertExpectations(t)
}

// TestTaskService_LoadDoesNotRestoreDeleted тестирует, что список, прочитанный до удаления, не возвращает задачу в кэш
func TestTaskService_LoadDoesNotRestoreDeleted(t *testing.T) {
	ctx := context.Background()
	one, two := sample(1, "one"), sample(2, "two")
	e := newEnv(t, one, two)
	_, err := e.svc.ToggleSelection(1)
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	e.repo.On("HealthCheck", mock.Anything).Return(nil)
	e.repo.On("List", mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return([]task.Task{one, two}).Once()
	e.repo.On("List", mock.Anything).Return([]task.Task{two}).Once()
	e.repo.On("Delete", mock.Anything, int64(1)).Return(nil)
	e.cats.On("List", mock.Anything).Return([]task.Category{{ID: 1, Name: "Work"}}, nil)

	var (
		summary service.LoadSummary
		loadErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		summary, loadErr = e.svc.Load(ctx)
	}()

	<-started
	require.NoError(t, e.svc.Delete(ctx, 1))
	close(release)
	<-done

	require.NoError(t, loadErr)
	assert.Equal(t, 1, summary.Tasks)
	_, ok := e.ws.Get(1)
	assert.False(t, ok)
	assert.Empty(t, e.svc.Selection().IDs)
	e.repo.AssertNumberOfCalls(t, "List", 2)
}

// TestTaskService_LoadGivesUpOnBusyCache тестирует, что при постоянных изменениях кэш не перезаписывается
func TestTaskService_LoadGivesUpOnBusyCache(t *testing.T) {
	one, two := sample(1, "one"), sample(2, "two")
	e := newEnv(t, one, two)

	e.repo.On("HealthCheck", mock.Anything).Return(nil)
	e.repo.On("List", mock.Anything).
		Run(func(mock.Arguments) { e.ws.Merge(two) }).
		Return([]task.Task{})
	e.cats.On("List", mock.Anything).Return([]task.Category{}, nil)

	summary, err := e.svc.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Tasks)
	assert.Equal(t, 2, e.ws.Len())
	e.repo.AssertNumberOfCalls(t, "List", 3)
}

// TestTaskService_SubcategoryOwnership тестирует, что подкатегория должна принадлежать категории задачи
func TestTaskService_SubcategoryOwnership(t *testing.T) {
	ctx := context.Background()
	work := []task.Subcategory{{ID: 1, Name: "Meetings", CategoryID: 1}}
	home := []task.Subcategory{{ID: 5, Name: "Chores", CategoryID: 2}}

	t.Run("create - foreign subcategory rejected", func(t *testing.T) {
		e := newEnv(t)
		e.cats.On("ListSubcategories", mock.Anything, int64(1)).Return(work, nil)

		_, err := e.svc.Create(ctx, task.Draft{Title: "x", CategoryID: ptr(int64(1)), SubcategoryID: ptr(int64(5))})

		require.Equal(t, service.CodeValidation, codeOf(t, err))
		busErr, _ := service.AsBusinessError(err)
		assert.Contains(t, busErr.Details["fields"], task.FieldSubcategory)
		e.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("create - store failure", func(t *testing.T) {
		e := newEnv(t)
		e.cats.On("ListSubcategories", mock.Anything, int64(1)).Return(nil, repository.ErrTransport)

		_, err := e.svc.Create(ctx, task.Draft{Title: "x", CategoryID: ptr(int64(1)), SubcategoryID: ptr(int64(1))})

		assert.Equal(t, service.CodeTransport, codeOf(t, err))
		e.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("update - category changed without subcategory", func(t *testing.T) {
		e := newEnv(t, sample(1, "a"))
		e.cats.On("ListSubcategories", mock.Anything, int64(2)).Return(home, nil)

		_, err := e.svc.Update(ctx, 1, task.WithCategory(2))

		assert.Equal(t, service.CodeValidation, codeOf(t, err))
		cached, _ := e.ws.Get(1)
		assert.Equal(t, int64(1), *cached.CategoryID)
		e.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("update - category and subcategory together", func(t *testing.T) {
		original := sample(1, "a")
		e := newEnv(t, original)
		e.cats.On("ListSubcategories", mock.Anything, int64(2)).Return(home, nil)
		moved := original.Clone()
		moved.CategoryID, moved.SubcategoryID = ptr(int64(2)), ptr(int64(5))
		e.repo.On("Update", mock.Anything, int64(1), mock.Anything).Return(&moved, nil)

		updated, err := e.svc.Update(ctx, 1, task.WithCategory(2), task.WithSubcategory(5))

		require.NoError(t, err)
		assert.Equal(t, int64(5), *updated.SubcategoryID)
		e.repo.AssertExpectations(t)
	})

	t.Run("update - other fields skip the check", func(t *testing.T) {
		original := sample(1, "a")
		e := newEnv(t, original)
		renamed := original.Clone()
		renamed.Title = "b"
		e.repo.On("Update", mock.Anything, int64(1), mock.Anything).Return(&renamed, nil)

		_, err := e.svc.Update(ctx, 1, task.WithTitle("b"))

		require.NoError(t, err)
		e.cats.AssertNotCalled(t, "ListSubcategories", mock.Anything, mock.Anything)
	})
}

// TestTaskService_UpdateKeepsCompletedAt тестирует, что повторная отметка выполнения не сдвигает completedAt
func TestTaskService_UpdateKeepsCompletedAt(t *testing.T) {
	ctx := context.Background()
	doneAt := fixedNow.Add(-48 * time.Hour)
	done := sample(1, "a")
	done.Completed = true
	done.CompletedAt = ptr(doneAt)

	t.Run("only completed - nothing sent", func(t *testing.T) {
		e := newEnv(t, done)

		updated, err := e.svc.Update(ctx, 1, task.WithCompleted(true, fixedNow))

		require.NoError(t, err)
		assert.Equal(t, doneAt, *updated.CompletedAt)
		e.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("completed with title - completion dropped from patch", func(t *testing.T) {
		e := newEnv(t, done)
		renamed := done.Clone()
		renamed.Title = "b"
		e.repo.On("Update", mock.Anything, int64(1), mock.MatchedBy(func(p task.Patch) bool {
			return p.Completed == nil && p.CompletedAt == nil && p.Title != nil && *p.Title == "b"
		})).Return(&renamed, nil)

		updated, err := e.svc.Update(ctx, 1, task.WithTitle("b"), task.WithCompleted(true, fixedNow))

		require.NoError(t, err)
		assert.Equal(t, doneAt, *updated.CompletedAt)
		e.repo.AssertExpectations(t)
	})
}
