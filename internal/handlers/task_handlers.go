package handlers

import (
	"net/http"
	"time"

	"taskDeck/internal/filter"
	"taskDeck/internal/handlers/dto"
	"taskDeck/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
	now         func() time.Time
}

func NewTaskHandler(taskService TaskService) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
		now:         time.Now,
	}
}

// Register вешает все маршруты API на роутер.
func (s *TaskHandler) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", s.ListTasks)          // GET /tasks?q=&status=&category=&priority=
		r.Post("/", s.PostTask)          // POST /tasks
		r.Post("/reload", s.ReloadTasks) // POST /tasks/reload
		r.Get("/stats", s.TaskStats)     // GET /tasks/stats

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetTaskByID)           // GET /tasks/{id}
			r.Put("/", s.UpdateTaskByID)        // PUT /tasks/{id}
			r.Delete("/", s.DeleteTaskByID)     // DELETE /tasks/{id}
			r.Post("/toggle", s.ToggleComplete) // POST /tasks/{id}/toggle
		})
	})

	r.Route("/selection", func(r chi.Router) {
		r.Get("/", s.GetSelection)
		r.Delete("/", s.ClearSelection)
		r.Post("/all", s.SelectAll)
		r.Post("/enter", s.EnterSelectMode)
		r.Post("/{id}/toggle", s.ToggleSelection)
	})

	r.Route("/bulk", func(r chi.Router) {
		r.Post("/complete", s.BulkComplete)
		r.Post("/archive", s.BulkArchive)
		r.Post("/delete", s.BulkDelete)
	})

	r.Get("/templates", s.ListTemplates)
	r.Get("/templates/{id}/draft", s.TemplateDraft)

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", s.ListCategories)
		r.Post("/", s.PostCategory)
		r.Get("/{id}/subcategories", s.ListSubcategories)
		r.Post("/{id}/subcategories", s.PostSubcategory)
	})
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	healthCheck(w, s.TaskService.HealthCheck(r.Context()))
}

func (s *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	criteria, err := filter.ParseCriteria(query.Get("q"), query.Get("status"), query.Get("category"), query.Get("priority"))
	if err != nil {
		logger.Warn("HTTP: Неверный фильтр",
			zap.Error(err),
			zap.String("query", r.URL.RawQuery),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	tasks := s.TaskService.List(criteria)
	responseWithJSON(w, http.StatusOK,
		toPayload("tasks", dto.FromTaskList(tasks, s.now())),
		toPayload("count", len(tasks)),
	)
}

func (s *TaskHandler) ReloadTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	summary, err := s.TaskService.Load(r.Context())
	if err != nil {
		handleServiceError(w, r, err, "reload_tasks")
		return
	}

	logger.Info("HTTP_OUT: Кэш перечитан",
		zap.Int("tasks", summary.Tasks),
		zap.Duration("ms", time.Since(start)))

	responseWithJSON(w, http.StatusOK, toPayload("loaded", summary))
}

func (s *TaskHandler) TaskStats(w http.ResponseWriter, r *http.Request) {
	responseWithJSON(w, http.StatusOK, toPayload("stats", s.TaskService.Stats()))
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	logger.Info("HTTP: Вызов сервиса создания задачи")
	created, err := s.TaskService.Create(r.Context(), request.ToDraft())
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.Int64("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(*created, s.now())))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	found, err := s.TaskService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(*found, s.now())))
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	logger.Info("HTTP: Запрос к сервису обновления задачи", zap.Int64("task_id", id))
	updated, err := s.TaskService.Update(r.Context(), id, request.Options(s.now())...)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(*updated, s.now())))
}

func (s *TaskHandler) ToggleComplete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	toggled, err := s.TaskService.ToggleComplete(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err, "toggle_task")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(*toggled, s.now())))
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	logger.Info("HTTP: Обращение к сервису для удаления задачи", zap.Int64("task_id", id))
	if err := s.TaskService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
