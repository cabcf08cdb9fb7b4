package handlers

import (
	"context"
	"net/http"
	"time"

	"taskDeck/internal/logger"
	"taskDeck/internal/service"

	"go.uber.org/zap"
)

func (s *TaskHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	responseWithJSON(w, http.StatusOK, toPayload("selection", s.TaskService.Selection()))
}

func (s *TaskHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	state, err := s.TaskService.ToggleSelection(id)
	if err != nil {
		handleServiceError(w, r, err, "toggle_selection")
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("selection", state))
}

func (s *TaskHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	responseWithJSON(w, http.StatusOK, toPayload("selection", s.TaskService.SelectAll()))
}

func (s *TaskHandler) EnterSelectMode(w http.ResponseWriter, r *http.Request) {
	responseWithJSON(w, http.StatusOK, toPayload("selection", s.TaskService.EnterSelectMode()))
}

func (s *TaskHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	responseWithJSON(w, http.StatusOK, toPayload("selection", s.TaskService.ClearSelection()))
}

func (s *TaskHandler) BulkComplete(w http.ResponseWriter, r *http.Request) {
	s.bulk(w, r, "bulk_complete", s.TaskService.BulkComplete)
}

func (s *TaskHandler) BulkArchive(w http.ResponseWriter, r *http.Request) {
	s.bulk(w, r, "bulk_archive", s.TaskService.BulkArchive)
}

func (s *TaskHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	s.bulk(w, r, "bulk_delete", s.TaskService.BulkDelete)
}

// bulk при частичном сбое отдаёт и ошибку, и итог операции.
func (s *TaskHandler) bulk(w http.ResponseWriter, r *http.Request, operation string, run func(context.Context) (service.BulkResult, error)) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	result, err := run(r.Context())
	if err != nil {
		if handleBusinessError(w, err, toPayload("result", result)) {
			return
		}
		handleServiceError(w, r, err, operation)
		return
	}

	logger.Info("HTTP_OUT: Групповая операция выполнена",
		zap.String("operation", operation),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Duration("ms", time.Since(start)))

	responseWithJSON(w, http.StatusOK, toPayload("result", result))
}
