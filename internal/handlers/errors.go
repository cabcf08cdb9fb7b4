package handlers

import (
	"net/http"

	"taskDeck/internal/logger"
	"taskDeck/internal/service"

	"go.uber.org/zap"
)

// handleBusinessError отвечает клиенту, если err бизнес-ошибка. extra добавляется в тело ответа.
func handleBusinessError(w http.ResponseWriter, err error, extra ...Payload) bool {
	businessErr, ok := service.AsBusinessError(err)
	if !ok {
		return false
	}
	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	payload := append([]Payload{
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	}, extra...)
	responseWithJSON(w, statusCode, payload...)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation, service.CodeInvalidReference:
		return http.StatusBadRequest
	case service.CodeBulkInProgress, service.CodeEmptySelection:
		return http.StatusConflict
	case service.CodePartialFailure:
		return http.StatusMultiStatus
	case service.CodeTransport, service.CodeBulkFailed:
		return http.StatusBadGateway
	case service.CodeInvalidRule:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

// handleServiceError бизнес-ошибки отдаёт по коду, остальное как 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if handleBusinessError(w, err) {
		return
	}
	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr))
	responseWithError(w, http.StatusInternalServerError, err.Error())
}
