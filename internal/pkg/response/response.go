package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		// Headers are already sent, nothing else to do on failure.
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error response
func Error(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Info(ctx, message, zap.Error(err))
	}

	resp := entity.ErrorResponse{Error: http.StatusText(status), Message: message}
	if err != nil {
		resp.Message = err.Error()
	}
	JSON(w, status, resp)
}

// Success writes a success response
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created response
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// File writes a downloadable attachment
func File(w http.ResponseWriter, file *entity.ReportFile) {
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Content)
}

// StatusFor maps a domain error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound), errors.Is(err, entity.ErrQuestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidFormat),
		errors.Is(err, entity.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrWrongStep):
		return http.StatusConflict
	case errors.Is(err, entity.ErrValidationRejected), errors.Is(err, entity.ErrGenerationEmpty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrLogFetchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromError writes err with the status StatusFor picks.
func FromError(ctx context.Context, w http.ResponseWriter, err error) {
	status := StatusFor(err)
	message := "request failed"
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	Error(ctx, w, status, message, err)
}
