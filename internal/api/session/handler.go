package session

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/futig/jd-assessment/internal/entity"
	"github.com/futig/jd-assessment/internal/pkg/logger"
	"github.com/futig/jd-assessment/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	eventChunk  = "chunk"
	eventAnswer = "answer"
)

type Handler struct {
	usecase SessionUsecase
}

func NewHandler(usecase SessionUsecase) *Handler {
	return &Handler{usecase: usecase}
}

type chunkEvent struct {
	Text string `json:"text"`
}

// rejectedJDResponse carries the analysis of a refused job description.
type rejectedJDResponse struct {
	*entity.SubmitJDResponse
	Error string `json:"error"`
}

// StartSession handles POST /sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "StartSession")

	view, err := h.usecase.StartSession(ctx)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Created(w, view)
}

// GetSession handles GET /sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(logger.WithAction(r.Context(), "GetSession"), sessionID)

	view, err := h.usecase.GetSession(ctx, sessionID)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, view)
}

// SubmitJD handles POST /sessions/{id}/jd
func (h *Handler) SubmitJD(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(logger.WithAction(r.Context(), "SubmitJD"), sessionID)

	var req entity.SubmitJDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.usecase.SubmitJD(ctx, sessionID, &req)
	if err != nil {
		if resp != nil && errors.Is(err, entity.ErrValidationRejected) {
			ctxzap.Info(ctx, "job description rejected", zap.Error(err))
			response.JSON(w, http.StatusUnprocessableEntity, rejectedJDResponse{SubmitJDResponse: resp, Error: err.Error()})
			return
		}
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// GenerateQuestions handles POST /sessions/{id}/questions
func (h *Handler) GenerateQuestions(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(logger.WithAction(r.Context(), "GenerateQuestions"), sessionID)

	var req entity.GenerateQuestionsInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	view, err := h.usecase.GenerateQuestions(ctx, sessionID, &req)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, view)
}

// GenerateAnswer handles POST /sessions/{id}/questions/{question_id}/generated-answer.
// The running text is relayed as "chunk" events, followed by one "answer"
// event with the final text and its source.
func (h *Handler) GenerateAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	questionID := chi.URLParam(r, "question_id")
	ctx := logger.AddFields(logger.WithSession(logger.WithAction(r.Context(), "GenerateAnswer"), sessionID),
		zap.String("question_id", questionID))

	stream, ok := response.NewEventStream(w)
	if !ok {
		response.Error(ctx, w, http.StatusInternalServerError, "streaming unsupported", nil)
		return
	}

	generated, err := h.usecase.GenerateAnswer(ctx, sessionID, questionID, func(text string) {
		if err := stream.Send(eventChunk, chunkEvent{Text: text}); err != nil {
			ctxzap.Debug(ctx, "failed to relay chunk", zap.Error(err))
		}
	})
	if err != nil {
		if !stream.Started() {
			response.FromError(ctx, w, err)
		}
		return
	}

	if err := stream.Send(eventAnswer, generated); err != nil {
		ctxzap.Warn(ctx, "failed to send final answer", zap.Error(err))
	}
}

// SubmitAnswer handles POST /sessions/{id}/questions/{question_id}/answers
func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	questionID := chi.URLParam(r, "question_id")
	ctx := logger.AddFields(logger.WithSession(logger.WithAction(r.Context(), "SubmitAnswer"), sessionID),
		zap.String("question_id", questionID))

	var req entity.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.usecase.SubmitAnswer(ctx, sessionID, questionID, &req)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// GetResults handles GET /sessions/{id}/results
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(logger.WithAction(r.Context(), "GetResults"), sessionID)

	results, err := h.usecase.Results(ctx, sessionID)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, results)
}

// GetReport handles GET /sessions/{id}/report?format=md|pdf|docx
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(logger.WithAction(r.Context(), "GetReport"), sessionID)

	format := entity.ReportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = entity.FormatMarkdown
	}
	ctx = logger.AddFields(ctx, zap.String("format", string(format)))

	file, err := h.usecase.Report(ctx, sessionID, format)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "report generated", zap.Int("bytes", len(file.Content)))
	response.File(w, file)
}

// ResetSession handles POST /sessions/{id}/reset
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(logger.WithAction(r.Context(), "ResetSession"), sessionID)

	view, err := h.usecase.Reset(ctx, sessionID)
	if err != nil {
		response.FromError(ctx, w, err)
		return
	}

	response.Success(w, view)
}
