package session

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers session routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.StartSession)
		r.Get("/{id}", h.GetSession)
		r.Post("/{id}/jd", h.SubmitJD)
		r.Post("/{id}/questions", h.GenerateQuestions)
		r.Post("/{id}/questions/{question_id}/generated-answer", h.GenerateAnswer)
		r.Post("/{id}/questions/{question_id}/answers", h.SubmitAnswer)
		r.Get("/{id}/results", h.GetResults)
		r.Get("/{id}/report", h.GetReport)
		r.Post("/{id}/reset", h.ResetSession)
	})
}
