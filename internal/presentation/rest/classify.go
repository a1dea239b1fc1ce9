package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bibbank/scamshield/internal/application/dto"
	"github.com/bibbank/scamshield/internal/application/usecase"
	"github.com/bibbank/scamshield/internal/domain/service"
)

// maxBodyBytes caps a classify request body.
const maxBodyBytes = 1 << 20

// ClassifyHandler serves POST /v1/classify.
type ClassifyHandler struct {
	classifyText *usecase.ClassifyText
	logger       *slog.Logger
}

// NewClassifyHandler creates a new classification handler.
func NewClassifyHandler(classifyText *usecase.ClassifyText, logger *slog.Logger) *ClassifyHandler {
	return &ClassifyHandler{classifyText: classifyText, logger: logger}
}

// ClassifyRequest is the JSON body accepted by POST /v1/classify.
type ClassifyRequest struct {
	Text    *string `json:"text"`
	Channel string  `json:"channel,omitempty"`
}

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RegisterRoutes registers the classification endpoint on the provided ServeMux.
func (h *ClassifyHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/classify", h.Classify)
}

// Classify scores the text in the request body.
func (h *ClassifyHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "malformed JSON body"})
		return
	}
	if req.Text == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "text is required"})
		return
	}

	resp, err := h.classifyText.Execute(r.Context(), dto.ClassifyTextRequest{
		Text:    *req.Text,
		Channel: req.Channel,
	})
	if err != nil {
		code, msg := httpError(err)
		if code >= http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "classify request failed",
				slog.Int("status", code),
				slog.String("error", err.Error()),
			)
		}
		writeJSON(w, code, ErrorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// httpError maps engine error kinds onto HTTP status codes.
func httpError(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrNotReady):
		return http.StatusServiceUnavailable, "scorer not ready"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "classification timed out"
	case errors.Is(err, service.ErrPrediction):
		return http.StatusInternalServerError, "prediction failed"
	case errors.Is(err, service.ErrValidationViolation):
		return http.StatusInternalServerError, "invalid classification result"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
