// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"migration-assistant/internal/assistant/orchestrator"
	"migration-assistant/internal/common/config"
	apperrors "migration-assistant/internal/common/errors"
	"migration-assistant/internal/common/logger"
)

// Answerer is the orchestration surface the handlers depend on.
type Answerer interface {
	Answer(ctx context.Context, sessionID, question string) (*orchestrator.Result, error)
	EndSession(sessionID string)
}

// askRequestSchema bounds the request shape before the orchestrator ever
// sees it. The length cap here mirrors the orchestrator's own validation;
// schema failures surface as the same refusal.
const askRequestSchema = `{
	"type": "object",
	"properties": {
		"sessionId": {"type": "string", "maxLength": 128},
		"question": {"type": "string", "maxLength": 4000}
	},
	"required": ["question"],
	"additionalProperties": false
}`

type AskRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Question  string `json:"question"`
}

type AskResponse struct {
	SessionID string                 `json:"sessionId"`
	Decision  string                 `json:"decision"`
	Sections  []orchestrator.Section `json:"sections"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type Handler struct {
	answerer Answerer
	samples  config.SamplesConfig
	schema   *gojsonschema.Schema
	logger   logger.Logger
}

func NewHandler(answerer Answerer, samples config.SamplesConfig, log logger.Logger) (*Handler, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(askRequestSchema))
	if err != nil {
		return nil, err
	}
	return &Handler{
		answerer: answerer,
		samples:  samples,
		schema:   schema,
		logger: log.With(map[string]interface{}{
			"component": "http",
		}),
	}, nil
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	validation, err := h.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil || !validation.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid request", schemaErrors(validation))
		return
	}

	var req AskRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result, err := h.answerer.Answer(r.Context(), sessionID, req.Question)
	if err != nil {
		var stdErr *apperrors.StandardError
		if errors.As(err, &stdErr) && stdErr.Code == apperrors.ErrCodeQuestionValidationFailed {
			// The refusal message is surfaced verbatim; details stay internal.
			writeError(w, http.StatusBadRequest, stdErr.Message, "")
			return
		}
		h.logger.WithError(err).Error("orchestration failed", map[string]interface{}{
			"sessionID": sessionID,
		})
		writeError(w, http.StatusInternalServerError, "Failed to process question", "")
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{
		SessionID: sessionID,
		Decision:  string(result.Decision),
		Sections:  result.Sections,
	})
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required", "")
		return
	}
	h.answerer.EndSession(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Samples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"structured": h.samples.Structured,
		"semantic":   h.samples.Semantic,
		"combined":   h.samples.Combined,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorResponse{Error: message, Message: details})
}

func schemaErrors(result *gojsonschema.Result) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, e := range result.Errors() {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, "; ")
}
