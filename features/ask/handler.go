package ask

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"docsense/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := r.PathValue("id")

	var req struct {
		Question    string   `json:"question"`
		DocumentIDs []string `json:"document_ids"`
		LinkIDs     []string `json:"link_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Ask(ctx, AskRequest{
		SessionID:   sessionID,
		Question:    req.Question,
		DocumentIDs: req.DocumentIDs,
		LinkIDs:     req.LinkIDs,
	})
	if err != nil {
		var upstream *UpstreamError
		switch {
		case errors.Is(err, ErrEmptyQuestion), errors.Is(err, ErrEmptySelection):
			h.writeError(ctx, w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrEmptyScope):
			h.writeError(ctx, w, "EMPTY_SCOPE", err.Error(), http.StatusBadRequest)
		case errors.As(err, &upstream):
			slog.ErrorContext(ctx, "upstream call failed", "service", upstream.Service, "error", upstream.Err)
			h.writeError(ctx, w, "UPSTREAM_ERROR", upstream.Error(), http.StatusBadGateway)
		default:
			slog.ErrorContext(ctx, "ask failed", "error", err, "session_id", sessionID)
			h.writeError(ctx, w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": result}); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
