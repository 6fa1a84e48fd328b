package handler

import (
	"net/http"

	"github.com/clearway/sentinel/internal/service"
	"github.com/google/uuid"
)

// SessionEnrichRequest is the boundary schema for session enrichment.
type SessionEnrichRequest struct {
	UserID         string `json:"user_id" validate:"required,uuid4"`
	OrganizationID string `json:"organization_id" validate:"required,uuid4"`
	SessionToken   string `json:"session_token" validate:"required"`
	IPAddress      string `json:"ip_address" validate:"required,ip"`
	UserAgent      string `json:"user_agent" validate:"required"`
}

// SessionHandler serves the session enrichment endpoint.
type SessionHandler struct {
	svc *service.EnrichService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(svc *service.EnrichService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// Enrich handles POST /v1/sessions/enrich.
func (h *SessionHandler) Enrich(w http.ResponseWriter, r *http.Request) {
	var req SessionEnrichRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		RespondError(w, err)
		return
	}

	sess, err := h.svc.Enrich(r.Context(), service.EnrichInput{
		UserID:         uuid.MustParse(req.UserID),
		OrganizationID: uuid.MustParse(req.OrganizationID),
		SessionToken:   req.SessionToken,
		IPAddress:      req.IPAddress,
		UserAgent:      req.UserAgent,
	})
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, sess)
}
