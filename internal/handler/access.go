package handler

import (
	"net/http"

	"github.com/clearway/sentinel/internal/service"
	"github.com/google/uuid"
)

// AccessCheckRequest is the strongly typed boundary schema for access checks.
type AccessCheckRequest struct {
	UserID            string `json:"user_id" validate:"required,uuid4"`
	OrganizationID    string `json:"organization_id" validate:"required,uuid4"`
	IPAddress         string `json:"ip_address" validate:"required,ip"`
	Country           string `json:"country,omitempty"`
	City              string `json:"city,omitempty"`
	UserAgent         string `json:"user_agent" validate:"required"`
	DeviceFingerprint string `json:"device_fingerprint,omitempty"`
	SessionToken      string `json:"session_token" validate:"required"`
}

// AccessHandler serves the access-check endpoint.
type AccessHandler struct {
	svc *service.AccessService
}

// NewAccessHandler creates a new AccessHandler.
func NewAccessHandler(svc *service.AccessService) *AccessHandler {
	return &AccessHandler{svc: svc}
}

// Check handles POST /v1/access/check. Denials use 403.
func (h *AccessHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req AccessCheckRequest
	if err := DecodeAndValidate(r, &req); err != nil {
		RespondError(w, err)
		return
	}

	// uuid4 tags above guarantee these parse
	userID := uuid.MustParse(req.UserID)
	orgID := uuid.MustParse(req.OrganizationID)

	decision, err := h.svc.Check(r.Context(), service.AccessCheckInput{
		UserID:          userID,
		OrganizationID:  orgID,
		IPAddress:       req.IPAddress,
		Country:         req.Country,
		City:            req.City,
		UserAgent:       req.UserAgent,
		FingerprintSeed: req.DeviceFingerprint,
		SessionToken:    req.SessionToken,
	})
	if err != nil {
		RespondError(w, err)
		return
	}

	status := http.StatusOK
	if !decision.Allowed {
		status = http.StatusForbidden
	}
	RespondJSON(w, status, decision)
}
