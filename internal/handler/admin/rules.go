package admin

import (
	"net/http"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/clearway/sentinel/internal/handler"
	"github.com/clearway/sentinel/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RuleAdminHandler manages geographic access rules.
type RuleAdminHandler struct {
	pool  *pgxpool.Pool
	rules repository.GeoRuleRepository
}

// NewRuleAdminHandler creates a new RuleAdminHandler.
func NewRuleAdminHandler(pool *pgxpool.Pool, rules repository.GeoRuleRepository) *RuleAdminHandler {
	return &RuleAdminHandler{pool: pool, rules: rules}
}

// ListRules handles GET /admin/organizations/{orgID}/rules.
func (h *RuleAdminHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid organization id"))
		return
	}

	rules, err := h.rules.ListByOrg(r.Context(), h.pool, orgID)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("list rules", err))
		return
	}
	if rules == nil {
		rules = []domain.GeographicRule{}
	}

	handler.RespondJSON(w, http.StatusOK, rules)
}

// CreateRuleRequest is the boundary schema for rule creation.
type CreateRuleRequest struct {
	RuleType  string `json:"rule_type" validate:"required,oneof=allow_country block_country allow_region block_region geofence"`
	RuleValue string `json:"rule_value" validate:"required"`
	Priority  int    `json:"priority" validate:"gte=0"`
}

// CreateRule handles POST /admin/organizations/{orgID}/rules.
func (h *RuleAdminHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid organization id"))
		return
	}

	var req CreateRuleRequest
	if err := handler.DecodeAndValidate(r, &req); err != nil {
		handler.RespondError(w, err)
		return
	}

	rule := &domain.GeographicRule{
		OrganizationID: orgID,
		RuleType:       domain.GeoRuleType(req.RuleType),
		RuleValue:      req.RuleValue,
		IsActive:       true,
		Priority:       req.Priority,
	}
	if err := h.rules.Create(r.Context(), h.pool, rule); err != nil {
		handler.RespondError(w, domain.ErrInternal("create rule", err))
		return
	}

	handler.RespondJSON(w, http.StatusCreated, rule)
}

// SetRuleActive handles PATCH /admin/rules/{id}/active.
func (h *RuleAdminHandler) SetRuleActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid rule id"))
		return
	}

	var input struct {
		IsActive bool `json:"is_active"`
	}
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	if err := h.rules.SetActive(r.Context(), h.pool, id, input.IsActive); err != nil {
		handler.RespondError(w, domain.ErrInternal("update rule", err))
		return
	}

	handler.RespondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
