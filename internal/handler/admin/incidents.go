package admin

import (
	"net/http"
	"strconv"

	"github.com/clearway/sentinel/internal/domain"
	"github.com/clearway/sentinel/internal/handler"
	"github.com/clearway/sentinel/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultIncidentLimit = 50

// IncidentAdminHandler handles the incident review surface.
type IncidentAdminHandler struct {
	pool      *pgxpool.Pool
	incidents repository.IncidentRepository
}

// NewIncidentAdminHandler creates a new IncidentAdminHandler.
func NewIncidentAdminHandler(pool *pgxpool.Pool, incidents repository.IncidentRepository) *IncidentAdminHandler {
	return &IncidentAdminHandler{pool: pool, incidents: incidents}
}

// ListIncidents handles GET /admin/organizations/{orgID}/incidents.
func (h *IncidentAdminHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid organization id"))
		return
	}

	limit := defaultIncidentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			handler.RespondError(w, domain.ErrValidation("limit must be between 1 and 500"))
			return
		}
		limit = n
	}

	incidents, err := h.incidents.ListByOrg(r.Context(), h.pool, orgID, limit)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("list incidents", err))
		return
	}
	if incidents == nil {
		incidents = []domain.SecurityIncident{}
	}

	handler.RespondJSON(w, http.StatusOK, incidents)
}

// GetIncident handles GET /admin/incidents/{id}.
func (h *IncidentAdminHandler) GetIncident(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid incident id"))
		return
	}

	inc, err := h.incidents.FindByID(r.Context(), h.pool, id)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("find incident", err))
		return
	}
	if inc == nil {
		handler.RespondError(w, domain.ErrNotFound("incident", id.String()))
		return
	}

	handler.RespondJSON(w, http.StatusOK, inc)
}
