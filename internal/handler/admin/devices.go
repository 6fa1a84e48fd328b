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

// DeviceAdminHandler handles the device review surface.
type DeviceAdminHandler struct {
	pool    *pgxpool.Pool
	devices repository.DeviceRepository
}

// NewDeviceAdminHandler creates a new DeviceAdminHandler.
func NewDeviceAdminHandler(pool *pgxpool.Pool, devices repository.DeviceRepository) *DeviceAdminHandler {
	return &DeviceAdminHandler{pool: pool, devices: devices}
}

// ListUserDevices handles GET /admin/users/{userID}/devices.
func (h *DeviceAdminHandler) ListUserDevices(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}

	devices, err := h.devices.ListByUser(r.Context(), h.pool, userID)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("list devices", err))
		return
	}
	if devices == nil {
		devices = []domain.TrustedDevice{}
	}

	handler.RespondJSON(w, http.StatusOK, devices)
}
