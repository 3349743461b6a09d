package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/peanutgraphic/servicepoint/internal/address"
	"github.com/peanutgraphic/servicepoint/internal/geocoding"
	dErrors "github.com/peanutgraphic/servicepoint/pkg/domain-errors"
	"github.com/peanutgraphic/servicepoint/pkg/platform/httputil"
)

// Service defines the geocoding operations the handler depends on.
type Service interface {
	GeocodeAddress(ctx context.Context, addr address.Address) *address.GeocodeResult
	CheckServiceTerritory(ctx context.Context, lat, lng float64, utility string) geocoding.TerritoryCheck
	ValidateServiceAddress(ctx context.Context, addr address.Address, utility string) geocoding.ServiceAddressResult
	HealthStatus(ctx context.Context) map[string]geocoding.ProviderHealth
	Territories(ctx context.Context) ([]geocoding.Territory, error)
	SaveTerritory(ctx context.Context, t geocoding.Territory) (string, error)
	DeleteTerritory(ctx context.Context, id string) (bool, error)
}

// Handler wires geocoding and territory endpoints to the geocoding service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a geocoding handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/geocode", h.HandleGeocode)
	r.Post("/territory/check", h.HandleTerritoryCheck)
	r.Post("/service-address/validate", h.HandleServiceAddress)
	r.Get("/health", h.HandleHealth)
}

// RegisterAdmin mounts the privileged territory management endpoints. The
// caller wraps the router in the admin-token middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/territories", h.HandleListTerritories)
	r.Post("/territory", h.HandleSaveTerritory)
	r.Delete("/territory/{id}", h.HandleDeleteTerritory)
}

// HandleGeocode handles POST /geocode requests. An address that cannot be
// geocoded is a 404, not an error.
func (h *Handler) HandleGeocode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AddressRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result := h.service.GeocodeAddress(ctx, req.ToAddress())
	if result == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "address could not be geocoded"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, GeocodeResponse{
		Success:          true,
		Latitude:         result.Latitude,
		Longitude:        result.Longitude,
		FormattedAddress: result.FormattedAddress,
	})
}

// HandleTerritoryCheck handles POST /territory/check requests. The caller
// supplies coordinates directly or an address to geocode first.
func (h *Handler) HandleTerritoryCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TerritoryCheckRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	lat, lng, ok := req.Coordinates()
	if !ok {
		geo := h.service.GeocodeAddress(ctx, req.ToAddress())
		if geo == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "address could not be geocoded"))
			return
		}
		lat, lng = geo.Latitude, geo.Longitude
	}

	check := h.service.CheckServiceTerritory(ctx, lat, lng, req.Utility)

	httputil.WriteJSON(w, http.StatusOK, TerritoryCheckResponse{
		Success:     true,
		InTerritory: check.InTerritory,
		Matches:     check.Matches,
		Latitude:    lat,
		Longitude:   lng,
	})
}

// HandleServiceAddress handles POST /service-address/validate requests.
func (h *Handler) HandleServiceAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	var req ServiceAddressRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result := h.service.ValidateServiceAddress(ctx, req.ToAddress(), req.Utility)

	h.logger.InfoContext(ctx, "service address checked",
		"request_id", requestID,
		"valid", result.Valid,
		"in_territory", result.InTerritory,
		"utility", req.Utility,
	)

	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleHealth handles GET /health requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	providers := h.service.HealthStatus(r.Context())

	healthy := true
	for _, p := range providers {
		if !p.Healthy {
			healthy = false
			break
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, HealthResponse{Healthy: healthy, Providers: providers})
}

// HandleListTerritories handles GET /territories requests.
func (h *Handler) HandleListTerritories(w http.ResponseWriter, r *http.Request) {
	territories, err := h.service.Territories(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "unable to list territories", "error", err)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "unable to list territories", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TerritoriesResponse{Territories: territories})
}

// HandleSaveTerritory handles POST /territory requests.
func (h *Handler) HandleSaveTerritory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var t geocoding.Territory
	if err := httputil.Decode(r, &t); err != nil {
		httputil.WriteError(w, err)
		return
	}

	id, err := h.service.SaveTerritory(ctx, t)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "territory saved", "territory_id", id, "type", t.Type, "utility", t.Utility)
	httputil.WriteJSON(w, http.StatusOK, SaveTerritoryResponse{ID: id})
}

// HandleDeleteTerritory handles DELETE /territory/{id} requests.
func (h *Handler) HandleDeleteTerritory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	deleted, err := h.service.DeleteTerritory(ctx, id)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "unable to delete territory", err))
		return
	}
	if !deleted {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "territory not found"))
		return
	}

	h.logger.InfoContext(ctx, "territory deleted", "territory_id", id)
	w.WriteHeader(http.StatusNoContent)
}
