package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/peanutgraphic/servicepoint/internal/address"
	dErrors "github.com/peanutgraphic/servicepoint/pkg/domain-errors"
	"github.com/peanutgraphic/servicepoint/pkg/platform/httputil"
)

// Service defines the validation operations the handler depends on.
type Service interface {
	Autocomplete(ctx context.Context, input, sessionToken string) []address.Prediction
	ValidateAddress(ctx context.Context, addr address.Address) address.ValidationResult
	PlaceDetails(ctx context.Context, placeID, sessionToken string) *address.Address
}

// Handler wires address validation endpoints to the validation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a validation handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts validation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/address/autocomplete", h.HandleAutocomplete)
	r.Post("/address/validate", h.HandleValidate)
	r.Get("/address/place-details", h.HandlePlaceDetails)
}

// HandleAutocomplete handles GET /address/autocomplete requests.
func (h *Handler) HandleAutocomplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	input := r.URL.Query().Get("input")
	sessionToken := r.URL.Query().Get("session_token")

	predictions := h.service.Autocomplete(ctx, input, sessionToken)

	httputil.WriteJSON(w, http.StatusOK, AutocompleteResponse{
		Predictions: fromPredictions(predictions),
	})
}

// HandleValidate handles POST /address/validate requests.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)
	start := time.Now()

	var req ValidateRequest
	if err := httputil.Decode(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result := h.service.ValidateAddress(ctx, req.ToAddress())

	h.logger.InfoContext(ctx, "address validated",
		"request_id", requestID,
		"valid", result.Valid,
		"issues", len(result.Issues),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, FromValidationResult(result))
}

// HandlePlaceDetails handles GET /address/place-details requests.
func (h *Handler) HandlePlaceDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	placeID := r.URL.Query().Get("place_id")
	if placeID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "place_id is required"))
		return
	}

	addr := h.service.PlaceDetails(ctx, placeID, r.URL.Query().Get("session_token"))
	if addr == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "place not found"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, fromAddress(*addr))
}
