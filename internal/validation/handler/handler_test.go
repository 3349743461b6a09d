package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peanutgraphic/servicepoint/internal/address"
)

// stubService returns canned answers for handler tests.
type stubService struct {
	predictions []address.Prediction
	result      address.ValidationResult
	details     *address.Address
	lastInput   string
}

func (s *stubService) Autocomplete(_ context.Context, input, _ string) []address.Prediction {
	s.lastInput = input
	return s.predictions
}

func (s *stubService) ValidateAddress(_ context.Context, _ address.Address) address.ValidationResult {
	return s.result
}

func (s *stubService) PlaceDetails(_ context.Context, _, _ string) *address.Address {
	return s.details
}

func newTestRouter(svc Service) chi.Router {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return r
}

func TestHandleValidate(t *testing.T) {
	svc := &stubService{result: address.ValidationResult{
		Valid: true,
		Standardized: address.Address{
			Street: "6406 IVY LN", City: "GREENBELT", State: "MD", Zip: "20770-1441",
		},
		DPVCode: "Y",
	}}
	router := newTestRouter(svc)

	body := `{"street":"6406 Ivy Lane","city":"Greenbelt","state":"md","zip":"20770"}`
	req := httptest.NewRequest(http.MethodPost, "/address/validate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ValidateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Equal(t, "6406 IVY LN", resp.Standardized.Street)
	assert.Equal(t, "Y", resp.DPVCode)
	assert.Empty(t, resp.Issues)
}

func TestHandleValidate_MissingFields(t *testing.T) {
	router := newTestRouter(&stubService{})

	cases := []struct {
		name string
		body string
	}{
		{"empty body", ``},
		{"no street", `{"city":"Greenbelt","state":"MD","zip":"20770"}`},
		{"bad state", `{"street":"6406 Ivy Ln","city":"Greenbelt","state":"Maryland","zip":"20770"}`},
		{"short zip", `{"street":"6406 Ivy Ln","city":"Greenbelt","state":"MD","zip":"207"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/address/validate", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestHandleAutocomplete(t *testing.T) {
	svc := &stubService{predictions: []address.Prediction{
		{PlaceID: "p1", Description: "1600 Pennsylvania Ave SE, Washington, DC"},
	}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/address/autocomplete?input=1600+Penn&session_token=tok", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1600 Penn", svc.lastInput)

	var resp AutocompleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Predictions, 1)
	assert.Equal(t, "p1", resp.Predictions[0].PlaceID)
}

func TestHandleAutocomplete_EmptyIsNotAnError(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/address/autocomplete?input=ab", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AutocompleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Predictions)
	assert.Empty(t, resp.Predictions)
}

func TestHandlePlaceDetails(t *testing.T) {
	svc := &stubService{details: &address.Address{
		Street: "1600 Pennsylvania Ave SE", City: "Washington", State: "DC", Zip: "20003",
	}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/address/place-details?place_id=p1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AddressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Washington", resp.City)
}

func TestHandlePlaceDetails_NotFound(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/address/place-details?place_id=missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePlaceDetails_RequiresPlaceID(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodGet, "/address/place-details", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
