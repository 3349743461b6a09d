// Package httputil centralizes JSON encoding and error translation for HTTP
// handlers so every endpoint shares one response envelope.
package httputil

import (
	"encoding/json"
	"io"
	"net/http"

	dErrors "github.com/peanutgraphic/servicepoint/pkg/domain-errors"
)

// maxBodyBytes bounds request bodies; none of our payloads come close.
const maxBodyBytes = 1 << 20

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope.
// Internal errors omit the description so implementation details never
// reach callers.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		if msg := dErrors.MessageOf(err); msg != "" {
			body["error_description"] = msg
		}
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

// Decode parses a JSON request body into dst with a size cap.
// Returns a bad_request domain error on malformed input.
func Decode(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return dErrors.Wrap(dErrors.CodeBadRequest, "unable to read request body", err)
	}
	if len(body) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is not valid JSON")
	}
	return nil
}
