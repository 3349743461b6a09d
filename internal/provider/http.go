package provider

import (
	"encoding/json"
	"fmt"
	"io"
)

// decodeJSON parses a bounded response body. Providers occasionally return
// HTML error pages with a 200; surfacing that as a decode error routes it to
// the circuit breaker like any other transport failure.
func decodeJSON(r io.Reader, out any) error {
	body, err := io.ReadAll(io.LimitReader(r, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
