package geocoding

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/peanutgraphic/servicepoint/internal/platform/kvstore"
)

// territoriesKey is the single collection record. Every save or delete
// rewrites the whole collection; territory edits are rare, admin-only
// operations and the last writer wins.
const territoriesKey = "territories"

// TerritoryStore persists the territory collection in the TTL store with no
// expiry.
type TerritoryStore struct {
	kv             kvstore.Store
	logger         *slog.Logger
	defaultUtility string
}

// NewTerritoryStore creates a store. defaultUtility names the utility seeded
// with demonstration territories when none have been configured yet.
func NewTerritoryStore(kv kvstore.Store, defaultUtility string, logger *slog.Logger) *TerritoryStore {
	return &TerritoryStore{kv: kv, logger: logger, defaultUtility: defaultUtility}
}

// List returns all configured territories. An empty configuration yields the
// default seed set for the default utility.
func (s *TerritoryStore) List(ctx context.Context) ([]Territory, error) {
	raw, ok, err := s.kv.Get(ctx, territoriesKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return seedTerritories(s.defaultUtility), nil
	}

	var territories []Territory
	if err := json.Unmarshal([]byte(raw), &territories); err != nil {
		return nil, err
	}
	if len(territories) == 0 {
		return seedTerritories(s.defaultUtility), nil
	}
	return territories, nil
}

// Save upserts one territory and persists the full collection. A missing id
// gets a fresh random one. Returns the territory's id.
func (s *TerritoryStore) Save(ctx context.Context, t Territory) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if strings.TrimSpace(t.ID) == "" {
		t.ID = uuid.NewString()
	}

	territories, err := s.List(ctx)
	if err != nil {
		return "", err
	}

	replaced := false
	for i := range territories {
		if territories[i].ID == t.ID {
			territories[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		territories = append(territories, t)
	}

	if err := s.persist(ctx, territories); err != nil {
		return "", err
	}
	return t.ID, nil
}

// Delete removes a territory by id and persists the collection. Returns
// false when the id is not present.
func (s *TerritoryStore) Delete(ctx context.Context, id string) (bool, error) {
	territories, err := s.List(ctx)
	if err != nil {
		return false, err
	}

	kept := territories[:0]
	found := false
	for _, t := range territories {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return false, nil
	}

	if err := s.persist(ctx, kept); err != nil {
		return false, err
	}
	return true, nil
}

func (s *TerritoryStore) persist(ctx context.Context, territories []Territory) error {
	raw, err := json.Marshal(territories)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, territoriesKey, string(raw), 0)
}

// seedTerritories is the bootstrap set used until an admin configures real
// territories. The DC box plus the close-in Maryland ZIP prefixes cover the
// default utility's core service area.
func seedTerritories(utility string) []Territory {
	if utility == "" {
		return nil
	}
	return []Territory{
		{
			ID:      utility + "-dc",
			Name:    "District of Columbia",
			Utility: utility,
			Type:    TerritoryState,
			States:  []string{"DC"},
		},
		{
			ID:       utility + "-md-suburbs",
			Name:     "Maryland Suburbs",
			Utility:  utility,
			Type:     TerritoryZip,
			ZipCodes: []string{"208*", "209*"},
		},
	}
}
