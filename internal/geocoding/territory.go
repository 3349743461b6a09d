package geocoding

import (
	"math"
	"strings"

	dErrors "github.com/peanutgraphic/servicepoint/pkg/domain-errors"
)

// TerritoryType selects the matching rule a territory uses.
type TerritoryType string

const (
	TerritoryState   TerritoryType = "state"
	TerritoryZip     TerritoryType = "zip"
	TerritoryPolygon TerritoryType = "polygon"
	TerritoryRadius  TerritoryType = "radius"
)

// earthRadiusMiles is the mean Earth radius used for haversine distances.
const earthRadiusMiles = 3959.0

// Point is a coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Territory is one named geographic rule set owned by a utility. Exactly one
// type-specific payload is meaningful per territory; the others are ignored.
type Territory struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Utility string        `json:"utility"`
	Type    TerritoryType `json:"type"`

	States      []string `json:"states,omitempty"`
	ZipCodes    []string `json:"zip_codes,omitempty"`
	Polygon     []Point  `json:"polygon,omitempty"`
	Center      *Point   `json:"center,omitempty"`
	RadiusMiles float64  `json:"radius_miles,omitempty"`
}

// Validate checks the territory's type-specific payload.
func (t Territory) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "territory name is required")
	}
	if strings.TrimSpace(t.Utility) == "" {
		return dErrors.New(dErrors.CodeValidation, "territory utility is required")
	}
	switch t.Type {
	case TerritoryState:
		if len(t.States) == 0 {
			return dErrors.New(dErrors.CodeValidation, "state territory requires at least one state code")
		}
		for _, st := range t.States {
			if _, ok := stateBounds[strings.ToUpper(st)]; !ok {
				return dErrors.New(dErrors.CodeValidation, "unknown state code: "+st)
			}
		}
	case TerritoryZip:
		if len(t.ZipCodes) == 0 {
			return dErrors.New(dErrors.CodeValidation, "zip territory requires at least one pattern")
		}
	case TerritoryPolygon:
		if len(t.Polygon) < 3 {
			return dErrors.New(dErrors.CodeValidation, "polygon territory requires at least 3 vertices")
		}
	case TerritoryRadius:
		if t.Center == nil {
			return dErrors.New(dErrors.CodeValidation, "radius territory requires a center point")
		}
		if t.RadiusMiles <= 0 {
			return dErrors.New(dErrors.CodeValidation, "radius territory requires a positive radius")
		}
	default:
		return dErrors.New(dErrors.CodeValidation, "unknown territory type: "+string(t.Type))
	}
	return nil
}

// Matches reports whether the point falls inside this territory. zip is the
// reverse-geocoded ZIP for the point, empty when unresolved; zip territories
// never match without one.
func (t Territory) Matches(lat, lng float64, zip string) bool {
	switch t.Type {
	case TerritoryState:
		for _, st := range t.States {
			if b, ok := stateBounds[strings.ToUpper(st)]; ok && b.contains(lat, lng) {
				return true
			}
		}
		return false
	case TerritoryZip:
		if zip == "" {
			return false
		}
		for _, pattern := range t.ZipCodes {
			if matchZipPattern(pattern, zip) {
				return true
			}
		}
		return false
	case TerritoryPolygon:
		return pointInPolygon(lat, lng, t.Polygon)
	case TerritoryRadius:
		if t.Center == nil {
			return false
		}
		return haversineMiles(lat, lng, t.Center.Latitude, t.Center.Longitude) <= t.RadiusMiles
	default:
		return false
	}
}

// matchZipPattern compares a resolved ZIP against one pattern. A trailing
// "*" makes the pattern a prefix; an exact 5-digit pattern also matches the
// 5-digit prefix of a ZIP+4.
func matchZipPattern(pattern, zip string) bool {
	pattern = strings.TrimSpace(pattern)
	zip = strings.TrimSpace(zip)
	if pattern == "" || zip == "" {
		return false
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(zip, strings.TrimSuffix(pattern, "*"))
	}
	if zip == pattern {
		return true
	}
	if len(zip) > 5 && zip[5] == '-' {
		return zip[:5] == pattern
	}
	return false
}

// pointInPolygon is a standard ray-casting test over the ordered vertex
// list. Fewer than 3 vertices is never a polygon.
func pointInPolygon(lat, lng float64, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		vi, vj := polygon[i], polygon[j]
		if (vi.Longitude > lng) != (vj.Longitude > lng) &&
			lat < (vj.Latitude-vi.Latitude)*(lng-vi.Longitude)/(vj.Longitude-vi.Longitude)+vi.Latitude {
			inside = !inside
		}
		j = i
	}
	return inside
}

// haversineMiles computes the great-circle distance between two points.
func haversineMiles(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
