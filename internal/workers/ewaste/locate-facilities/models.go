// internal/workers/ewaste/locate-facilities/models.go
package locatefacilities

import "ecycle-workers/internal/facility"

// Input is the caller's position and search constraints. A missing coordinate
// falls back to facility.DefaultOrigin.
type Input struct {
	Lon           *float64 `json:"lon,omitempty"`
	Lat           *float64 `json:"lat,omitempty"`
	VerifiedOnly  bool     `json:"verifiedOnly,omitempty"`
	MaxDistanceKm *float64 `json:"maxDistanceKm,omitempty"`
	Limit         *int     `json:"limit,omitempty"`
}

type Output struct {
	Origin     facility.Point      `json:"origin"`
	Facilities []facility.Facility `json:"facilities"`
	Count      int                 `json:"count"`
}
