// internal/facility/facility.go
package facility

import (
	"math"
	"sort"
)

const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// DefaultOrigin is used when the caller has no location of its own.
var DefaultOrigin = Point{Lon: 75.7139, Lat: 19.7515}

// Facility is a collection or recycling center.
type Facility struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Capacity   int      `json:"capacity"`
	Lon        float64  `json:"lon"`
	Lat        float64  `json:"lat"`
	Contact    string   `json:"contact"`
	Hours      string   `json:"hours"`
	Verified   bool     `json:"verified"`
	Address    string   `json:"address"`
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

func (f Facility) Point() Point {
	return Point{Lon: f.Lon, Lat: f.Lat}
}

// Filter narrows a Nearest query. A nil MaxDistanceKm and a zero Limit
// disable those constraints. A MaxDistanceKm of 0 keeps only facilities at the origin.
type Filter struct {
	VerifiedOnly  bool
	MaxDistanceKm *float64
	Limit         int
}

// DistanceKm returns the great-circle distance between a and b.
func DistanceKm(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Nearest returns copies of facilities with distances from origin attached,
// filtered and sorted nearest first. Equal distances keep ID order.
func Nearest(facilities []Facility, origin Point, filter Filter) []Facility {
	out := make([]Facility, 0, len(facilities))
	for _, f := range facilities {
		if filter.VerifiedOnly && !f.Verified {
			continue
		}
		d := DistanceKm(origin, f.Point())
		if filter.MaxDistanceKm != nil && d > *filter.MaxDistanceKm {
			continue
		}
		f.DistanceKm = &d
		out = append(out, f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := *out[i].DistanceKm, *out[j].DistanceKm
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}
