package geofence

import "math"

// earthRadius is the mean earth radius in meters used by the spherical model.
const earthRadius = 6371000.0

// Zone is a circular permitted location: center coordinate plus radius in meters.
type Zone struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusM   int     `json:"radius"`
	Active    bool    `json:"active"`
}

// Haversine returns the great-circle distance in meters between two
// coordinates given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dphi := (lat2 - lat1) * math.Pi / 180
	dlambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dphi/2)*math.Sin(dphi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dlambda/2)*math.Sin(dlambda/2)
	return earthRadius * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// WithinAny reports whether the point lies inside at least one active zone.
// The first qualifying zone short-circuits. With no active zones the answer
// is always false: a misconfigured system must never become permissive.
func WithinAny(lat, lon float64, zones []Zone) bool {
	for _, z := range zones {
		if !z.Active {
			continue
		}
		if Haversine(lat, lon, z.Latitude, z.Longitude) <= float64(z.RadiusM) {
			return true
		}
	}
	return false
}

// ValidCoordinate reports whether lat/lon are inside the WGS84 value ranges.
func ValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
