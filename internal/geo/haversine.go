package geo

import "math"

// EarthRadiusKM is the mean radius of the spherical Earth model. Distances are
// haversine on that sphere, not geodesic on the ellipsoid.
const EarthRadiusKM = 6371.0

// Haversine returns the great-circle distance in km between two points on a
// sphere of the given radius.
func Haversine(lat1, lng1, lat2, lng2, radiusKM float64) float64 {
	dLat := deg2rad(lat2 - lat1)
	dLng := deg2rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	if a > 1 {
		a = 1
	}

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return radiusKM * c
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
