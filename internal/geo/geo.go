// Package geo provides great-circle primitives in nautical miles.
package geo

import "math"

// EarthRadiusNM is the mean Earth radius in nautical miles.
const EarthRadiusNM = 3440.065

// Unit conversions
const (
	KPHToKnots = 0.539957
	MPSToKnots = 1.94384
	MPHToKnots = 0.868976
	NMToMiles  = 1.15078
)

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// Distance returns the haversine distance between two points in nautical miles.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusNM * c
}

// Bearing returns the initial great-circle bearing from the first point to
// the second, in degrees [0, 360).
func Bearing(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := toRad(lat1)
	phi2 := toRad(lat2)
	dLng := toRad(lng2 - lng1)

	y := math.Sin(dLng) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLng)

	return NormalizeBearing(toDeg(math.Atan2(y, x)))
}

// Project returns the point reached by travelling distanceNM from (lat, lng)
// along the given initial bearing.
func Project(lat, lng, bearing, distanceNM float64) (float64, float64) {
	delta := distanceNM / EarthRadiusNM
	theta := toRad(bearing)
	phi1 := toRad(lat)
	lambda1 := toRad(lng)

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) +
		math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2),
	)

	return toDeg(phi2), NormalizeLongitude(toDeg(lambda2))
}

// NormalizeBearing maps any angle into [0, 360).
func NormalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// NormalizeLongitude maps a longitude into [-180, 180).
func NormalizeLongitude(lng float64) float64 {
	return NormalizeBearing(lng+180) - 180
}

// AngleDiff returns the absolute angular difference between two bearings,
// in [0, 180].
func AngleDiff(a, b float64) float64 {
	d := NormalizeBearing(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// ClampLatitude keeps a latitude inside the range the projection handles.
func ClampLatitude(lat float64) float64 {
	return math.Max(-85, math.Min(85, lat))
}
