package pathfinder

import "math"

// earthRadiusMiles is the mean Earth radius used by the distance formula.
const earthRadiusMiles = 3959

// Distance returns the great-circle distance in miles between two
// coordinates, via the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

// Coords is a latitude/longitude pair.
type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// usCenter is the fallback when a ZIP prefix matches no region.
var usCenter = Coords{Lat: 39.8283, Lng: -98.5795}

// Rough approximation of US regions by ZIP code prefix.
var zipRegions = map[byte]Coords{
	'0': {Lat: 42.3601, Lng: -71.0589},  // Northeast
	'1': {Lat: 40.7128, Lng: -74.006},   // NY area
	'2': {Lat: 38.9072, Lng: -77.0369},  // DC area
	'3': {Lat: 33.749, Lng: -84.388},    // Southeast
	'4': {Lat: 30.2672, Lng: -97.7431},  // South
	'5': {Lat: 41.8781, Lng: -87.6298},  // Midwest
	'6': {Lat: 39.7392, Lng: -104.9903}, // Central
	'7': {Lat: 32.7767, Lng: -96.797},   // South Central
	'8': {Lat: 39.5501, Lng: -105.7821}, // Mountain
	'9': {Lat: 37.7749, Lng: -122.4194}, // West Coast
}

// ZipCentroid maps a ZIP code to the approximate centroid of its region,
// keyed on the first digit. Unrecognized input falls back to the center of
// the continental US.
func ZipCentroid(zip string) Coords {
	if zip == "" {
		return usCenter
	}
	if c, ok := zipRegions[zip[0]]; ok {
		return c
	}
	return usCenter
}
