package registry

// Coord is a WGS84 point.
type Coord struct {
	Lat float64
	Lon float64
}

// centroids holds the approximate center of each Paris arrondissement,
// used as the lowest-precision geocoding fallback.
var centroids = map[int]Coord{
	1:  {48.8605, 2.3478},
	2:  {48.8673, 2.3414},
	3:  {48.8631, 2.3606},
	4:  {48.8536, 2.3578},
	5:  {48.8450, 2.3497},
	6:  {48.8492, 2.3337},
	7:  {48.8583, 2.3121},
	8:  {48.8744, 2.3117},
	9:  {48.8763, 2.3380},
	10: {48.8760, 2.3616},
	11: {48.8596, 2.3794},
	12: {48.8391, 2.3896},
	13: {48.8311, 2.3592},
	14: {48.8339, 2.3265},
	15: {48.8418, 2.2988},
	16: {48.8600, 2.2690},
	17: {48.8867, 2.3102},
	18: {48.8922, 2.3447},
	19: {48.8840, 2.3820},
	20: {48.8639, 2.3985},
}

// Centroid returns the centroid of an arrondissement, ok=false when the
// number is not a valid Paris arrondissement.
func Centroid(arrondissement int) (Coord, bool) {
	c, ok := centroids[arrondissement]
	return c, ok
}
