package spatial

import (
	"github.com/golang/geo/s2"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// Bounds is a lat/lng rectangle, used by map clients to fit a route in view
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// BoundingBox calculates the bounding rectangle of a path.
// The second return value is false for an empty path.
func BoundingBox(points []Point) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}

	rb := s2.NewRectBounder()
	for _, p := range points {
		rb.AddPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon)))
	}
	rect := rb.RectBound()

	return Bounds{
		MinLat: rect.Lo().Lat.Degrees(),
		MinLon: rect.Lo().Lng.Degrees(),
		MaxLat: rect.Hi().Lat.Degrees(),
		MaxLon: rect.Hi().Lng.Degrees(),
	}, true
}

// PathLength calculates the total length of a path (sequence of points) in meters
func PathLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}

	var totalDist float64
	for i := 1; i < len(points); i++ {
		totalDist += HaversineDistance(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
	}

	return totalDist
}

// SimplifyPath simplifies a path using the Ramer-Douglas-Peucker algorithm
// epsilon: maximum distance (meters) from the simplified path
func SimplifyPath(points []Point, epsilon float64) []Point {
	if len(points) < 3 {
		return points
	}

	maxDist := 0.0
	maxIndex := 0

	for i := 1; i < len(points)-1; i++ {
		dist := perpendicularDistance(points[i], points[0], points[len(points)-1])
		if dist > maxDist {
			maxDist = dist
			maxIndex = i
		}
	}

	if maxDist > epsilon {
		left := SimplifyPath(points[:maxIndex+1], epsilon)
		right := SimplifyPath(points[maxIndex:], epsilon)

		// drop the shared middle point
		result := make([]Point, len(left)+len(right)-1)
		copy(result, left)
		copy(result[len(left):], right[1:])
		return result
	}

	return []Point{points[0], points[len(points)-1]}
}

// perpendicularDistance is the distance in meters from point to the great circle
// through lineStart and lineEnd, measured with s2 edge geometry.
func perpendicularDistance(point, lineStart, lineEnd Point) float64 {
	a := s2.PointFromLatLng(s2.LatLngFromDegrees(lineStart.Lat, lineStart.Lon))
	b := s2.PointFromLatLng(s2.LatLngFromDegrees(lineEnd.Lat, lineEnd.Lon))
	x := s2.PointFromLatLng(s2.LatLngFromDegrees(point.Lat, point.Lon))

	if a.ApproxEqual(b) {
		return HaversineDistance(point.Lat, point.Lon, lineStart.Lat, lineStart.Lon)
	}

	return s2.DistanceFromSegment(x, a, b).Radians() * EarthRadiusMeters
}
