package osm2stops

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	earthR = 20037508.34
)

// Projection is CRS which the graph is processed in
type Projection string

const (
	// PROJECTION_NONE keeps coordinates as is
	PROJECTION_NONE = Projection("none")
	// PROJECTION_EPSG3857 converts WGS84 lon/lat to Web Mercator meters
	PROJECTION_EPSG3857 = Projection("epsg3857")
)

func epsg4326To3857(lon, lat float64) (float64, float64) {
	x := lon * earthR / 180
	y := math.Log(math.Tan((90+lat)*math.Pi/360)) / (math.Pi / 180)
	y = y * earthR / 180
	return x, y
}

func epsg3857To4326(x, y float64) (float64, float64) {
	lon := x * 180 / earthR
	lat := math.Atan(math.Exp(y*math.Pi/earthR))*360/math.Pi - 90
	return lon, lat
}

func pointToEuclidean(pt orb.Point) orb.Point {
	euclideanX, euclideanY := epsg4326To3857(pt.Lon(), pt.Lat())
	return orb.Point{euclideanX, euclideanY}
}

func pointToSpherical(pt orb.Point) orb.Point {
	lon, lat := epsg3857To4326(pt.X(), pt.Y())
	return orb.Point{lon, lat}
}

func lineToEuclidean(line orb.LineString) orb.LineString {
	newLine := make(orb.LineString, len(line))
	for i, pt := range line {
		newLine[i] = pointToEuclidean(pt)
	}
	return newLine
}

func lineToSpherical(line orb.LineString) orb.LineString {
	newLine := make(orb.LineString, len(line))
	for i, pt := range line {
		newLine[i] = pointToSpherical(pt)
	}
	return newLine
}

// forward converts WGS84 point into the projection
func (projection Projection) forward(pt orb.Point) orb.Point {
	if projection == PROJECTION_EPSG3857 {
		return pointToEuclidean(pt)
	}
	return pt
}

// forwardLine converts WGS84 line into the projection
func (projection Projection) forwardLine(line orb.LineString) orb.LineString {
	if projection == PROJECTION_EPSG3857 {
		return lineToEuclidean(line)
	}
	return line
}

// inverse converts point from the projection back to WGS84
func (projection Projection) inverse(pt orb.Point) orb.Point {
	if projection == PROJECTION_EPSG3857 {
		return pointToSpherical(pt)
	}
	return pt
}

// inverseLine converts line from the projection back to WGS84
func (projection Projection) inverseLine(line orb.LineString) orb.LineString {
	if projection == PROJECTION_EPSG3857 {
		return lineToSpherical(line)
	}
	return line
}
