package osm2stops

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// linePosition describes closest point on a line to some external point
type linePosition struct {
	// Projected point on the line
	Point orb.Point
	// Euclidean distance between external point and Point
	Distance float64
	// Index of the segment (line[SegmentIdx], line[SegmentIdx+1]) which contains Point
	SegmentIdx int
	// Position of Point on the segment in [0; 1]
	Fraction float64
}

// projectOnSegment returns closest point on segment [p, q] to pt and its fraction along the segment
// Note: Euclidean space
func projectOnSegment(p, q, pt orb.Point) (orb.Point, float64) {
	dx := q[0] - p[0]
	dy := q[1] - p[1]
	segLenSquared := dx*dx + dy*dy
	if segLenSquared == 0 {
		return p, 0
	}
	fraction := ((pt[0]-p[0])*dx + (pt[1]-p[1])*dy) / segLenSquared
	if fraction <= 0 {
		return p, 0
	}
	if fraction >= 1 {
		return q, 1
	}
	return pointOnSegmentByFraction(p, q, fraction), fraction
}

// pointOnSegmentByFraction returns a point on given segment using fraction of its length
func pointOnSegmentByFraction(p, q orb.Point, fraction float64) orb.Point {
	return orb.Point{
		(1-fraction)*p[0] + fraction*q[0],
		(1-fraction)*p[1] + fraction*q[1],
	}
}

// projectOnLine returns closest point on the polyline to pt.
// The first segment wins when several segments are equally close.
//
// Distances are computed without intermediate squares, so far points do not overflow.
//
// Note: returns false for line with less than 2 points
//
func projectOnLine(line orb.LineString, pt orb.Point) (linePosition, bool) {
	if len(line) < 2 {
		return linePosition{}, false
	}
	var best linePosition
	for i := 1; i < len(line); i++ {
		projected, fraction := projectOnSegment(line[i-1], line[i], pt)
		distance := math.Hypot(projected[0]-pt[0], projected[1]-pt[1])
		if i == 1 || distance < best.Distance {
			best = linePosition{
				Point:      projected,
				Distance:   distance,
				SegmentIdx: i - 1,
				Fraction:   fraction,
			}
		}
	}
	return best, true
}

// distanceToBound returns Euclidean distance from point to the rectangle. Zero if point is inside
func distanceToBound(bound orb.Bound, pt orb.Point) float64 {
	dx := math.Max(0, math.Max(bound.Min[0]-pt[0], pt[0]-bound.Max[0]))
	dy := math.Max(0, math.Max(bound.Min[1]-pt[1], pt[1]-bound.Max[1]))
	return math.Hypot(dx, dy)
}

// splitLine cuts line at given position. Both parts contain the projected point
func splitLine(line orb.LineString, pos linePosition) (orb.LineString, orb.LineString) {
	head := make(orb.LineString, 0, pos.SegmentIdx+2)
	head = append(head, line[:pos.SegmentIdx+1]...)
	if !head[len(head)-1].Equal(pos.Point) {
		head = append(head, pos.Point)
	}
	tail := make(orb.LineString, 0, len(line)-pos.SegmentIdx)
	tail = append(tail, pos.Point)
	for _, pt := range line[pos.SegmentIdx+1:] {
		if tail[len(tail)-1].Equal(pt) {
			continue
		}
		tail = append(tail, pt)
	}
	// Projection onto a line end gives degenerate part: keep it as a two-point line anyway
	if len(head) < 2 {
		head = append(head, pos.Point)
	}
	if len(tail) < 2 {
		tail = append(tail, pos.Point)
	}
	return head, tail
}

// getLength returns length for given line (assuming points of the line are Euclidean)
func getLength(line orb.LineString) float64 {
	if len(line) < 2 {
		return 0
	}
	return planar.Length(line)
}

// copyLine copies given line. Returns new slice
func copyLine(line orb.LineString) orb.LineString {
	if line == nil {
		return nil
	}
	output := make(orb.LineString, len(line))
	copy(output, line)
	return output
}

// reverseLine reverses order of points in given line. Returns new slice
func reverseLine(line orb.LineString) orb.LineString {
	inputLen := len(line)
	output := make(orb.LineString, inputLen)
	for i, pt := range line {
		output[inputLen-i-1] = pt
	}
	return output
}
