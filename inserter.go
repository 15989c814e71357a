package osm2stops

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
)

// QueryPoint is external point (e.g. bus stop) which should be attached to the graph
type QueryPoint struct {
	ID    string
	Point orb.Point
}

// InsertionResult describes what happened to the single query point
type InsertionResult struct {
	PointID string
	// Nearest edge has been found (and it is well-formed)
	Snapped bool
	// New node has been added to the graph. NodeID makes sense only when Inserted is true
	Inserted bool
	NodeID   NodeID
	// Closest point on the nearest edge. It is coordinates of the new node
	Projected orb.Point
	// Edge which the point has been snapped to (removed from the graph when Inserted is true)
	Edge     EdgeKey
	Distance float64
}

// Inserter splices query points into routed graph.
// See NewInserter for available options
type Inserter struct {
	splice       bool
	keepShape    bool
	boundPruning bool
	maxDistance  float64
	logger       *log.Logger
}

func (inserter *Inserter) String() string {
	return fmt.Sprintf(`
Inserter parameters:
	splice enabled?: %t
	keep shape?: %t
	bound pruning?: %t
	max_distance: %f
	`,
		inserter.splice,
		inserter.keepShape,
		inserter.boundPruning,
		inserter.maxDistance,
	)
}

// NewInserter returns inserter with splicing and bound pruning enabled and without distance cutoff
func NewInserter(options ...func(*Inserter)) *Inserter {
	inserter := &Inserter{
		splice:       true,
		keepShape:    false,
		boundPruning: true,
		maxDistance:  -1,
		logger:       discardLogger(),
	}
	for _, option := range options {
		option(inserter)
	}
	return inserter
}

// WithSplice sets whether nearest edges should be split (true) or points should be snapped only (false)
func WithSplice(splice bool) func(*Inserter) {
	return func(inserter *Inserter) {
		inserter.splice = splice
	}
}

// WithKeepShape sets whether new edges should keep original polyline shape instead of straight segments
func WithKeepShape(keepShape bool) func(*Inserter) {
	return func(inserter *Inserter) {
		inserter.keepShape = keepShape
	}
}

// WithBoundPruning enables skipping edges whose bounding box is farther than the best candidate
func WithBoundPruning(boundPruning bool) func(*Inserter) {
	return func(inserter *Inserter) {
		inserter.boundPruning = boundPruning
	}
}

// WithMaxDistance sets distance cutoff. Non-positive value disables it
func WithMaxDistance(maxDistance float64) func(*Inserter) {
	return func(inserter *Inserter) {
		inserter.maxDistance = maxDistance
	}
}

// WithLogger sets diagnostics sink
func WithLogger(logger *log.Logger) func(*Inserter) {
	return func(inserter *Inserter) {
		if logger != nil {
			inserter.logger = logger
		}
	}
}

// InsertPoints is shorthand for NewInserter(options...).Insert(graph, points)
func InsertPoints(graph *RoutedGraph, points []QueryPoint, options ...func(*Inserter)) (*RoutedGraph, []InsertionResult) {
	return NewInserter(options...).Insert(graph, points)
}

// Insert attaches points to the copy of given graph one by one in the input order.
// Every point is checked against the edges of the graph as it is after previous insertions.
// Points which can't be attached are logged and reported with Snapped == false.
// Input graph is never modified.
func (inserter *Inserter) Insert(graph *RoutedGraph, points []QueryPoint) (*RoutedGraph, []InsertionResult) {
	newGraph := graph.Clone()
	results := make([]InsertionResult, 0, len(points))
	cache := newEdgeCache()
	for _, point := range points {
		result := InsertionResult{PointID: point.ID}
		edge, pos, found := inserter.nearestEdge(newGraph, point.Point, cache)
		if !found {
			inserter.logger.Warn("Can't find any edge for point", "point", point.ID)
			results = append(results, result)
			continue
		}
		key := edge.EdgeKey()
		source, okSource := newGraph.Node(edge.Source)
		target, okTarget := newGraph.Node(edge.Target)
		if !okSource || !okTarget {
			inserter.logger.Warn("Nearest edge references missing node. Point skipped", "point", point.ID, "edge", key)
			results = append(results, result)
			continue
		}
		if inserter.maxDistance > 0 && pos.Distance > inserter.maxDistance {
			inserter.logger.Warn("Nearest edge is too far. Point skipped", "point", point.ID, "edge", key, "distance", pos.Distance)
			results = append(results, result)
			continue
		}
		result.Snapped = true
		result.Projected = pos.Point
		result.Edge = key
		result.Distance = pos.Distance
		if !inserter.splice {
			results = append(results, result)
			continue
		}

		newID, err := newGraph.NextNodeID()
		if err != nil {
			inserter.logger.Warn("Can't pick identifier for new node. Point skipped", "point", point.ID, "edge", key, "err", err)
			results = append(results, InsertionResult{PointID: point.ID})
			continue
		}
		newNode := newGraph.AddNode(newID, pos.Point[0], pos.Point[1])
		var headGeom, tailGeom orb.LineString
		if inserter.keepShape && len(edge.Geom) >= 2 {
			headGeom, tailGeom = splitLine(edge.Geom, pos)
		} else {
			headGeom = orb.LineString{source.Point(), newNode.Point()}
			tailGeom = orb.LineString{newNode.Point(), target.Point()}
		}
		newGraph.RemoveEdge(key)
		delete(cache.bounds, key)
		newGraph.AddEdge(source.ID, newID, headGeom, copyAttributes(edge.Attributes))
		newGraph.AddEdge(newID, target.ID, tailGeom, copyAttributes(edge.Attributes))

		result.Inserted = true
		result.NodeID = newID
		inserter.logger.Debug("Point inserted", "point", point.ID, "node", newID, "edge", key, "distance", pos.Distance)
		results = append(results, result)
	}
	return newGraph, results
}

// edgeCache keeps per-call state of nearest edge search
type edgeCache struct {
	bounds map[EdgeKey]orb.Bound
	// Edges without usable geometry which have been reported already
	malformed map[EdgeKey]struct{}
}

func newEdgeCache() *edgeCache {
	return &edgeCache{
		bounds:    make(map[EdgeKey]orb.Bound),
		malformed: make(map[EdgeKey]struct{}),
	}
}

// nearestEdge scans snapshot of the edges and returns the closest one.
// Ties are resolved in favor of the edge added to the graph earlier
func (inserter *Inserter) nearestEdge(graph *RoutedGraph, pt orb.Point, cache *edgeCache) (*Edge, linePosition, bool) {
	var best *Edge
	bestPos := linePosition{}
	for _, edge := range graph.Edges() {
		geom := edgeGeometry(graph, edge)
		if len(geom) < 2 {
			key := edge.EdgeKey()
			if _, reported := cache.malformed[key]; !reported {
				inserter.logger.Warn("Edge has neither geometry nor both endpoints. Skip it", "edge", key)
				cache.malformed[key] = struct{}{}
			}
			continue
		}
		if inserter.boundPruning && best != nil {
			key := edge.EdgeKey()
			bound, ok := cache.bounds[key]
			if !ok {
				bound = geom.Bound()
				cache.bounds[key] = bound
			}
			if distanceToBound(bound, pt) > bestPos.Distance {
				continue
			}
		}
		pos, ok := projectOnLine(geom, pt)
		if !ok {
			continue
		}
		if best == nil || pos.Distance < bestPos.Distance {
			best = edge
			bestPos = pos
		}
	}
	return best, bestPos, best != nil
}

// edgeGeometry returns geometry of the edge. Edges without geometry are straight lines between endpoints
func edgeGeometry(graph *RoutedGraph, edge *Edge) orb.LineString {
	if len(edge.Geom) >= 2 {
		return edge.Geom
	}
	source, okSource := graph.Node(edge.Source)
	target, okTarget := graph.Node(edge.Target)
	if !okSource || !okTarget {
		return nil
	}
	return orb.LineString{source.Point(), target.Point()}
}
