package osm2stops

import (
	"math"

	"github.com/LdDl/ch"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// RouteLeg is shortest path between two consecutive inserted points
type RouteLeg struct {
	FromPoint string
	ToPoint   string
	FromNode  NodeID
	ToNode    NodeID
	Reachable bool
	Cost      float64
	Path      []NodeID
}

// RouteReport is result of route check
type RouteReport struct {
	Legs        []RouteLeg
	Unreachable int
	TotalCost   float64
}

// Log writes one warning per unreachable leg and summary line
func (report *RouteReport) Log(logger *log.Logger) {
	for _, leg := range report.Legs {
		if !leg.Reachable {
			logger.Warn("No path between consecutive points", "from", leg.FromPoint, "to", leg.ToPoint, "from_node", leg.FromNode, "to_node", leg.ToNode)
		}
	}
	logger.Info("Route check done", "legs", len(report.Legs), "unreachable", report.Unreachable, "total_cost", report.TotalCost)
}

// CheckRoute finds shortest paths between consecutive inserted points (in the given order) via contraction hierarchies.
// Edge weight is Euclidean length of the edge geometry.
// Unreachable legs are reported, not treated as errors
func CheckRoute(graph *RoutedGraph, results []InsertionResult) (*RouteReport, error) {
	stops := make([]InsertionResult, 0, len(results))
	for _, result := range results {
		if result.Inserted {
			stops = append(stops, result)
		}
	}
	report := &RouteReport{
		Legs: make([]RouteLeg, 0),
	}
	if len(stops) < 2 {
		return report, nil
	}
	chGraph, err := prepareContractionGraph(graph)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare contraction hierarchies")
	}
	for i := 1; i < len(stops); i++ {
		from := stops[i-1]
		to := stops[i]
		leg := RouteLeg{
			FromPoint: from.PointID,
			ToPoint:   to.PointID,
			FromNode:  from.NodeID,
			ToNode:    to.NodeID,
		}
		cost, path := chGraph.ShortestPath(int64(from.NodeID), int64(to.NodeID))
		if cost >= 0 && len(path) > 0 {
			leg.Reachable = true
			leg.Cost = cost
			leg.Path = make([]NodeID, len(path))
			for j := range path {
				leg.Path[j] = NodeID(path[j])
			}
			report.TotalCost += cost
		} else {
			report.Unreachable++
		}
		report.Legs = append(report.Legs, leg)
	}
	return report, nil
}

func prepareContractionGraph(graph *RoutedGraph) (*ch.Graph, error) {
	chGraph := ch.Graph{}
	for _, node := range graph.Nodes() {
		err := chGraph.CreateVertex(int64(node.ID))
		if err != nil {
			return nil, errors.Wrapf(err, "Can't create vertex %d", node.ID)
		}
	}
	type pair struct {
		source NodeID
		target NodeID
	}
	// Parallel edges collapse into the cheapest one
	weights := make(map[pair]float64)
	order := []pair{}
	for _, edge := range graph.Edges() {
		if edge.Source == edge.Target {
			continue
		}
		if !graph.HasNode(edge.Source) || !graph.HasNode(edge.Target) {
			continue
		}
		p := pair{edge.Source, edge.Target}
		weight := edgeWeight(graph, edge)
		if current, ok := weights[p]; ok {
			weights[p] = math.Min(current, weight)
			continue
		}
		weights[p] = weight
		order = append(order, p)
	}
	for _, p := range order {
		err := chGraph.AddEdge(int64(p.source), int64(p.target), weights[p])
		if err != nil {
			return nil, errors.Wrapf(err, "Can't add edge %d->%d", p.source, p.target)
		}
	}
	chGraph.PrepareContractionHierarchies()
	return &chGraph, nil
}

// edgeWeight is Euclidean length of edge geometry.
// Attributes are copied verbatim on split, so 'length' of spliced halves is stale and can't be used
func edgeWeight(graph *RoutedGraph, edge *Edge) float64 {
	return getLength(edgeGeometry(graph, edge))
}
