package osm2stops

import (
	"math"
	"reflect"
	"testing"

	"github.com/paulmach/orb"
)

func TestCheckRoute(t *testing.T) {
	graph := squareGraph()
	points := []QueryPoint{
		{ID: "south", Point: orb.Point{0.5, -0.1}},
		{ID: "north", Point: orb.Point{0.5, 1.1}},
	}
	newGraph, results := InsertPoints(graph, points)
	report, err := CheckRoute(newGraph, results)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Legs) != 1 {
		t.Fatalf("Number of legs should be 1, but got %d", len(report.Legs))
	}
	leg := report.Legs[0]
	if !leg.Reachable {
		t.Fatalf("Leg should be reachable")
	}
	if math.Abs(leg.Cost-2.0) > eps {
		t.Errorf("Cost should be 2.0, but got %f", leg.Cost)
	}
	correctPath := []NodeID{5, 2, 3, 6}
	if !reflect.DeepEqual(leg.Path, correctPath) {
		t.Errorf("Path should be %v, but got %v", correctPath, leg.Path)
	}
	if report.Unreachable != 0 {
		t.Errorf("There should be no unreachable legs, but got %d", report.Unreachable)
	}
}

func TestCheckRouteUnreachable(t *testing.T) {
	graph := NewRoutedGraph()
	graph.AddNode(1, 0, 0)
	graph.AddNode(2, 1, 0)
	graph.AddEdge(1, 2, orb.LineString{{0, 0}, {1, 0}}, nil)
	// Second point lies behind the first one on one-way street
	points := []QueryPoint{
		{ID: "ahead", Point: orb.Point{0.75, 0.1}},
		{ID: "behind", Point: orb.Point{0.25, 0.1}},
	}
	newGraph, results := InsertPoints(graph, points)
	report, err := CheckRoute(newGraph, results)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Legs) != 1 {
		t.Fatalf("Number of legs should be 1, but got %d", len(report.Legs))
	}
	if report.Legs[0].Reachable {
		t.Errorf("Leg should be unreachable, but got path %v", report.Legs[0].Path)
	}
	if report.Unreachable != 1 {
		t.Errorf("Number of unreachable legs should be 1, but got %d", report.Unreachable)
	}
}

func TestCheckRouteSingleStop(t *testing.T) {
	graph := squareGraph()
	newGraph, results := InsertPoints(graph, []QueryPoint{{ID: "only", Point: orb.Point{0.5, -0.1}}})
	report, err := CheckRoute(newGraph, results)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Legs) != 0 {
		t.Errorf("There should be no legs for single stop, but got %d", len(report.Legs))
	}
}
