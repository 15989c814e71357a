package osm2stops

import (
	"reflect"
	"testing"
)

func TestCheckConnectivityDefect(t *testing.T) {
	graph := NewRoutedGraph()
	for id := NodeID(1); id <= 5; id++ {
		graph.AddNode(id, float64(id), 0)
	}
	graph.AddEdge(1, 5, nil, nil)
	graph.AddEdge(2, 3, nil, nil)
	graph.AddEdge(3, 4, nil, nil)
	graph.AddEdge(4, 1, nil, nil)
	results := []InsertionResult{
		{PointID: "stop", Snapped: true, Inserted: true, NodeID: 5},
		{PointID: "skipped"},
	}
	report := CheckConnectivity(graph, results)
	if len(report.Defects) != 1 {
		t.Fatalf("Number of defects should be 1, but got %d", len(report.Defects))
	}
	correctDefect := Defect{PointID: "stop", NodeID: 5, IncidentEdges: 1}
	if report.Defects[0] != correctDefect {
		t.Errorf("Defect should be %v, but got %v", correctDefect, report.Defects[0])
	}
	if report.StronglyConnected {
		t.Errorf("Graph should not be strongly connected")
	}
	if report.ComponentsCount != 5 {
		t.Errorf("Number of components should be 5, but got %d", report.ComponentsCount)
	}
	if report.OK() {
		t.Errorf("Report should not be OK")
	}
	if !reflect.DeepEqual(report.DefectiveNodes(), []NodeID{5}) {
		t.Errorf("Defective nodes should be [5], but got %v", report.DefectiveNodes())
	}
}

func TestCheckConnectivityMissingNode(t *testing.T) {
	graph := squareGraph()
	results := []InsertionResult{{PointID: "ghost", Snapped: true, Inserted: true, NodeID: 42}}
	report := CheckConnectivity(graph, results)
	if len(report.Defects) != 1 || !report.Defects[0].Missing {
		t.Fatalf("Missing node should be reported, but got %v", report.Defects)
	}
	if !report.StronglyConnected {
		t.Errorf("Square should be strongly connected")
	}
	if report.ComponentsCount != 1 {
		t.Errorf("Number of components should be 1, but got %d", report.ComponentsCount)
	}
}

func TestCheckConnectivityEmptyGraph(t *testing.T) {
	report := CheckConnectivity(NewRoutedGraph(), nil)
	if !report.StronglyConnected {
		t.Errorf("Empty graph should be considered strongly connected")
	}
	if report.ComponentsCount != 0 {
		t.Errorf("Number of components should be 0, but got %d", report.ComponentsCount)
	}
	if !report.OK() {
		t.Errorf("Report should be OK:\n%s", report)
	}
}

func TestStronglyConnectedComponents(t *testing.T) {
	graph := NewRoutedGraph()
	for id := NodeID(1); id <= 5; id++ {
		graph.AddNode(id, 0, 0)
	}
	graph.AddEdge(1, 2, nil, nil)
	graph.AddEdge(2, 1, nil, nil)
	graph.AddEdge(3, 4, nil, nil)
	graph.AddEdge(4, 3, nil, nil)
	graph.AddEdge(2, 3, nil, nil)
	graph.AddEdge(4, 5, nil, nil)
	// Edge to unknown node is ignored
	graph.AddEdge(5, 77, nil, nil)

	components := StronglyConnectedComponents(graph)
	correct := [][]NodeID{{1, 2}, {3, 4}, {5}}
	if !reflect.DeepEqual(components, correct) {
		t.Errorf("Components should be %v, but got %v", correct, components)
	}
}

func TestStronglyConnectedComponentsLongCycle(t *testing.T) {
	graph := NewRoutedGraph()
	n := 10000
	for i := 1; i <= n; i++ {
		graph.AddNode(NodeID(i), float64(i), 0)
	}
	for i := 1; i < n; i++ {
		graph.AddEdge(NodeID(i), NodeID(i+1), nil, nil)
	}
	graph.AddEdge(NodeID(n), 1, nil, nil)
	components := StronglyConnectedComponents(graph)
	if len(components) != 1 || len(components[0]) != n {
		t.Errorf("Whole cycle should be single component, but got %d component(s)", len(components))
	}
}
