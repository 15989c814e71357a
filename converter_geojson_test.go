package osm2stops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
)

func TestGeoJSONRoundTrip(t *testing.T) {
	graph := squareGraph()
	newGraph, results := InsertPoints(graph, []QueryPoint{{ID: "stop-1", Point: orb.Point{0.5, -0.1}}})
	export := ExportGeoJSON(newGraph, results, PROJECTION_NONE)
	if len(export.Nodes.Features) != 5 {
		t.Errorf("Number of node features should be 5, but got %d", len(export.Nodes.Features))
	}
	if len(export.Edges.Features) != 5 {
		t.Errorf("Number of edge features should be 5, but got %d", len(export.Edges.Features))
	}
	if len(export.Stops.Features) != 1 {
		t.Errorf("Number of stop features should be 1, but got %d", len(export.Stops.Features))
	}

	nodes, err := export.Nodes.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	edges, err := export.Edges.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	importedNodes, err := ImportGraphGeoJSON(nodes, PROJECTION_NONE)
	if err != nil {
		t.Fatal(err)
	}
	if importedNodes.NodesNum() != 5 || importedNodes.EdgesNum() != 0 {
		t.Errorf("Nodes collection should give 5 nodes and no edges, but got %d and %d", importedNodes.NodesNum(), importedNodes.EdgesNum())
	}
	imported, err := ImportGraphGeoJSON(edges, PROJECTION_NONE)
	if err != nil {
		t.Fatal(err)
	}
	if imported.NodesNum() != 5 {
		t.Errorf("Nodes should be restored from edge ends: expected 5, got %d", imported.NodesNum())
	}
	for _, edge := range newGraph.Edges() {
		other, ok := imported.Edge(edge.EdgeKey())
		if !ok {
			t.Errorf("Edge %s is missing after import", edge.EdgeKey())
			continue
		}
		if other.Attributes["highway"] != edge.Attributes["highway"] {
			t.Errorf("Attribute 'highway' of edge %s should be %v, but got %v", edge.EdgeKey(), edge.Attributes["highway"], other.Attributes["highway"])
		}
		if _, ok := other.Attributes["source"]; ok {
			t.Errorf("Topology properties should not become attributes")
		}
	}

	stops, err := export.Stops.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	importedResults, err := ImportResultsGeoJSON(stops, PROJECTION_NONE)
	if err != nil {
		t.Fatal(err)
	}
	if len(importedResults) != 1 {
		t.Fatalf("Number of results should be 1, but got %d", len(importedResults))
	}
	if importedResults[0].PointID != "stop-1" || !importedResults[0].Inserted || importedResults[0].NodeID != 5 {
		t.Errorf("Wrong imported result: %+v", importedResults[0])
	}
	report := CheckConnectivity(imported, importedResults)
	if !report.OK() {
		t.Errorf("Imported graph should pass the check:\n%s", report)
	}
}

const testStopsGeoJSON = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0.5, -0.1]}, "properties": {"name": "Central"}},
		{"type": "Feature", "id": "f-2", "geometry": {"type": "Point", "coordinates": [1.1, 0.5]}, "properties": {}},
		{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}, "properties": {}},
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0.5, 1.1]}, "properties": {}}
	]
}`

func TestImportStopsGeoJSON(t *testing.T) {
	stops, err := ImportStopsGeoJSON([]byte(testStopsGeoJSON), "name", PROJECTION_NONE)
	if err != nil {
		t.Fatal(err)
	}
	if len(stops) != 3 {
		t.Fatalf("Number of stops should be 3, but got %d", len(stops))
	}
	correctIDs := []string{"Central", "f-2", "3"}
	for i := range correctIDs {
		if stops[i].ID != correctIDs[i] {
			t.Errorf("Stop #%d should have identifier '%s', but got '%s'", i, correctIDs[i], stops[i].ID)
		}
	}
	if !pointsAlmostEqual(stops[1].Point, orb.Point{1.1, 0.5}) {
		t.Errorf("Wrong coordinates of stop #1: %v", stops[1].Point)
	}
}

func TestImportGraphGeoJSONBadSource(t *testing.T) {
	data := `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}, "properties": {"target": 2}}
	]}`
	if _, err := ImportGraphGeoJSON([]byte(data), PROJECTION_NONE); err == nil {
		t.Errorf("Line without source should cause an error")
	}
}

func TestGeoJSONWriteFiles(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "square")
	export := ExportGeoJSON(squareGraph(), nil, PROJECTION_NONE)
	if err := export.WriteFiles(prefix); err != nil {
		t.Fatal(err)
	}
	for _, suffix := range []string{"_nodes.geojson", "_edges.geojson", "_stops.geojson"} {
		if _, err := os.Stat(prefix + suffix); err != nil {
			t.Errorf("File '%s' should exist: %s", prefix+suffix, err)
		}
	}
}
