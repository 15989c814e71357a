package osm2stops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func writePipelineInputs(t *testing.T, dir string) (string, string) {
	t.Helper()
	edges, err := ExportGeoJSON(squareGraph(), nil, PROJECTION_NONE).Edges.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	graphFile := filepath.Join(dir, "graph.geojson")
	if err := os.WriteFile(graphFile, edges, 0644); err != nil {
		t.Fatal(err)
	}
	stopsFile := filepath.Join(dir, "stops.geojson")
	if err := os.WriteFile(stopsFile, []byte(testStopsGeoJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return graphFile, stopsFile
}

func TestRun(t *testing.T) {
	for _, format := range []string{"geojson", "csv"} {
		dir := t.TempDir()
		graphFile, stopsFile := writePipelineInputs(t, dir)
		cfg := DefaultConfig()
		cfg.Input.Graph = graphFile
		cfg.Input.Stops = stopsFile
		cfg.Input.StopIDProperty = "name"
		cfg.Output.Prefix = filepath.Join(dir, "out")
		cfg.Output.Format = format
		cfg.Projection = PROJECTION_NONE
		cfg.CheckRoute = true
		if err := cfg.Validate(); err != nil {
			t.Fatal(err)
		}
		summary, err := Run(cfg, nil)
		if err != nil {
			t.Fatalf("Format '%s': %s", format, err)
		}
		if len(summary.Results) != 3 {
			t.Errorf("Number of results should be 3, but got %d", len(summary.Results))
		}
		if summary.Graph.EdgesNum() != 7 {
			t.Errorf("Number of edges should be 7, but got %d", summary.Graph.EdgesNum())
		}
		if !summary.Connectivity.OK() {
			t.Errorf("Connectivity check should pass:\n%s", summary.Connectivity)
		}
		if summary.Route == nil || len(summary.Route.Legs) != 2 || summary.Route.Unreachable != 0 {
			t.Errorf("Route check should give 2 reachable legs, but got %+v", summary.Route)
		}
		for _, suffix := range []string{"_nodes.", "_edges.", "_stops."} {
			fname := cfg.Output.Prefix + suffix + format
			if _, err := os.Stat(fname); err != nil {
				t.Errorf("File '%s' should exist: %s", fname, err)
			}
		}
	}
}

func TestRunNoStops(t *testing.T) {
	dir := t.TempDir()
	graphFile, _ := writePipelineInputs(t, dir)
	cfg := DefaultConfig()
	cfg.Input.Graph = graphFile
	cfg.Output.Prefix = filepath.Join(dir, "out")
	cfg.Projection = PROJECTION_NONE
	_, err := Run(cfg, nil)
	if errors.Cause(err) != ErrNoStops {
		t.Errorf("Error should be ErrNoStops, but got %v", err)
	}
}
