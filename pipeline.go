package osm2stops

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

var (
	// ErrEmptyGraph is returned when loaded graph has no edges
	ErrEmptyGraph = errors.New("graph has no edges")
	// ErrNoStops is returned when there are no points to insert
	ErrNoStops = errors.New("no stops to insert")
)

// Summary is outcome of the whole pipeline
type Summary struct {
	Graph        *RoutedGraph
	Results      []InsertionResult
	Connectivity *Report
	Route        *RouteReport
}

// LoadGraph loads graph and stops according to input configuration.
// For GeoJSON graph stops file is mandatory
func LoadGraph(cfg Config, logger *log.Logger) (*RoutedGraph, []QueryPoint, error) {
	var graph *RoutedGraph
	var stops []QueryPoint
	var err error
	if isGeoJSON(cfg.Input.Graph) {
		data, err := os.ReadFile(cfg.Input.Graph)
		if err != nil {
			return nil, nil, errors.Wrap(err, "Can't read graph file")
		}
		graph, err = ImportGraphGeoJSON(data, cfg.Projection)
		if err != nil {
			return nil, nil, err
		}
	} else {
		graph, stops, err = ImportFromOSMFile(cfg.Input.Graph, cfg.OsmConfiguration(), logger)
		if err != nil {
			return nil, nil, err
		}
	}
	if cfg.Input.Stops != "" {
		data, err := os.ReadFile(cfg.Input.Stops)
		if err != nil {
			return nil, nil, errors.Wrap(err, "Can't read stops file")
		}
		stops, err = ImportStopsGeoJSON(data, cfg.Input.StopIDProperty, cfg.Projection)
		if err != nil {
			return nil, nil, err
		}
	}
	return graph, stops, nil
}

// Run loads data, inserts stops, checks the result and exports it
func Run(cfg Config, logger *log.Logger) (*Summary, error) {
	if logger == nil {
		logger = discardLogger()
	}
	st := time.Now()
	graph, stops, err := LoadGraph(cfg, logger)
	if err != nil {
		return nil, err
	}
	if graph.EdgesNum() == 0 {
		return nil, ErrEmptyGraph
	}
	if len(stops) == 0 {
		return nil, ErrNoStops
	}
	for _, key := range graph.Validate() {
		logger.Warn("Edge references missing node", "edge", key)
	}
	logger.Info("Data loaded", "nodes", graph.NodesNum(), "edges", graph.EdgesNum(), "stops", len(stops), "elapsed", time.Since(st).Round(time.Millisecond))

	st = time.Now()
	options := append(cfg.InserterOptions(), WithLogger(logger))
	newGraph, results := NewInserter(options...).Insert(graph, stops)
	inserted := 0
	for _, result := range results {
		if result.Inserted {
			inserted++
		}
	}
	logger.Info("Stops processed", "inserted", inserted, "total", len(results), "elapsed", time.Since(st).Round(time.Millisecond))

	summary := &Summary{
		Graph:        newGraph,
		Results:      results,
		Connectivity: CheckConnectivity(newGraph, results),
	}
	summary.Connectivity.Log(logger)

	if cfg.CheckRoute {
		summary.Route, err = CheckRoute(newGraph, results)
		if err != nil {
			return nil, errors.Wrap(err, "Can't check route")
		}
		summary.Route.Log(logger)
	}

	switch cfg.Output.Format {
	case "csv":
		err = ExportToCSV(cfg.Output.Prefix, newGraph, results, cfg.Projection)
	default:
		err = ExportGeoJSON(newGraph, results, cfg.Projection).WriteFiles(cfg.Output.Prefix)
	}
	if err != nil {
		return nil, errors.Wrap(err, "Can't export results")
	}
	return summary, nil
}

func isGeoJSON(fname string) bool {
	name := strings.ToLower(fname)
	return strings.HasSuffix(name, ".geojson") || strings.HasSuffix(name, ".json")
}
