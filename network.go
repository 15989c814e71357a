package osm2stops

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ExportToCSV writes '<prefix>_nodes.csv', '<prefix>_edges.csv' and '<prefix>_stops.csv'.
// Separator is ';'. Geometries are WKT in WGS84 (back-projected from given projection)
func ExportToCSV(fname string, graph *RoutedGraph, results []InsertionResult, projection Projection) error {
	fnameParts := strings.Split(fname, ".csv")
	fnameNodes := fnameParts[0] + "_nodes.csv"
	fnameEdges := fnameParts[0] + "_edges.csv"
	fnameStops := fnameParts[0] + "_stops.csv"

	err := exportNodesToCSV(fnameNodes, graph, projection)
	if err != nil {
		return errors.Wrap(err, "Can't export nodes")
	}

	err = exportEdgesToCSV(fnameEdges, graph, projection)
	if err != nil {
		return errors.Wrap(err, "Can't export edges")
	}

	err = exportStopsToCSV(fnameStops, results, projection)
	if err != nil {
		return errors.Wrap(err, "Can't export stops")
	}
	return nil
}

func newCSVWriter(fname string) (*os.File, *csv.Writer, error) {
	file, err := os.Create(fname)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't create file")
	}
	writer := csv.NewWriter(file)
	writer.Comma = ';'
	return file, writer, nil
}

func exportNodesToCSV(fname string, graph *RoutedGraph, projection Projection) error {
	file, writer, err := newCSVWriter(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	defer writer.Flush()

	err = writer.Write([]string{"id", "x", "y", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, node := range graph.Nodes() {
		err = writer.Write([]string{
			fmt.Sprintf("%d", node.ID),
			fmt.Sprintf("%f", node.X),
			fmt.Sprintf("%f", node.Y),
			PrepareWKTPoint(projection.inverse(node.Point())),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write node")
		}
	}
	return nil
}

func exportEdgesToCSV(fname string, graph *RoutedGraph, projection Projection) error {
	file, writer, err := newCSVWriter(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	defer writer.Flush()

	err = writer.Write([]string{"source_node", "target_node", "key", "attributes", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, edge := range graph.Edges() {
		geom := edgeGeometry(graph, edge)
		geomStr := ""
		if len(geom) >= 2 {
			geomStr = PrepareWKTLinestring(projection.inverseLine(geom))
		}
		err = writer.Write([]string{
			fmt.Sprintf("%d", edge.Source),
			fmt.Sprintf("%d", edge.Target),
			fmt.Sprintf("%d", edge.Key),
			formatAttributes(edge.Attributes),
			geomStr,
		})
		if err != nil {
			return errors.Wrap(err, "Can't write edge")
		}
	}
	return nil
}

func exportStopsToCSV(fname string, results []InsertionResult, projection Projection) error {
	file, writer, err := newCSVWriter(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	defer writer.Flush()

	err = writer.Write([]string{"stop_id", "snapped", "inserted", "node_id", "edge", "distance", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	for _, result := range results {
		nodeStr := ""
		edgeStr := ""
		geomStr := ""
		if result.Inserted {
			nodeStr = fmt.Sprintf("%d", result.NodeID)
		}
		if result.Snapped {
			edgeStr = result.Edge.String()
			geomStr = PrepareWKTPoint(projection.inverse(result.Projected))
		}
		err = writer.Write([]string{
			result.PointID,
			fmt.Sprintf("%t", result.Snapped),
			fmt.Sprintf("%t", result.Inserted),
			nodeStr,
			edgeStr,
			fmt.Sprintf("%f", result.Distance),
			geomStr,
		})
		if err != nil {
			return errors.Wrap(err, "Can't write stop")
		}
	}
	return nil
}

// formatAttributes returns 'k=v' pairs ordered by key and separated by ','
func formatAttributes(attributes map[string]interface{}) string {
	keys := make([]string, 0, len(attributes))
	for k := range attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%v", k, attributes[k])
	}
	return strings.Join(pairs, ",")
}
