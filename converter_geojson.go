package osm2stops

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

var (
	// Property names used for node identifiers (first found wins)
	nodeIDProperties = []string{"id", "osmid"}
	// Property names used for edge source/target/key (first found wins)
	edgeSourceProperties = []string{"source", "u"}
	edgeTargetProperties = []string{"target", "v"}
	edgeKeyProperties    = []string{"key"}
)

// GeoJSONExport holds feature collections for nodes, edges and snapped stops
type GeoJSONExport struct {
	Nodes *geojson.FeatureCollection
	Edges *geojson.FeatureCollection
	Stops *geojson.FeatureCollection
}

// PrepareGeoJSONLinestring returns GeoJSON coordinates of LineString
func PrepareGeoJSONLinestring(line orb.LineString) [][]float64 {
	pts2d := make([][]float64, len(line))
	for i := range line {
		pts2d[i] = []float64{line[i][0], line[i][1]}
	}
	return pts2d
}

// PrepareGeoJSONPoint returns GeoJSON coordinates of Point
func PrepareGeoJSONPoint(pt orb.Point) []float64 {
	return []float64{pt[0], pt[1]}
}

// ExportGeoJSON converts graph and insertion results to GeoJSON.
// Coordinates are converted from the projection back to WGS84
func ExportGeoJSON(graph *RoutedGraph, results []InsertionResult, projection Projection) *GeoJSONExport {
	export := &GeoJSONExport{
		Nodes: geojson.NewFeatureCollection(),
		Edges: geojson.NewFeatureCollection(),
		Stops: geojson.NewFeatureCollection(),
	}
	for _, node := range graph.Nodes() {
		feature := geojson.NewPointFeature(PrepareGeoJSONPoint(projection.inverse(node.Point())))
		feature.SetProperty("id", int64(node.ID))
		export.Nodes.AddFeature(feature)
	}
	for _, edge := range graph.Edges() {
		geom := edgeGeometry(graph, edge)
		if len(geom) < 2 {
			continue
		}
		feature := geojson.NewLineStringFeature(PrepareGeoJSONLinestring(projection.inverseLine(geom)))
		for k, v := range edge.Attributes {
			feature.SetProperty(k, v)
		}
		feature.SetProperty("source", int64(edge.Source))
		feature.SetProperty("target", int64(edge.Target))
		feature.SetProperty("key", edge.Key)
		export.Edges.AddFeature(feature)
	}
	for _, result := range results {
		if !result.Snapped {
			continue
		}
		feature := geojson.NewPointFeature(PrepareGeoJSONPoint(projection.inverse(result.Projected)))
		feature.SetProperty("stop_id", result.PointID)
		feature.SetProperty("inserted", result.Inserted)
		if result.Inserted {
			feature.SetProperty("node_id", int64(result.NodeID))
		}
		feature.SetProperty("edge", result.Edge.String())
		feature.SetProperty("distance", result.Distance)
		export.Stops.AddFeature(feature)
	}
	return export
}

// WriteFiles writes collections into '<prefix>_nodes.geojson', '<prefix>_edges.geojson' and '<prefix>_stops.geojson'
func (export *GeoJSONExport) WriteFiles(prefix string) error {
	prefix = strings.TrimSuffix(prefix, ".geojson")
	collections := []struct {
		suffix string
		fc     *geojson.FeatureCollection
	}{
		{"_nodes.geojson", export.Nodes},
		{"_edges.geojson", export.Edges},
		{"_stops.geojson", export.Stops},
	}
	for _, c := range collections {
		b, err := c.fc.MarshalJSON()
		if err != nil {
			return errors.Wrap(err, "Can't marshal feature collection")
		}
		err = os.WriteFile(prefix+c.suffix, b, 0644)
		if err != nil {
			return errors.Wrapf(err, "Can't write file '%s'", prefix+c.suffix)
		}
	}
	return nil
}

// ImportGraphGeoJSON builds graph from feature collection.
// Point features are nodes ('id' or 'osmid' property). LineString features are edges ('source'/'u', 'target'/'v', optional 'key').
// Nodes missing as Point features are created from edge geometry ends.
// Other properties of LineString features become edge attributes
func ImportGraphGeoJSON(data []byte, projection Projection) (*RoutedGraph, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "Can't unmarshal feature collection")
	}
	graph := NewRoutedGraph()
	lines := []*geojson.Feature{}
	for i, feature := range fc.Features {
		if feature.Geometry == nil {
			continue
		}
		switch feature.Geometry.Type {
		case geojson.GeometryPoint:
			id, err := findNodeID(feature.Properties, nodeIDProperties)
			if err != nil {
				return nil, errors.Wrapf(err, "Can't parse node identifier for feature #%d", i)
			}
			pt := projection.forward(orb.Point{feature.Geometry.Point[0], feature.Geometry.Point[1]})
			graph.AddNode(id, pt[0], pt[1])
		case geojson.GeometryLineString:
			lines = append(lines, feature)
		default:
			continue
		}
	}
	for i, feature := range lines {
		source, err := findNodeID(feature.Properties, edgeSourceProperties)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't parse source for line #%d", i)
		}
		target, err := findNodeID(feature.Properties, edgeTargetProperties)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't parse target for line #%d", i)
		}
		geom := make(orb.LineString, 0, len(feature.Geometry.LineString))
		for _, pt := range feature.Geometry.LineString {
			geom = append(geom, orb.Point{pt[0], pt[1]})
		}
		geom = projection.forwardLine(geom)
		if len(geom) >= 2 {
			if !graph.HasNode(source) {
				graph.AddNode(source, geom[0][0], geom[0][1])
			}
			if !graph.HasNode(target) {
				graph.AddNode(target, geom[len(geom)-1][0], geom[len(geom)-1][1])
			}
		}
		attributes := make(map[string]interface{}, len(feature.Properties))
		for k, v := range feature.Properties {
			if containsString(edgeSourceProperties, k) || containsString(edgeTargetProperties, k) || containsString(edgeKeyProperties, k) {
				continue
			}
			attributes[k] = v
		}
		key, errKey := findNodeID(feature.Properties, edgeKeyProperties)
		if errKey == nil {
			err = graph.AddEdgeWithKey(EdgeKey{Source: source, Target: target, Key: int(key)}, geom, attributes)
			if err != nil {
				return nil, errors.Wrapf(err, "Can't add line #%d", i)
			}
			continue
		}
		graph.AddEdge(source, target, geom, attributes)
	}
	return graph, nil
}

// ImportStopsGeoJSON reads Point features as query points.
// Identifier is taken from idProperty, then from feature's 'id', then sequential number (starting from 1) is used
func ImportStopsGeoJSON(data []byte, idProperty string, projection Projection) ([]QueryPoint, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "Can't unmarshal feature collection")
	}
	points := []QueryPoint{}
	for _, feature := range fc.Features {
		if feature.Geometry == nil || feature.Geometry.Type != geojson.GeometryPoint {
			continue
		}
		id := strconv.Itoa(len(points) + 1)
		if value, ok := feature.Properties[idProperty]; ok && idProperty != "" {
			id = stringifyID(value)
		} else if feature.ID != nil {
			id = stringifyID(feature.ID)
		}
		pt := projection.forward(orb.Point{feature.Geometry.Point[0], feature.Geometry.Point[1]})
		points = append(points, QueryPoint{ID: id, Point: pt})
	}
	return points, nil
}

func findNodeID(properties map[string]interface{}, names []string) (NodeID, error) {
	for _, name := range names {
		value, ok := properties[name]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			return NodeID(v), nil
		case int:
			return NodeID(v), nil
		case int64:
			return NodeID(v), nil
		case string:
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, errors.Wrapf(err, "Property '%s'", name)
			}
			return NodeID(parsed), nil
		default:
			return 0, fmt.Errorf("Property '%s' has unsupported type %T", name, value)
		}
	}
	return 0, fmt.Errorf("None of properties %v found", names)
}

func stringifyID(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func containsString(slice []string, element string) bool {
	for _, s := range slice {
		if s == element {
			return true
		}
	}
	return false
}

// ImportResultsGeoJSON reads stops collection produced by ExportGeoJSON back into insertion results.
// Coordinates are converted into the projection
func ImportResultsGeoJSON(data []byte, projection Projection) ([]InsertionResult, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "Can't unmarshal feature collection")
	}
	results := make([]InsertionResult, 0, len(fc.Features))
	for i, feature := range fc.Features {
		if feature.Geometry == nil || feature.Geometry.Type != geojson.GeometryPoint {
			continue
		}
		stopID, ok := feature.Properties["stop_id"]
		if !ok {
			return nil, fmt.Errorf("Feature #%d has no 'stop_id' property", i)
		}
		result := InsertionResult{
			PointID:   stringifyID(stopID),
			Snapped:   true,
			Projected: projection.forward(orb.Point{feature.Geometry.Point[0], feature.Geometry.Point[1]}),
		}
		if distance, err := feature.PropertyFloat64("distance"); err == nil {
			result.Distance = distance
		}
		if _, ok := feature.Properties["node_id"]; ok {
			nodeID, err := findNodeID(feature.Properties, []string{"node_id"})
			if err != nil {
				return nil, errors.Wrapf(err, "Can't parse node for feature #%d", i)
			}
			result.Inserted = true
			result.NodeID = nodeID
		}
		results = append(results, result)
	}
	return results, nil
}
