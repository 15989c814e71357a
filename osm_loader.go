package osm2stops

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

// BusStopTag is `highway` value for bus stops
const BusStopTag = "bus_stop"

// OSMScanner is common interface for XML and PBF scanners
type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

type wayData struct {
	ID         osm.WayID
	Nodes      []osm.NodeID
	highway    string
	name       string
	Oneway     bool
	IsReversed bool
}

type stopData struct {
	ID    osm.NodeID
	Tags  osm.Tags
	Point orb.Point
}

type osmDataRaw struct {
	ways   []*wayData
	nodes  map[osm.NodeID]orb.Point
	stops  []stopData
	useCnt map[osm.NodeID]int
}

func newScanner(ctx context.Context, filename string, reader io.Reader) (OSMScanner, error) {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".osm.pbf"), strings.HasSuffix(name, ".pbf"):
		return osmpbf.New(ctx, reader, 4), nil
	case strings.HasSuffix(name, ".osm"), strings.HasSuffix(name, ".xml"):
		return osmxml.New(ctx, reader), nil
	default:
		return nil, fmt.Errorf("File extension '%s' for file '%s' is not handled yet", filepath.Ext(filename), filename)
	}
}

// ImportFromOSMFile imports road graph and bus stops from file of OSM XML or PBF format.
// Ways are split into edges at their ends and at nodes shared with other ways.
// Two-way roads produce edge for each direction
func ImportFromOSMFile(fileName string, cfg *OsmConfiguration, logger *log.Logger) (*RoutedGraph, []QueryPoint, error) {
	if cfg == nil {
		cfg = DefaultOsmConfiguration()
	}
	if logger == nil {
		logger = discardLogger()
	}
	data, err := readOSM(fileName, cfg, logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't read OSM data")
	}
	graph := data.buildGraph(cfg, logger)
	stops := data.queryPoints(cfg)
	logger.Info("OSM data imported", "nodes", graph.NodesNum(), "edges", graph.EdgesNum(), "stops", len(stops))
	return graph, stops, nil
}

func readOSM(filename string, cfg *OsmConfiguration, logger *log.Logger) (*osmDataRaw, error) {
	logger.Debug("Opening file", "file", filename)
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data := osmDataRaw{
		ways:   []*wayData{},
		nodes:  make(map[osm.NodeID]orb.Point),
		stops:  []stopData{},
		useCnt: make(map[osm.NodeID]int),
	}

	/* Process ways */
	st := time.Now()
	{
		scannerWays, err := newScanner(context.Background(), filename, file)
		if err != nil {
			return nil, err
		}
		defer scannerWays.Close()
		for scannerWays.Scan() {
			obj := scannerWays.Object()
			if obj.ObjectID().Type() != osm.TypeWay {
				continue
			}
			way := obj.(*osm.Way)
			highway := way.Tags.Find(cfg.EntityName)
			if highway == "" || !cfg.CheckTag(highway) {
				continue
			}
			if area := way.Tags.Find("area"); area != "" && area != "no" {
				continue
			}
			if len(way.Nodes) < 2 {
				logger.Warn("Way with less than 2 nodes met", "way", way.ID, "nodes", len(way.Nodes))
				continue
			}
			prepared := &wayData{
				ID:      way.ID,
				Nodes:   make([]osm.NodeID, 0, len(way.Nodes)),
				highway: highway,
				name:    way.Tags.Find("name"),
			}
			prepared.Oneway, prepared.IsReversed = parseOneway(way.Tags, highway, way.ID, logger)
			for _, node := range way.Nodes {
				prepared.Nodes = append(prepared.Nodes, node.ID)
				data.useCnt[node.ID]++
			}
			// Ends of the way are always vertices of the graph
			data.useCnt[prepared.Nodes[0]]++
			data.useCnt[prepared.Nodes[len(prepared.Nodes)-1]]++
			data.ways = append(data.ways, prepared)
		}
		if err := scannerWays.Err(); err != nil {
			return nil, err
		}
	}
	logger.Debug("Ways processed", "ways", len(data.ways), "elapsed", time.Since(st))

	// Seek file to start
	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return nil, errors.Wrap(err, "Can't repeat seeking after ways scanning")
	}

	/* Process nodes */
	st = time.Now()
	{
		scannerNodes, err := newScanner(context.Background(), filename, file)
		if err != nil {
			return nil, err
		}
		defer scannerNodes.Close()
		for scannerNodes.Scan() {
			obj := scannerNodes.Object()
			if obj.ObjectID().Type() != osm.TypeNode {
				continue
			}
			node := obj.(*osm.Node)
			pt := orb.Point{node.Lon, node.Lat}
			if _, ok := data.useCnt[node.ID]; ok {
				data.nodes[node.ID] = pt
			}
			if node.Tags.Find("highway") == BusStopTag {
				tags := make(osm.Tags, len(node.Tags))
				copy(tags, node.Tags)
				data.stops = append(data.stops, stopData{ID: node.ID, Tags: tags, Point: pt})
			}
		}
		if err := scannerNodes.Err(); err != nil {
			return nil, err
		}
	}
	logger.Debug("Nodes processed", "nodes", len(data.nodes), "stops", len(data.stops), "elapsed", time.Since(st))
	return &data, nil
}

// parseOneway returns (oneway, reversed) for the way
func parseOneway(tags osm.Tags, highway string, wayID osm.WayID, logger *log.Logger) (bool, bool) {
	onewayText := tags.Find("oneway")
	switch onewayText {
	case "yes", "1", "true":
		return true, false
	case "no", "0", "false":
		return false, false
	case "-1", "reverse":
		return true, true
	case "":
		if _, ok := junctionTypes[tags.Find("junction")]; ok {
			return true, false
		}
		_, ok := onewayDefaultByHighway[highway]
		return ok, false
	default:
		// Reversible or alternating: depends on time conditions
		logger.Warn("Unhandled `oneway` tag value has been met", "value", onewayText, "way", wayID)
		return false, false
	}
}

func (data *osmDataRaw) buildGraph(cfg *OsmConfiguration, logger *log.Logger) *RoutedGraph {
	graph := NewRoutedGraph()
	skipped := 0
	for _, way := range data.ways {
		segment := []osm.NodeID{way.Nodes[0]}
		for i := 1; i < len(way.Nodes); i++ {
			nodeID := way.Nodes[i]
			segment = append(segment, nodeID)
			if data.useCnt[nodeID] < 2 && i != len(way.Nodes)-1 {
				continue
			}
			if !data.addSegment(graph, way, segment, cfg.Projection) {
				skipped++
			}
			segment = []osm.NodeID{nodeID}
		}
	}
	if skipped > 0 {
		logger.Warn("Segments referencing nodes outside of the extract have been skipped", "segments", skipped)
	}
	return graph
}

func (data *osmDataRaw) addSegment(graph *RoutedGraph, way *wayData, segment []osm.NodeID, projection Projection) bool {
	line := make(orb.LineString, 0, len(segment))
	for _, nodeID := range segment {
		pt, ok := data.nodes[nodeID]
		if !ok {
			return false
		}
		line = append(line, pt)
	}
	source := NodeID(segment[0])
	target := NodeID(segment[len(segment)-1])
	sourcePt := projection.forward(line[0])
	targetPt := projection.forward(line[len(line)-1])
	graph.AddNode(source, sourcePt[0], sourcePt[1])
	graph.AddNode(target, targetPt[0], targetPt[1])

	lengthMeters := geo.LengthHaversign(line)
	geom := projection.forwardLine(line)
	attributes := func() map[string]interface{} {
		return map[string]interface{}{
			"osmid":   int64(way.ID),
			"highway": way.highway,
			"name":    way.name,
			"oneway":  way.Oneway,
			"length":  lengthMeters,
		}
	}
	if !way.Oneway || !way.IsReversed {
		graph.AddEdge(source, target, geom, attributes())
	}
	if !way.Oneway || way.IsReversed {
		graph.AddEdge(target, source, reverseLine(geom), attributes())
	}
	return true
}

func (data *osmDataRaw) queryPoints(cfg *OsmConfiguration) []QueryPoint {
	points := make([]QueryPoint, 0, len(data.stops))
	for i, stop := range data.stops {
		id := strconv.Itoa(i + 1)
		if cfg.StopIDTag != "" {
			if value := stop.Tags.Find(cfg.StopIDTag); value != "" {
				id = value
			}
		}
		points = append(points, QueryPoint{ID: id, Point: cfg.Projection.forward(stop.Point)})
	}
	return points
}
