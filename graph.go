package osm2stops

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// NodeID is identifier of vertex in routed graph
type NodeID int64

// Node is vertex of routed graph. X and Y share CRS with geometries of edges
type Node struct {
	ID NodeID
	X  float64
	Y  float64
}

// Point returns coordinates of node as orb.Point
func (node *Node) Point() orb.Point {
	return orb.Point{node.X, node.Y}
}

// EdgeKey identifies edge in multigraph: there could be several edges for the same pair of nodes
type EdgeKey struct {
	Source NodeID
	Target NodeID
	Key    int
}

// String returns pretty printed value for EdgeKey
func (key EdgeKey) String() string {
	return fmt.Sprintf("(%d, %d, %d)", key.Source, key.Target, key.Key)
}

// Edge is directed road segment. Attributes are opaque for the graph and must be kept as is
type Edge struct {
	Source     NodeID
	Target     NodeID
	Key        int
	Geom       orb.LineString
	Attributes map[string]interface{}

	seq uint64
}

// EdgeKey returns identifier of the edge
func (edge *Edge) EdgeKey() EdgeKey {
	return EdgeKey{Source: edge.Source, Target: edge.Target, Key: edge.Key}
}

// RoutedGraph is directed multigraph of road network
type RoutedGraph struct {
	nodes      map[NodeID]*Node
	edges      map[EdgeKey]*Edge
	outcoming  map[NodeID][]EdgeKey
	incoming   map[NodeID][]EdgeKey
	maxNodeID  NodeID
	hasAnyID   bool
	edgeSeqNum uint64
}

// NewRoutedGraph returns empty graph
func NewRoutedGraph() *RoutedGraph {
	return &RoutedGraph{
		nodes:     make(map[NodeID]*Node),
		edges:     make(map[EdgeKey]*Edge),
		outcoming: make(map[NodeID][]EdgeKey),
		incoming:  make(map[NodeID][]EdgeKey),
	}
}

func (graph *RoutedGraph) trackID(id NodeID) {
	if !graph.hasAnyID || id > graph.maxNodeID {
		graph.maxNodeID = id
		graph.hasAnyID = true
	}
}

// AddNode adds node to the graph. Coordinates of existing node are overwritten
func (graph *RoutedGraph) AddNode(id NodeID, x, y float64) *Node {
	if node, ok := graph.nodes[id]; ok {
		node.X = x
		node.Y = y
		return node
	}
	node := &Node{ID: id, X: x, Y: y}
	graph.nodes[id] = node
	graph.trackID(id)
	return node
}

// Node returns node by its identifier
func (graph *RoutedGraph) Node(id NodeID) (*Node, bool) {
	node, ok := graph.nodes[id]
	return node, ok
}

// HasNode checks if node exists in the graph
func (graph *RoutedGraph) HasNode(id NodeID) bool {
	_, ok := graph.nodes[id]
	return ok
}

// Nodes returns all nodes ordered by identifier
func (graph *RoutedGraph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(graph.nodes))
	for _, node := range graph.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// NodesNum returns number of nodes
func (graph *RoutedGraph) NodesNum() int {
	return len(graph.nodes)
}

// EdgesNum returns number of edges
func (graph *RoutedGraph) EdgesNum() int {
	return len(graph.edges)
}

// MaxNodeID returns the largest identifier known to the graph (node or edge endpoint).
// Second value is false for the graph without any identifiers
func (graph *RoutedGraph) MaxNodeID() (NodeID, bool) {
	return graph.maxNodeID, graph.hasAnyID
}

// ErrNodeIDOverflow is returned when the largest known identifier is math.MaxInt64
var ErrNodeIDOverflow = errors.New("no identifier greater than the maximum one is left")

// NextNodeID returns identifier which is strictly greater than any known one
func (graph *RoutedGraph) NextNodeID() (NodeID, error) {
	if !graph.hasAnyID {
		return 1, nil
	}
	if graph.maxNodeID == math.MaxInt64 {
		return 0, ErrNodeIDOverflow
	}
	return graph.maxNodeID + 1, nil
}

// AddEdge adds edge between given nodes and returns its key.
// Key is the smallest non-negative integer not used by parallel edges yet.
// Endpoints are not required to exist: such edges are reported by Validate()
func (graph *RoutedGraph) AddEdge(source, target NodeID, geom orb.LineString, attributes map[string]interface{}) EdgeKey {
	key := EdgeKey{Source: source, Target: target, Key: 0}
	for {
		if _, ok := graph.edges[key]; !ok {
			break
		}
		key.Key++
	}
	graph.insertEdge(key, geom, attributes)
	return key
}

// AddEdgeWithKey adds edge with explicitly provided key
func (graph *RoutedGraph) AddEdgeWithKey(key EdgeKey, geom orb.LineString, attributes map[string]interface{}) error {
	if _, ok := graph.edges[key]; ok {
		return errors.Errorf("Edge %s already exists", key)
	}
	graph.insertEdge(key, geom, attributes)
	return nil
}

func (graph *RoutedGraph) insertEdge(key EdgeKey, geom orb.LineString, attributes map[string]interface{}) {
	if attributes == nil {
		attributes = make(map[string]interface{})
	}
	graph.edges[key] = &Edge{
		Source:     key.Source,
		Target:     key.Target,
		Key:        key.Key,
		Geom:       geom,
		Attributes: attributes,
		seq:        graph.edgeSeqNum,
	}
	graph.edgeSeqNum++
	graph.outcoming[key.Source] = append(graph.outcoming[key.Source], key)
	graph.incoming[key.Target] = append(graph.incoming[key.Target], key)
	graph.trackID(key.Source)
	graph.trackID(key.Target)
}

// Edge returns edge by its key
func (graph *RoutedGraph) Edge(key EdgeKey) (*Edge, bool) {
	edge, ok := graph.edges[key]
	return edge, ok
}

// RemoveEdge removes edge from the graph. Returns false if there is no such edge
func (graph *RoutedGraph) RemoveEdge(key EdgeKey) bool {
	if _, ok := graph.edges[key]; !ok {
		return false
	}
	delete(graph.edges, key)
	graph.outcoming[key.Source] = removeKey(graph.outcoming[key.Source], key)
	graph.incoming[key.Target] = removeKey(graph.incoming[key.Target], key)
	return true
}

func removeKey(keys []EdgeKey, key EdgeKey) []EdgeKey {
	for i := range keys {
		if keys[i] == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}

// Edges returns snapshot of edges in the order they have been added to the graph
func (graph *RoutedGraph) Edges() []*Edge {
	edges := make([]*Edge, 0, len(graph.edges))
	for _, edge := range graph.edges {
		edges = append(edges, edge)
	}
	sort.Slice(edges, func(i, j int) bool {
		return edges[i].seq < edges[j].seq
	})
	return edges
}

// OutcomingEdges returns keys of edges starting in given node
func (graph *RoutedGraph) OutcomingEdges(id NodeID) []EdgeKey {
	return append([]EdgeKey(nil), graph.outcoming[id]...)
}

// IncomingEdges returns keys of edges ending in given node
func (graph *RoutedGraph) IncomingEdges(id NodeID) []EdgeKey {
	return append([]EdgeKey(nil), graph.incoming[id]...)
}

// Degree returns number of incident edges (both directions). Self-loop counts twice
func (graph *RoutedGraph) Degree(id NodeID) int {
	return len(graph.outcoming[id]) + len(graph.incoming[id])
}

// Validate returns keys of edges which reference nodes missing in the graph
func (graph *RoutedGraph) Validate() []EdgeKey {
	dangling := []EdgeKey{}
	for _, edge := range graph.Edges() {
		if !graph.HasNode(edge.Source) || !graph.HasNode(edge.Target) {
			dangling = append(dangling, edge.EdgeKey())
		}
	}
	return dangling
}

// Clone returns deep copy of the graph. Insertion order of edges is kept
func (graph *RoutedGraph) Clone() *RoutedGraph {
	cloned := NewRoutedGraph()
	for _, node := range graph.Nodes() {
		cloned.AddNode(node.ID, node.X, node.Y)
	}
	for _, edge := range graph.Edges() {
		cloned.insertEdge(edge.EdgeKey(), copyLine(edge.Geom), copyAttributes(edge.Attributes))
	}
	cloned.maxNodeID = graph.maxNodeID
	cloned.hasAnyID = graph.hasAnyID
	return cloned
}

func copyAttributes(attributes map[string]interface{}) map[string]interface{} {
	copied := make(map[string]interface{}, len(attributes))
	for k, v := range attributes {
		copied[k] = v
	}
	return copied
}
