package osm2stops

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// MinIncidentEdges is minimal number of incident edges for an inserted node
const MinIncidentEdges = 2

// Defect is inserted node with lack of incident edges
type Defect struct {
	PointID       string
	NodeID        NodeID
	IncidentEdges int
	// Node has not been found in the graph at all
	Missing bool
}

// String returns human-readable description of the defect
func (defect Defect) String() string {
	if defect.Missing {
		return fmt.Sprintf("point '%s': node %d is not in the graph", defect.PointID, defect.NodeID)
	}
	return fmt.Sprintf("point '%s': node %d has %d incident edge(s), expected at least %d", defect.PointID, defect.NodeID, defect.IncidentEdges, MinIncidentEdges)
}

// Report is result of connectivity check
type Report struct {
	Defects           []Defect
	StronglyConnected bool
	ComponentsCount   int
	// Strongly connected components: largest first
	Components [][]NodeID
}

// DefectiveNodes returns identifiers of defective nodes
func (report *Report) DefectiveNodes() []NodeID {
	ids := make([]NodeID, len(report.Defects))
	for i, defect := range report.Defects {
		ids[i] = defect.NodeID
	}
	return ids
}

// OK returns true when there are no defects and the graph is strongly connected
func (report *Report) OK() bool {
	return len(report.Defects) == 0 && report.StronglyConnected
}

func (report *Report) String() string {
	lines := []string{
		fmt.Sprintf("strongly connected: %t", report.StronglyConnected),
		fmt.Sprintf("components: %d", report.ComponentsCount),
		fmt.Sprintf("defects: %d", len(report.Defects)),
	}
	for _, defect := range report.Defects {
		lines = append(lines, "\t"+defect.String())
	}
	return strings.Join(lines, "\n")
}

// Log writes one warning per defect and summary line
func (report *Report) Log(logger *log.Logger) {
	for _, defect := range report.Defects {
		logger.Warn("Connectivity defect", "point", defect.PointID, "node", defect.NodeID, "incident_edges", defect.IncidentEdges, "missing", defect.Missing)
	}
	if !report.StronglyConnected {
		logger.Warn("Graph is not strongly connected", "components", report.ComponentsCount)
	}
	logger.Info("Connectivity check done", "strongly_connected", report.StronglyConnected, "components", report.ComponentsCount, "defects", len(report.Defects))
}

// CheckConnectivity validates inserted nodes and strong connectivity of the graph.
// It is read-only: graph is never modified
func CheckConnectivity(graph *RoutedGraph, results []InsertionResult) *Report {
	report := &Report{
		Defects: []Defect{},
	}
	for _, result := range results {
		if !result.Inserted {
			continue
		}
		if !graph.HasNode(result.NodeID) {
			report.Defects = append(report.Defects, Defect{PointID: result.PointID, NodeID: result.NodeID, Missing: true})
			continue
		}
		incident := graph.Degree(result.NodeID)
		if incident < MinIncidentEdges {
			report.Defects = append(report.Defects, Defect{PointID: result.PointID, NodeID: result.NodeID, IncidentEdges: incident})
		}
	}
	report.Components = StronglyConnectedComponents(graph)
	report.ComponentsCount = len(report.Components)
	report.StronglyConnected = report.ComponentsCount <= 1
	return report
}

// StronglyConnectedComponents returns strongly connected components of the graph (Tarjan's algorithm).
// Edges pointing to nodes missing in the graph are ignored.
// Components are sorted by size (descending) and then by the smallest node identifier
func StronglyConnectedComponents(graph *RoutedGraph) [][]NodeID {
	nodes := graph.Nodes()
	index := make(map[NodeID]int, len(nodes))
	lowLink := make(map[NodeID]int, len(nodes))
	onStack := make(map[NodeID]bool, len(nodes))
	stack := []NodeID{}
	components := [][]NodeID{}
	counter := 0

	type frame struct {
		node      NodeID
		neighbors []EdgeKey
		next      int
	}

	for _, root := range nodes {
		if _, visited := index[root.ID]; visited {
			continue
		}
		callStack := []*frame{{node: root.ID, neighbors: graph.outcoming[root.ID]}}
		index[root.ID] = counter
		lowLink[root.ID] = counter
		counter++
		stack = append(stack, root.ID)
		onStack[root.ID] = true

		for len(callStack) > 0 {
			top := callStack[len(callStack)-1]
			if top.next < len(top.neighbors) {
				w := top.neighbors[top.next].Target
				top.next++
				if !graph.HasNode(w) {
					continue
				}
				if _, visited := index[w]; !visited {
					index[w] = counter
					lowLink[w] = counter
					counter++
					stack = append(stack, w)
					onStack[w] = true
					callStack = append(callStack, &frame{node: w, neighbors: graph.outcoming[w]})
				} else if onStack[w] && index[w] < lowLink[top.node] {
					lowLink[top.node] = index[w]
				}
				continue
			}
			// All neighbors processed
			v := top.node
			callStack = callStack[:len(callStack)-1]
			if len(callStack) > 0 {
				parent := callStack[len(callStack)-1].node
				if lowLink[v] < lowLink[parent] {
					lowLink[parent] = lowLink[v]
				}
			}
			if lowLink[v] == index[v] {
				component := []NodeID{}
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					component = append(component, w)
					if w == v {
						break
					}
				}
				sort.Slice(component, func(i, j int) bool {
					return component[i] < component[j]
				})
				components = append(components, component)
			}
		}
	}
	sort.SliceStable(components, func(i, j int) bool {
		if len(components[i]) != len(components[j]) {
			return len(components[i]) > len(components[j])
		}
		return components[i][0] < components[j][0]
	})
	return components
}
