package dag

import "strings"

// Graph rejection reasons. Disconnected nodes are reported with
// DisconnectedNodes.
const (
	ReasonEmptyPipeline    = "Pipeline is empty. Add at least one node to execute."
	ReasonNoConnections    = "Pipeline has disconnected nodes. Connect all nodes to execute."
	ReasonPipelineHasCycle = "Pipeline contains cycles. Please fix the connections."
)

// DisconnectedNodes formats the rejection for nodes that no edge touches.
func DisconnectedNodes(names []string) string {
	return "Pipeline has disconnected nodes: " + strings.Join(names, ", ") + ". All nodes must be connected."
}

// ValidateGraph is the pre-execution gate. A single node without edges is a
// valid pipeline; otherwise every node must touch an edge and the edges must
// not form a cycle.
func ValidateGraph(nodes []Node, edges []Edge) Verdict {
	if len(nodes) == 0 {
		return reject(ReasonEmptyPipeline)
	}
	if len(nodes) > 1 && len(edges) == 0 {
		return reject(ReasonNoConnections)
	}

	if len(nodes) > 1 {
		touched := make(map[string]bool, 2*len(edges))
		for _, e := range edges {
			if e.Source != "" {
				touched[e.Source] = true
			}
			if e.Target != "" {
				touched[e.Target] = true
			}
		}
		var isolated []string
		for _, n := range nodes {
			if !touched[n.ID] {
				name := n.Label
				if name == "" {
					name = n.ID
				}
				isolated = append(isolated, name)
			}
		}
		if len(isolated) > 0 {
			return reject(DisconnectedNodes(isolated))
		}
	}

	if hasCycle(nodes, adjacency(edges)) {
		return reject(ReasonPipelineHasCycle)
	}
	return accept()
}

// hasCycle runs a recursion-stack DFS from every unvisited node.
func hasCycle(nodes []Node, adj map[string][]string) bool {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		switch state[id] {
		case onStack:
			return true
		case done:
			return false
		}
		state[id] = onStack
		for _, next := range adj[id] {
			if visit(next) {
				return true
			}
		}
		state[id] = done
		return false
	}

	for _, n := range nodes {
		if state[n.ID] == unvisited && visit(n.ID) {
			return true
		}
	}
	return false
}

// TopologicalSort orders node ids with Kahn's algorithm. Zero in-degree nodes
// are seeded in node-list order and the queue is FIFO. Nodes left over by a
// cycle are appended in node-list order, so every node appears exactly once.
// Edges naming ids outside nodes are ignored, and a repeated node id keeps
// its first position.
func TopologicalSort(nodes []Node, edges []Edge) []string {
	inDegree := make(map[string]int, len(nodes))
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if _, seen := inDegree[n.ID]; seen {
			continue
		}
		inDegree[n.ID] = 0
		ids = append(ids, n.ID)
	}

	adj := make(map[string][]string, len(edges))
	for _, e := range edges {
		_, srcOK := inDegree[e.Source]
		_, dstOK := inDegree[e.Target]
		if !srcOK || !dstOK {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		inDegree[e.Target]++
	}

	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(ids))
	placed := make(map[string]bool, len(ids))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		placed[id] = true
		for _, next := range adj[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	for _, id := range ids {
		if !placed[id] {
			order = append(order, id)
		}
	}
	return order
}
