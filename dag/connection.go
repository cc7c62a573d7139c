package dag

import "strings"

// Connection rejection reasons.
const (
	ReasonMissingEndpoint = "Connection must have both source and target"
	ReasonSelfConnection  = "Cannot connect a node to itself"
	ReasonSourceNotOutput = "Source must be an output handle"
	ReasonTargetNotInput  = "Target must be an input handle"
	ReasonTargetHasInput  = "Target node already has an input connection. Each node accepts only one input."
	ReasonSourceHasOutput = "Source node already has an output connection. Each node accepts only one output."
	ReasonConnectionCycle = "This connection would create a cycle in the pipeline"
)

// ValidateConnection decides whether c may be added to existing. Checks run in
// a fixed order and the first failure is reported. It has no side effects.
func ValidateConnection(c Connection, existing []Edge) Verdict {
	if c.Source == "" || c.Target == "" {
		return reject(ReasonMissingEndpoint)
	}
	if c.Source == c.Target {
		return reject(ReasonSelfConnection)
	}
	if c.SourceHandle != "" && strings.Contains(c.SourceHandle, "input") {
		return reject(ReasonSourceNotOutput)
	}
	if c.TargetHandle != "" && strings.Contains(c.TargetHandle, "output") {
		return reject(ReasonTargetNotInput)
	}
	for _, e := range existing {
		if e.Target == c.Target {
			return reject(ReasonTargetHasInput)
		}
	}
	for _, e := range existing {
		if e.Source == c.Source {
			return reject(ReasonSourceHasOutput)
		}
	}
	if reaches(adjacency(existing), c.Target, c.Source) {
		return reject(ReasonConnectionCycle)
	}
	return accept()
}

// adjacency maps each source id to its targets, skipping edges with a
// missing endpoint.
func adjacency(edges []Edge) map[string][]string {
	adj := make(map[string][]string, len(edges))
	for _, e := range edges {
		if e.Source == "" || e.Target == "" {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}

// reaches reports whether to is reachable from from. Each node is expanded
// at most once.
func reaches(adj map[string][]string, from, to string) bool {
	visited := make(map[string]bool)
	stack := []string{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == to {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		stack = append(stack, adj[n]...)
	}
	return false
}
