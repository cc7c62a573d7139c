// Package dag holds the pipeline graph model and the pure functions that
// guard it.
//
// A pipeline is a set of stage nodes joined by directed edges. The accepted
// edge set is always a collection of disjoint simple chains: no node has more
// than one input or one output, and no edge closes a cycle.
//
//   - ValidateConnection decides whether one more edge may be added.
//   - ValidateGraph re-checks the whole graph before a run.
//   - TopologicalSort orders node ids for execution and never fails.
package dag
