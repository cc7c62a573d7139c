// Package execution runs a pipeline: it validates the graph, orders the
// stages and runs them one at a time, reporting node status changes through
// a Mutator and progress through a newest-first log.
//
// An Orchestrator admits one run at a time. A call made while a run is in
// flight returns ErrCodeExecutionInProgress and touches neither the status
// nor the log.
package execution
