package execution

import "github.com/Eman-Sallam/ai-pipeline-editor/dag"

// Mutator applies node updates to whoever owns the live node collection.
// The update receives the current nodes and returns the replacement.
type Mutator interface {
	Apply(update func([]dag.Node) []dag.Node)
}

// MutatorFunc adapts a function to Mutator.
type MutatorFunc func(update func([]dag.Node) []dag.Node)

func (f MutatorFunc) Apply(update func([]dag.Node) []dag.Node) { f(update) }

type nopMutator struct{}

func (nopMutator) Apply(func([]dag.Node) []dag.Node) {}
