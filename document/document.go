// Package document reads pipeline documents: YAML files listing a pipeline's
// nodes and edges.
//
//	name: churn
//	nodes:
//	  - {id: load, label: Load CSV, type: Data Source}
//	  - {id: save, label: Save, type: Sink}
//	edges:
//	  - {source: load, target: save}
package document

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Eman-Sallam/ai-pipeline-editor/dag"
	"github.com/Eman-Sallam/ai-pipeline-editor/validation"
)

// Document is the on-disk form of a pipeline.
type Document struct {
	Name  string     `yaml:"name" validate:"max=200"`
	Nodes []NodeSpec `yaml:"nodes" validate:"dive"`
	Edges []EdgeSpec `yaml:"edges" validate:"dive"`
}

// NodeSpec declares one node. A missing id is generated.
type NodeSpec struct {
	ID    string `yaml:"id,omitempty" validate:"omitempty,max=128"`
	Label string `yaml:"label" validate:"max=200"`
	Type  string `yaml:"type" validate:"max=100"`
}

// EdgeSpec declares one edge. A missing id is generated.
type EdgeSpec struct {
	ID     string `yaml:"id,omitempty" validate:"omitempty,max=128"`
	Source string `yaml:"source" validate:"notblank"`
	Target string `yaml:"target" validate:"notblank"`
}

// Pipeline is a document resolved into graph form.
type Pipeline struct {
	Name  string
	Nodes []dag.Node
	Edges []dag.Edge
}

// BuildOptions controls how a document becomes a Pipeline.
type BuildOptions struct {
	// Raw skips the connection rules and keeps every edge as written. The
	// graph is then only checked when it is executed.
	Raw bool
}

// Build validates d and converts it to a Pipeline. Every problem found is
// reported in a single INVALID_INPUT error listing the offending fields.
func Build(d *Document, opts BuildOptions) (*Pipeline, error) {
	if err := validation.Validate(d); err != nil {
		return nil, err
	}

	v := validation.New()
	p := &Pipeline{Name: d.Name}

	seen := make(map[string]bool, len(d.Nodes))
	for i, ns := range d.Nodes {
		id := ns.ID
		if id == "" {
			id = uuid.NewString()
		}
		v.Unique(fmt.Sprintf("nodes[%d].id", i), id, seen)
		p.Nodes = append(p.Nodes, dag.Node{ID: id, Label: ns.Label, Type: ns.Type, Status: dag.StatusIdle})
	}

	for i, es := range d.Edges {
		field := fmt.Sprintf("edges[%d]", i)
		known := true
		for _, end := range []string{es.Source, es.Target} {
			v.Custom(seen[end], field, fmt.Sprintf("unknown node %q", end))
			known = known && seen[end]
		}
		if !known {
			continue
		}
		if !opts.Raw {
			c := dag.Connection{Source: es.Source, Target: es.Target}
			verdict := dag.ValidateConnection(c, p.Edges)
			if v.Custom(verdict.Valid, field, verdict.Error); !verdict.Valid {
				continue
			}
		}
		id := es.ID
		if id == "" {
			id = uuid.NewString()
		}
		p.Edges = append(p.Edges, dag.Edge{ID: id, Source: es.Source, Target: es.Target})
	}

	if err := v.Err(); err != nil {
		return nil, err
	}
	return p, nil
}
