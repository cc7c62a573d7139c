package document

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Eman-Sallam/ai-pipeline-editor/dag"
	apperrors "github.com/Eman-Sallam/ai-pipeline-editor/errors"
	"github.com/Eman-Sallam/ai-pipeline-editor/validation"
)

const churnDoc = `
name: churn
nodes:
  - {id: load, label: Load CSV, type: Data Source}
  - {id: clean, label: Clean, type: Transformer}
  - {id: save, label: Save, type: Sink}
edges:
  - {source: load, target: clean}
  - {id: e2, source: clean, target: save}
`

func writeDoc(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func fieldsOf(t *testing.T, err error) []validation.FieldError {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	if !ok || appErr.Code != apperrors.ErrCodeInvalidInput {
		t.Fatalf("error = %v, want INVALID_INPUT", err)
	}
	fields, _ := appErr.Details["fields"].([]validation.FieldError)
	return fields
}

func TestLoadFile(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "churn.yaml", churnDoc)

	p, err := LoadFile(path, BuildOptions{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if p.Name != "churn" || len(p.Nodes) != 3 || len(p.Edges) != 2 {
		t.Fatalf("pipeline = %+v", p)
	}
	if p.Nodes[0] != (dag.Node{ID: "load", Label: "Load CSV", Type: "Data Source", Status: dag.StatusIdle}) {
		t.Errorf("nodes[0] = %+v", p.Nodes[0])
	}
	if p.Edges[0].ID == "" || p.Edges[1].ID != "e2" {
		t.Errorf("edge ids = %q, %q", p.Edges[0].ID, p.Edges[1].ID)
	}
	if v := dag.ValidateGraph(p.Nodes, p.Edges); !v.Valid {
		t.Errorf("loaded pipeline invalid: %s", v.Error)
	}
}

func TestLoadFile_NameFromPath(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "nightly.yml", "nodes:\n  - {label: Solo, type: Model}\n")
	p, err := LoadFile(path, BuildOptions{})
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if p.Name != "nightly" {
		t.Errorf("name = %q, want nightly", p.Name)
	}
	if p.Nodes[0].ID == "" {
		t.Error("missing node id was not generated")
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), BuildOptions{})
	if !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown field", "name: x\nstages: []\n"},
		{"bad yaml", "nodes: [\n"},
		{"wrong shape", "nodes: {id: a}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			if !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) {
				t.Errorf("error = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	d, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p, err := Build(d, BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if v := dag.ValidateGraph(p.Nodes, p.Edges); v.Error != dag.ReasonEmptyPipeline {
		t.Errorf("verdict = %+v", v)
	}
}

func TestBuild_Rejections(t *testing.T) {
	nodes := []NodeSpec{{ID: "a", Label: "A", Type: "Model"}, {ID: "b", Label: "B", Type: "Sink"}, {ID: "c", Label: "C", Type: "Sink"}}
	tests := []struct {
		name      string
		doc       Document
		wantField string
		wantMsg   string
	}{
		{
			name:      "duplicate node id",
			doc:       Document{Nodes: []NodeSpec{{ID: "a"}, {ID: "a"}}},
			wantField: "nodes[1].id",
			wantMsg:   `duplicate value "a"`,
		},
		{
			name:      "unknown endpoint",
			doc:       Document{Nodes: nodes, Edges: []EdgeSpec{{Source: "a", Target: "z"}}},
			wantField: "edges[0]",
			wantMsg:   `unknown node "z"`,
		},
		{
			name:      "blank source",
			doc:       Document{Nodes: nodes, Edges: []EdgeSpec{{Source: " ", Target: "b"}}},
			wantField: "edges[0].source",
		},
		{
			name:      "branching",
			doc:       Document{Nodes: nodes, Edges: []EdgeSpec{{Source: "a", Target: "b"}, {Source: "a", Target: "c"}}},
			wantField: "edges[1]",
			wantMsg:   dag.ReasonSourceHasOutput,
		},
		{
			name:      "cycle",
			doc:       Document{Nodes: nodes, Edges: []EdgeSpec{{Source: "a", Target: "b"}, {Source: "b", Target: "a"}}},
			wantField: "edges[1]",
			wantMsg:   dag.ReasonConnectionCycle,
		},
		{
			name:      "self loop",
			doc:       Document{Nodes: nodes, Edges: []EdgeSpec{{Source: "a", Target: "a"}}},
			wantField: "edges[0]",
			wantMsg:   dag.ReasonSelfConnection,
		},
		{
			name:      "label too long",
			doc:       Document{Nodes: []NodeSpec{{ID: "a", Label: strings.Repeat("x", 201)}}},
			wantField: "nodes[0].label",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(&tt.doc, BuildOptions{})
			fields := fieldsOf(t, err)
			found := false
			for _, f := range fields {
				if f.Field == tt.wantField && (tt.wantMsg == "" || f.Message == tt.wantMsg) {
					found = true
				}
			}
			if !found {
				t.Errorf("fields = %v, want %s: %s", fields, tt.wantField, tt.wantMsg)
			}
		})
	}
}

func TestBuild_RawKeepsEdges(t *testing.T) {
	doc := Document{
		Nodes: []NodeSpec{{ID: "a", Label: "A", Type: "Model"}, {ID: "b", Label: "B", Type: "Sink"}},
		Edges: []EdgeSpec{{Source: "a", Target: "b"}, {Source: "b", Target: "a"}},
	}
	p, err := Build(&doc, BuildOptions{Raw: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(p.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(p.Edges))
	}
	if v := dag.ValidateGraph(p.Nodes, p.Edges); v.Error != dag.ReasonPipelineHasCycle {
		t.Errorf("verdict = %+v, want cycle", v)
	}
}

func TestLoader_Resolve(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	writeDoc(t, second, "churn.yml", churnDoc)
	direct := writeDoc(t, first, "direct.yaml", churnDoc)

	l := NewLoader(BuildOptions{}, first, second)
	path, err := l.Resolve("churn")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if path != filepath.Join(second, "churn.yml") {
		t.Errorf("path = %q", path)
	}
	if got, _ := l.Resolve(direct); got != direct {
		t.Errorf("direct path resolved to %q", got)
	}
	if _, err := l.Resolve("missing"); !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("missing error = %v", err)
	}

	p, err := l.Load("churn")
	if err != nil || p.Name != "churn" {
		t.Errorf("Load = %+v, %v", p, err)
	}
}
