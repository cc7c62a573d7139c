package dag

import "github.com/Eman-Sallam/ai-pipeline-editor/errors"

// Verdict is the outcome of a validation. Error is empty when Valid is true.
type Verdict struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func accept() Verdict { return Verdict{Valid: true} }

func reject(reason string) Verdict { return Verdict{Error: reason} }

// ConnectionErr returns nil for a valid verdict, otherwise an
// INVALID_CONNECTION error carrying the reason.
func (v Verdict) ConnectionErr() error {
	if v.Valid {
		return nil
	}
	return errors.InvalidConnection(v.Error)
}

// PipelineErr returns nil for a valid verdict, otherwise an
// INVALID_PIPELINE error carrying the reason.
func (v Verdict) PipelineErr() error {
	if v.Valid {
		return nil
	}
	return errors.InvalidPipeline(v.Error)
}
