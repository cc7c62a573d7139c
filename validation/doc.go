// Package validation checks pipeline documents and configuration.
//
// Struct tags cover shape checks:
//
//	type NodeSpec struct {
//	    Label string `yaml:"label" validate:"notblank,max=128"`
//	}
//	err := validation.Validate(doc)
//
// The collecting Validator covers cross-field rules:
//
//	v := validation.New()
//	v.Unique("nodes[1].id", id, seen)
//	err := v.Err()
package validation
