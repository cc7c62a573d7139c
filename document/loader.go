package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	apperrors "github.com/Eman-Sallam/ai-pipeline-editor/errors"
)

// Extensions a pipeline document may have.
var Extensions = []string{".yaml", ".yml"}

// Parse decodes a YAML document. Unknown fields are rejected and empty
// input yields an empty document.
func Parse(data []byte) (*Document, error) {
	var d Document
	if err := decodeStrict(data, &d); err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("invalid pipeline document: %v", err)).WithCause(err)
	}
	return &d, nil
}

// LoadFile reads and builds the document at path.
func LoadFile(path string, opts BuildOptions) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound("pipeline document", path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, err
	}
	p, err := Build(d, opts)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = trimExt(filepath.Base(path))
	}
	return p, nil
}

// Loader finds documents by name in a list of directories.
type Loader struct {
	dirs []string
	opts BuildOptions
}

// NewLoader creates a loader searching dirs in order.
func NewLoader(opts BuildOptions, dirs ...string) *Loader {
	return &Loader{dirs: dirs, opts: opts}
}

// Resolve returns the path of the first {name}.yaml or {name}.yml found.
// A name that is already a path to an existing file is returned as is.
func (l *Loader) Resolve(name string) (string, error) {
	if fileExists(name) {
		return name, nil
	}
	for _, dir := range l.dirs {
		for _, ext := range Extensions {
			path := filepath.Join(dir, name+ext)
			if fileExists(path) {
				return path, nil
			}
		}
	}
	return "", apperrors.NotFound("pipeline document", name).WithDetail("dirs", l.dirs)
}

// Load resolves name and builds the document found.
func (l *Loader) Load(name string) (*Pipeline, error) {
	path, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}
	return LoadFile(path, l.opts)
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
