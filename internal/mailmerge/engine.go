package mailmerge

import (
	"fmt"

	"docmerge/internal/domain"
)

var _ domain.Merger = (*Engine)(nil)

// Engine implements domain.Merger on top of Document. It holds no state and
// is safe for concurrent use.
type Engine struct{}

// NewEngine returns a ready Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// ListFields returns the merge-field names present in template.
func (e *Engine) ListFields(template []byte) ([]string, error) {
	doc, err := Open(template)
	if err != nil {
		return nil, err
	}
	return doc.Fields(), nil
}

// Merge returns template with the named fields populated.
func (e *Engine) Merge(template []byte, values map[string]string) ([]byte, error) {
	doc, err := Open(template)
	if err != nil {
		return nil, err
	}
	doc.Merge(values)

	out, err := doc.Bytes()
	if err != nil {
		return nil, fmt.Errorf("write merged document: %w", err)
	}
	return out, nil
}
