package schema

import (
	"os"
	"strings"

	"github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSchema marks a schema document that cannot describe a form.
var ErrInvalidSchema = errors.New("invalid schema", errors.CategoryValidation).
	WithTextCode("INVALID_SCHEMA")

// Parse decodes a schema document. JSON documents are accepted as well since
// YAML is a superset.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "decode schema document").
			WithTextCode("INVALID_SCHEMA")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.build()
	return &s, nil
}

// Load reads and parses a schema document from disk.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "read schema file").
			WithTextCode("SCHEMA_READ_FAILED").
			WithMetadata(map[string]any{"path": path})
	}
	return Parse(data)
}

// Validate checks structural soundness: every column has a unique, non-empty
// id. Dependency keys that resolve to no field are not checked.
func (s *Schema) Validate() error {
	if s == nil {
		return ErrInvalidSchema
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for i, col := range s.Columns {
		id := strings.TrimSpace(col.ID)
		if id == "" {
			return errors.New("column id is required", errors.CategoryValidation).
				WithTextCode("INVALID_SCHEMA").
				WithMetadata(map[string]any{"column": i})
		}
		if _, dup := seen[id]; dup {
			return errors.New("duplicate column id", errors.CategoryValidation).
				WithTextCode("INVALID_SCHEMA").
				WithMetadata(map[string]any{"column": i, "id": id})
		}
		seen[id] = struct{}{}
	}
	return nil
}
