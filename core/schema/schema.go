package schema

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

// Validator validates documents against a set of compiled JSON schemas, addressed by their $id
type Validator struct {
	schemas map[string]*gojsonschema.Schema
}

// ValidationError lists the reasons why a document does not match a schema
type ValidationError struct {
	SchemaID string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("does not match %s: %s", e.SchemaID, strings.Join(e.Problems, "; "))
}

// Load compiles the *.json schemas found in dir of fsys. Schemas in dir/refs may
// be referenced from them but are not addressable on their own.
func Load(fsys fs.FS, dir string) (*Validator, error) {
	schemas, err := readAll(fsys, dir)
	if err != nil {
		return nil, err
	}
	refs, err := readAll(fsys, path.Join(dir, "refs"))
	if err != nil {
		return nil, err
	}
	return New(schemas, refs)
}

func readAll(fsys fs.FS, dir string) ([]string, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	documents := make([]string, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("cannot read schema %s: %w", name, err)
		}
		documents = append(documents, string(data))
	}
	return documents, nil
}

// New compiles schemas. Each schema must carry an $id and may reference refs, but no other schema.
func New(schemas []string, refs []string) (*Validator, error) {
	v := &Validator{schemas: map[string]*gojsonschema.Schema{}}
	for _, document := range schemas {
		var header struct {
			ID string `json:"$id"`
		}
		if err := json.Unmarshal([]byte(document), &header); err != nil {
			return nil, fmt.Errorf("cannot parse schema: %w", err)
		}
		if header.ID == "" {
			return nil, fmt.Errorf("schema without $id: %s", document)
		}
		sl := gojsonschema.NewSchemaLoader()
		for _, ref := range refs {
			if err := sl.AddSchemas(gojsonschema.NewStringLoader(ref)); err != nil {
				return nil, fmt.Errorf("cannot add reference for %s: %w", header.ID, err)
			}
		}
		compiled, err := sl.Compile(gojsonschema.NewStringLoader(document))
		if err != nil {
			return nil, fmt.Errorf("cannot compile %s: %w", header.ID, err)
		}
		v.schemas[header.ID] = compiled
	}
	return v, nil
}

// Has returns true if a schema with the given $id was compiled
func (v *Validator) Has(id string) bool {
	_, ok := v.schemas[id]
	return ok
}

// Validate checks document, any value marshalling to JSON, against the schema id.
// A mismatch is reported as *ValidationError.
func (v *Validator) Validate(document interface{}, id string) error {
	compiled, ok := v.schemas[id]
	if !ok {
		return fmt.Errorf("unknown schema %s", id)
	}
	result, err := compiled.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return fmt.Errorf("cannot validate against %s: %w", id, err)
	}
	if result.Valid() {
		return nil
	}
	verr := &ValidationError{SchemaID: id}
	for _, problem := range result.Errors() {
		verr.Problems = append(verr.Problems, problem.String())
	}
	return verr
}
