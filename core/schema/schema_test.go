package schema_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/modelrest/core/schema"
)

const (
	nameRef = `{"$id": "https://example.test/refs/name.json", "type": "string", "minLength": 1, "maxLength": 8}`

	itemSchema = `{
		"$id": "https://example.test/item.json",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"$ref": "https://example.test/refs/name.json"},
			"count": {"type": "integer"}
		}
	}`
)

type item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestValidate(t *testing.T) {
	v, err := schema.New([]string{itemSchema}, []string{nameRef})
	require.NoError(t, err)
	id := "https://example.test/item.json"

	assert.NoError(t, v.Validate(item{Name: "short", Count: 2}, id))
	assert.NoError(t, v.Validate(map[string]interface{}{"name": "raw"}, id))

	err = v.Validate(item{Name: "much too long"}, id)
	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, id, verr.SchemaID)
	assert.Len(t, verr.Problems, 1)

	err = v.Validate(map[string]interface{}{"count": "many"}, id)
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Problems, 2)

	assert.Error(t, v.Validate(item{Name: "x"}, "https://example.test/unknown.json"))
}

func TestNew_Errors(t *testing.T) {
	_, err := schema.New([]string{`{"type": "string"}`}, nil)
	assert.Error(t, err, "schema without $id")

	_, err = schema.New([]string{`{"$id": `}, nil)
	assert.Error(t, err)

	_, err = schema.New([]string{itemSchema}, []string{`{"$id": `})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"schemas/item.json":         {Data: []byte(itemSchema)},
		"schemas/refs/name.json":    {Data: []byte(nameRef)},
		"schemas/refs/ignored.yaml": {Data: []byte("not: json")},
	}
	v, err := schema.Load(fsys, "schemas")
	require.NoError(t, err)
	assert.True(t, v.Has("https://example.test/item.json"))
	assert.False(t, v.Has("https://example.test/refs/name.json"))
	assert.NoError(t, v.Validate(item{Name: "short"}, "https://example.test/item.json"))

	// refs are optional
	fsys = fstest.MapFS{"schemas/plain.json": {Data: []byte(`{"$id": "https://example.test/plain.json", "type": "string"}`)}}
	v, err = schema.Load(fsys, "schemas")
	require.NoError(t, err)
	assert.Error(t, v.Validate(3, "https://example.test/plain.json"))
}
