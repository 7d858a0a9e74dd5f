package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/modelrest/core/client"
)

const modelsYAML = `
models:
  - name: Mixed
    properties:
      myStringProp:
        type: string
        index: true
      myIntegerProp:
        type: integer
  - name: Secret
    properties:
      level:
        type: integer
    options:
      expose: false
`

func writeModels(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(modelsYAML), 0o644))
	return path
}

func TestService_Build(t *testing.T) {
	s := Service{ModelsFile: writeModels(t), URLPrefix: "/v1", CORS: "model", Convenience: true}
	router := mux.NewRouter()
	b, closeAll, err := s.build(router)
	require.NoError(t, err)
	defer closeAll()

	assert.Len(t, b.Registry().Models(), 2)
	c := client.NewWithRouter(router).WithPrefix("/v1")

	var created struct {
		UUID string `json:"uuid"`
	}
	_, err = c.Model("mixed").Create(map[string]interface{}{"myStringProp": "a"}, &created)
	require.NoError(t, err)
	assert.NotEmpty(t, created.UUID)

	res, err := c.Do("GET", "/v1/secret", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 403, res.Status)
}

func TestService_BuildErrors(t *testing.T) {
	s := Service{ModelsFile: filepath.Join(t.TempDir(), "missing.yaml")}
	_, _, err := s.build(mux.NewRouter())
	assert.Error(t, err)

	s = Service{CORS: "sometimes"}
	_, _, err = s.build(mux.NewRouter())
	assert.Error(t, err)
}

func TestRoutesCommand(t *testing.T) {
	path := writeModels(t)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"routes", "--models", path, "--prefix", "/api", "--convenience"})
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, "GET     /api/.schema -> schemas", lines[0])
	assert.Contains(t, out.String(), "GET     /api/mixed/create -> create (Mixed)")
	assert.Contains(t, out.String(), "DELETE  /api/secret/{uuid} -> remove (Secret)")
	assert.Equal(t, "DELETE  /api/{model} -> no-such-model", lines[len(lines)-1])
}
