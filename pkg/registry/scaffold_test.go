// pkg/registry/scaffold_test.go
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaffold_BundledActivity(t *testing.T) {
	reg, err := LoadRegistry("../../configs/activity-registry.json")
	require.NoError(t, err)
	activity, ok := reg.Find("locate-facilities")
	require.True(t, ok)
	dir := t.TempDir()

	files, err := Scaffold(*activity, dir)
	require.NoError(t, err)

	workerDir := filepath.Join(dir, "ewaste", "locate-facilities")
	assert.Equal(t, []string{
		filepath.Join(workerDir, "config.go"),
		filepath.Join(workerDir, "handler.go"),
		filepath.Join(workerDir, "handler_test.go"),
		filepath.Join(workerDir, "models.go"),
		filepath.Join(workerDir, "schema.json"),
	}, files)

	models, err := os.ReadFile(filepath.Join(workerDir, "models.go"))
	require.NoError(t, err)
	assert.Contains(t, string(models), "package locatefacilities")
	assert.Contains(t, string(models), "Lat *float64 `json:\"lat,omitempty\"`")
	assert.Contains(t, string(models), "Limit *int `json:\"limit,omitempty\"`")
	assert.Contains(t, string(models), "VerifiedOnly bool `json:\"verifiedOnly,omitempty\"`")

	handler, err := os.ReadFile(filepath.Join(workerDir, "handler.go"))
	require.NoError(t, err)
	assert.Contains(t, string(handler), `const TaskType = "locate-facilities"`)
	assert.Contains(t, string(handler), `"ecycle-workers/internal/common/errors"`)

	config, err := os.ReadFile(filepath.Join(workerDir, "config.go"))
	require.NoError(t, err)
	assert.Contains(t, string(config), `time.ParseDuration("5s")`)

	var schema map[string]interface{}
	data, err := os.ReadFile(filepath.Join(workerDir, "schema.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Contains(t, schema, "$schema")
}

func TestScaffold_DoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	activity := validActivity("estimate-value")

	_, err := Scaffold(activity, dir)
	require.NoError(t, err)

	_, err = Scaffold(activity, dir)
	assert.ErrorContains(t, err, "config.go")
}

func TestScaffold_RequiresIdentity(t *testing.T) {
	_, err := Scaffold(Activity{DisplayName: "nameless"}, t.TempDir())
	assert.Error(t, err)
}

func TestGoType(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{"string", "string"},
		{"number", "float64"},
		{"integer", "int"},
		{"boolean", "bool"},
		{"object", "map[string]interface{}"},
		{"array", "[]interface{}"},
		{[]interface{}{"number", "null"}, "*float64"},
		{[]interface{}{"null", "string"}, "*string"},
		{[]interface{}{"array", "null"}, "[]interface{}"},
		{nil, "interface{}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, goType(tt.in), "%v", tt.in)
	}
}

func TestGoFieldName(t *testing.T) {
	assert.Equal(t, "SessionID", goFieldName("sessionId"))
	assert.Equal(t, "ImageURL", goFieldName("imageUrl"))
	assert.Equal(t, "AgeYears", goFieldName("age_years"))
	assert.Equal(t, "MaxDistanceKm", goFieldName("maxDistanceKm"))
}
