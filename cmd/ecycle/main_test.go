// cmd/ecycle/main_test.go
package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"ecycle-workers/pkg/registry"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func findCmd(root *cobra.Command, path ...string) *cobra.Command {
	cmd, _, err := root.Find(path)
	if err != nil {
		return nil
	}
	return cmd
}

// ==========================
// Command Tree
// ==========================

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	for _, path := range [][]string{
		{"estimate"},
		{"classify"},
		{"registry", "validate"},
		{"registry", "list"},
		{"registry", "add"},
		{"registry", "update"},
		{"registry", "scaffold"},
		{"facilities", "seed"},
		{"facilities", "nearest"},
		{"version"},
	} {
		cmd := findCmd(root, path...)
		require.NotNil(t, cmd, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	flag := findCmd(root, "classify").Flag("vision-timeout")
	require.NotNil(t, flag)
	assert.Equal(t, "15s", flag.DefValue)
}

// ==========================
// estimate
// ==========================

func TestEstimateCmd_JSON(t *testing.T) {
	out, err := runCmd(t, `{"items":[{"category":"laptop","condition":"working","age_years":0,"brand":"Dell","quantity":1}]}`, "estimate")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, float64(38808), decoded["total_min_value"])
	assert.Equal(t, float64(49392), decoded["total_max_value"])
}

func TestEstimateCmd_Table(t *testing.T) {
	out, err := runCmd(t, `{"items":[{"category":"phone","condition":"working","age_years":1,"brand":"Samsung","quantity":2}]}`, "estimate", "--table")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "SUGGESTION")
	assert.Contains(t, lines[1], "phone")
	assert.Contains(t, lines[1], "samsung")
	assert.True(t, strings.HasPrefix(lines[2], "TOTAL"))
}

func TestEstimateCmd_InvalidInput(t *testing.T) {
	_, err := runCmd(t, `{"items":"laptop"}`, "estimate")
	assert.ErrorContains(t, err, "INPUT_VALIDATION_FAILED")

	_, err = runCmd(t, "", "estimate", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "missing.json")
}

// ==========================
// classify
// ==========================

func TestClassifyCmd(t *testing.T) {
	out, err := runCmd(t, `{"predictions":[{"label":"lithium battery","confidence":0.8}]}`, "classify")
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "hazardous", decoded["category"])
	assert.Equal(t, "lithium battery", decoded["topLabel"])
}

func TestClassifyCmd_UsesVisionService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/classify", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predictions":[{"label":"old smartphone","confidence":0.9}],"speed":"12ms","category":null}`))
	}))
	defer server.Close()

	out, err := runCmd(t, `{"imageUrl":"http://img/phone.jpg"}`, "classify", "--vision-url", server.URL)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "old smartphone", decoded["topLabel"])
	assert.Equal(t, "12ms", decoded["speed"])
}

func TestClassifyCmd_ImageWithoutVision(t *testing.T) {
	_, err := runCmd(t, `{"imageUrl":"http://img/phone.jpg"}`, "classify")
	assert.ErrorContains(t, err, "VISION_SERVICE_UNAVAILABLE")
}

// ==========================
// registry
// ==========================

func TestRegistryValidateCmd_BundledRegistry(t *testing.T) {
	out, err := runCmd(t, "", "registry", "validate", "--path", "../../configs/activity-registry.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 4 activities")
}

func TestRegistryAddUpdateCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	_, err := runCmd(t, "", "registry", "add", "--path", path, "--id", "classify-item", "--display-name", "Classify Item")
	require.NoError(t, err)

	_, err = runCmd(t, "", "registry", "update", "--path", path, "--id", "classify-item", "--field", "status", "--value", "completed")
	require.NoError(t, err)

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	a, ok := reg.Find("classify-item")
	require.True(t, ok)
	assert.Equal(t, "classify-item", a.TaskType)
	assert.Equal(t, registry.StatusCompleted, a.ImplementationStatus)

	// only one of the implemented task types is registered
	_, err = runCmd(t, "", "registry", "validate", "--path", path)
	assert.ErrorContains(t, err, "not registered")
}

func TestRegistryScaffoldCmd(t *testing.T) {
	out, err := runCmd(t, "", "registry", "scaffold", "--path", "../../configs/activity-registry.json",
		"--id", "classify-item", "--out", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 5, strings.Count(out, "✓ Generated"))
	assert.Contains(t, out, "workers.classify-item")

	_, err = runCmd(t, "", "registry", "scaffold", "--path", "../../configs/activity-registry.json", "--id", "nope")
	assert.ErrorContains(t, err, "not found")
}

// ==========================
// facilities
// ==========================

func TestFacilitiesNearestCmd(t *testing.T) {
	out, err := runCmd(t, "", "facilities", "nearest", "--file", "../../configs/facilities.json", "--limit", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "VERIFIED")
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}
