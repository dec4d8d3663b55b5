// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func validActivity(id string) Activity {
	return Activity{
		ID:                   id,
		DisplayName:          "Activity " + id,
		Category:             "ewaste",
		TaskType:             id,
		ImplementationStatus: StatusCompleted,
		Timeout:              "10s",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"sessionId": map[string]interface{}{"type": "string"}},
		},
	}
}

// ==========================
// Bundled Registry
// ==========================

func TestBundledRegistry(t *testing.T) {
	reg, err := LoadRegistry("../../configs/activity-registry.json")
	require.NoError(t, err)

	assert.NoError(t, reg.Validate("classify-item", "estimate-value", "locate-facilities", "schedule-pickup"))
	assert.Equal(t, []string{"classify-item", "estimate-value", "locate-facilities", "schedule-pickup"}, reg.TaskTypes())
}

// ==========================
// Load / Save
// ==========================

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.json")
	reg := &ActivityRegistry{Version: "1.0.0"}
	require.NoError(t, reg.Add(validActivity("estimate-value"), fixedNow))

	require.NoError(t, SaveRegistry(reg, path))
	loaded, err := LoadRegistry(path)

	require.NoError(t, err)
	assert.Equal(t, reg, loaded)
	assert.Equal(t, "2026-10-19T09:30:00Z", loaded.LastUpdated)
}

func TestLoadRegistry_Errors(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))

	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{"), 0o644))
	_, err = LoadRegistry(broken)
	assert.ErrorContains(t, err, "parse registry")
}

// ==========================
// Add / Update
// ==========================

func TestAdd_RejectsDuplicate(t *testing.T) {
	reg := &ActivityRegistry{}
	require.NoError(t, reg.Add(validActivity("classify-item"), fixedNow))

	err := reg.Add(validActivity("classify-item"), fixedNow)
	assert.ErrorContains(t, err, "already exists")
	assert.Len(t, reg.Activities, 1)
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		wantErr string
		check   func(t *testing.T, a *Activity)
	}{
		{name: "status", field: "status", value: StatusVerified, check: func(t *testing.T, a *Activity) {
			assert.Equal(t, StatusVerified, a.ImplementationStatus)
		}},
		{name: "retries", field: "retries", value: "4", check: func(t *testing.T, a *Activity) {
			assert.Equal(t, 4, a.Retries)
		}},
		{name: "timeout", field: "timeout", value: "45s", check: func(t *testing.T, a *Activity) {
			assert.Equal(t, "45s", a.Timeout)
		}},
		{name: "bad status", field: "status", value: "done", wantErr: "invalid status"},
		{name: "bad retries", field: "retries", value: "-1", wantErr: "invalid retries"},
		{name: "bad timeout", field: "timeout", value: "soon", wantErr: "invalid timeout"},
		{name: "unknown field", field: "owner", value: "x", wantErr: "unknown field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &ActivityRegistry{Activities: []Activity{validActivity("locate-facilities")}}

			err := reg.Update("locate-facilities", tt.field, tt.value, fixedNow)

			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				assert.Empty(t, reg.LastUpdated)
				return
			}
			require.NoError(t, err)
			a, _ := reg.Find("locate-facilities")
			tt.check(t, a)
			assert.Equal(t, "2026-10-19T09:30:00Z", reg.LastUpdated)
		})
	}
}

func TestUpdate_UnknownActivity(t *testing.T) {
	reg := &ActivityRegistry{}
	assert.ErrorContains(t, reg.Update("nope", "status", StatusPlanned, fixedNow), "not found")
}

// ==========================
// Validate
// ==========================

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(r *ActivityRegistry)
		implemented []string
		wantErr     string
	}{
		{name: "valid", mutate: func(r *ActivityRegistry) {}},
		{name: "empty", mutate: func(r *ActivityRegistry) { r.Activities = nil }, wantErr: "no activities"},
		{name: "missing id", mutate: func(r *ActivityRegistry) { r.Activities[0].ID = "" }, wantErr: "field: ID"},
		{name: "duplicate id", mutate: func(r *ActivityRegistry) {
			r.Activities[1].ID = r.Activities[0].ID
		}, wantErr: "duplicate activity ID"},
		{name: "duplicate task type", mutate: func(r *ActivityRegistry) {
			r.Activities[1].TaskType = r.Activities[0].TaskType
		}, wantErr: "duplicate task type"},
		{name: "missing category", mutate: func(r *ActivityRegistry) { r.Activities[0].Category = "" }, wantErr: "Category"},
		{name: "bad status", mutate: func(r *ActivityRegistry) { r.Activities[0].ImplementationStatus = "done" }, wantErr: "invalid status"},
		{name: "bad timeout", mutate: func(r *ActivityRegistry) { r.Activities[0].Timeout = "ten" }, wantErr: "invalid timeout"},
		{name: "schema does not compile", mutate: func(r *ActivityRegistry) {
			r.Activities[0].InputSchema = map[string]interface{}{"type": 42}
		}, wantErr: "input schema"},
		{name: "implemented but unregistered", mutate: func(r *ActivityRegistry) {}, implemented: []string{"a", "c"}, wantErr: "c is implemented but not registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &ActivityRegistry{Activities: []Activity{validActivity("a"), validActivity("b")}}
			tt.mutate(reg)

			err := reg.Validate(tt.implemented...)

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
