// pkg/registry/scaffold.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
)

const modulePath = "ecycle-workers"

// WorkerData is the template context for a generated worker package.
type WorkerData struct {
	Name         string
	PackageName  string
	Dir          string
	TaskType     string
	Description  string
	Timeout      string
	InputFields  []Field
	OutputFields []Field
	ModulePath   string
}

// Field is one generated struct field.
type Field struct {
	GoName   string
	GoType   string
	JSONName string
}

// Scaffold writes a worker package for activity under baseDir/<category>/<id>
// and returns the files it created. Existing files are never overwritten.
func Scaffold(activity Activity, baseDir string) ([]string, error) {
	if activity.ID == "" || activity.TaskType == "" {
		return nil, fmt.Errorf("activity needs an ID and a task type")
	}

	data := WorkerData{
		Name:         activity.DisplayName,
		PackageName:  strings.NewReplacer("-", "", "_", "").Replace(activity.ID),
		Dir:          filepath.ToSlash(filepath.Join(strings.ToLower(activity.Category), activity.ID)),
		TaskType:     activity.TaskType,
		Description:  activity.Description,
		Timeout:      activity.Timeout,
		InputFields:  schemaFields(activity.InputSchema),
		OutputFields: schemaFields(activity.OutputSchema),
		ModulePath:   modulePath,
	}
	if data.Timeout == "" {
		data.Timeout = "10s"
	}

	schema, err := inputSchemaDocument(activity.InputSchema)
	if err != nil {
		return nil, err
	}

	workerDir := filepath.Join(baseDir, filepath.FromSlash(data.Dir))
	if err := os.MkdirAll(workerDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	files := map[string]string{
		"config.go":       configTemplate,
		"models.go":       modelsTemplate,
		"handler.go":      handlerTemplate,
		"handler_test.go": testTemplate,
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var created []string
	for _, name := range names {
		tmpl, err := template.New(name).Parse(files[name])
		if err != nil {
			return created, fmt.Errorf("parse template %s: %w", name, err)
		}
		path := filepath.Join(workerDir, name)
		if err := writeNew(path, func(f *os.File) error { return tmpl.Execute(f, data) }); err != nil {
			return created, err
		}
		created = append(created, path)
	}

	schemaPath := filepath.Join(workerDir, "schema.json")
	if err := writeNew(schemaPath, func(f *os.File) error { _, err := f.Write(schema); return err }); err != nil {
		return created, err
	}
	return append(created, schemaPath), nil
}

func writeNew(path string, write func(*os.File) error) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func inputSchemaDocument(schema map[string]interface{}) ([]byte, error) {
	doc := map[string]interface{}{"type": "object"}
	for k, v := range schema {
		doc[k] = v
	}
	doc["$schema"] = "http://json-schema.org/draft-07/schema#"
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal input schema: %w", err)
	}
	return append(out, '\n'), nil
}

// schemaFields lists the schema's properties sorted by name.
func schemaFields(schema map[string]interface{}) []Field {
	props, _ := schema["properties"].(map[string]interface{})
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		details, _ := props[name].(map[string]interface{})
		fields = append(fields, Field{
			GoName:   goFieldName(name),
			GoType:   goType(details["type"]),
			JSONName: name,
		})
	}
	return fields
}

// goType maps a JSON schema type to a Go type. ["T", "null"] becomes a pointer.
func goType(jsonType interface{}) string {
	nullable := false
	if list, ok := jsonType.([]interface{}); ok {
		jsonType = nil
		for _, t := range list {
			if t == "null" {
				nullable = true
			} else if jsonType == nil {
				jsonType = t
			}
		}
	}

	var base string
	switch jsonType {
	case "string":
		base = "string"
	case "number":
		base = "float64"
	case "integer":
		base = "int"
	case "boolean":
		base = "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
	if nullable {
		return "*" + base
	}
	return base
}

func goFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(strings.ToUpper(p[:1]) + p[1:])
	}
	out := b.String()
	for _, suffix := range []string{"Id", "Url"} {
		if strings.HasSuffix(out, suffix) {
			out = strings.TrimSuffix(out, suffix) + strings.ToUpper(suffix)
		}
	}
	return out
}

const configTemplate = `// internal/workers/{{ .Dir }}/config.go
package {{ .PackageName }}

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	timeout, _ := time.ParseDuration("{{ .Timeout }}")
	return &Config{
		Timeout: timeout,
	}
}
`

const modelsTemplate = `// internal/workers/{{ .Dir }}/models.go
package {{ .PackageName }}

type Input struct {
{{- range .InputFields }}
	{{ .GoName }} {{ .GoType }} ` + "`json:\"{{ .JSONName }},omitempty\"`" + `
{{- end }}
}

type Output struct {
{{- range .OutputFields }}
	{{ .GoName }} {{ .GoType }} ` + "`json:\"{{ .JSONName }}\"`" + `
{{- end }}
}
`

const handlerTemplate = `// internal/workers/{{ .Dir }}/handler.go
package {{ .PackageName }}

import (
	"context"
	_ "embed"
	"encoding/json"
	"time"

	"{{ .ModulePath }}/internal/common/errors"
	"{{ .ModulePath }}/internal/common/logger"
	"{{ .ModulePath }}/internal/common/metrics"
	"{{ .ModulePath }}/internal/common/observability"
	"{{ .ModulePath }}/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

const TaskType = "{{ .TaskType }}"

//go:embed schema.json
var inputSchemaJSON string

var inputSchema = validation.MustCompile(inputSchemaJSON)

// Handler serves {{ .Name }} jobs.{{ if .Description }} {{ .Description }}{{ end }}
type Handler struct {
	config       *Config
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := h.obs.StartSpan(ctx, TaskType, attribute.Int64("job.key", job.Key))
	defer span.End()

	output, err := h.ExecuteJSON(ctx, []byte(job.Variables))
	if err != nil {
		stdErr := h.errorHandler.HandleJobError(ctx, client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

func (h *Handler) ExecuteJSON(ctx context.Context, payload []byte) (*Output, error) {
	if result := inputSchema.ValidateJSON(payload); !result.Valid {
		return nil, errors.NewInputValidationError(result.Summary())
	}
	var input Input
	if err := json.Unmarshal(payload, &input); err != nil {
		return nil, errors.NewInputParseError(err)
	}
	return h.Execute(ctx, &input)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	// TODO: implement {{ .Name }}
	return &Output{}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
	}
}
`

const testTemplate = `// internal/workers/{{ .Dir }}/handler_test.go
package {{ .PackageName }}

import (
	"context"
	"testing"

	"{{ .ModulePath }}/internal/common/errors"
	"{{ .ModulePath }}/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	h := NewHandler(LoadConfig(), nil, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestExecuteJSON_RejectsNonObject(t *testing.T) {
	h := NewHandler(LoadConfig(), nil, logger.NewTestLogger(t))

	_, err := h.ExecuteJSON(context.Background(), []byte(` + "`[]`" + `))

	assert.Equal(t, errors.ErrCodeInputValidationFailed, errors.AsStandardError(err).Code)
}
`
