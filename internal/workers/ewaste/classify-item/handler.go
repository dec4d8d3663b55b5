// internal/workers/ewaste/classify-item/handler.go
package classifyitem

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"ecycle-workers/internal/classifier"
	"ecycle-workers/internal/common/errors"
	"ecycle-workers/internal/common/logger"
	"ecycle-workers/internal/common/metrics"
	"ecycle-workers/internal/common/observability"
	"ecycle-workers/internal/common/validation"
	"ecycle-workers/internal/session"
	"ecycle-workers/internal/valuation"
	"ecycle-workers/internal/vision"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "classify-item"
)

//go:embed schema.json
var inputSchemaJSON string

var inputSchema = validation.MustCompile(inputSchemaJSON)

type Handler struct {
	config       *Config
	classifier   *classifier.Classifier
	vision       vision.Classifier
	sessions     *session.Store
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler wires the classifier worker. vision and sessions may be nil when the
// deployment has no image service or session store.
func NewHandler(config *Config, vis vision.Classifier, sessions *session.Store, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		classifier:   classifier.Default(),
		vision:       vis,
		sessions:     sessions,
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

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	output, err := h.ExecuteJSON(ctx, []byte(job.Variables))
	if err != nil {
		stdErr := h.errorHandler.HandleJobError(ctx, client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

// ExecuteJSON validates a raw variables document against the input schema and executes it.
func (h *Handler) ExecuteJSON(ctx context.Context, payload []byte) (*Output, error) {
	if result := inputSchema.ValidateJSON(payload); !result.Valid {
		return nil, errors.NewInputValidationError(result.Summary())
	}

	var input Input
	if err := json.Unmarshal(payload, &input); err != nil {
		return nil, errors.NewInputParseError(err)
	}
	return h.execute(ctx, &input)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	predictions := input.Predictions
	backendCategory := ""
	if input.Category != nil {
		backendCategory = *input.Category
	}
	var speed string

	if predictions == nil {
		switch {
		case input.ImageURL != "":
			res, err := h.fetchPredictions(ctx, input.ImageURL)
			if err != nil {
				return nil, err
			}
			predictions = res.Predictions
			speed = res.Speed
			if backendCategory == "" && res.Category != nil {
				backendCategory = *res.Category
			}
		case backendCategory == "":
			return nil, errors.NewNothingToClassifyError()
		}
	}

	sorted := classifier.SortPredictions(predictions)
	result := h.classifier.Classify(sorted, backendCategory)

	output := &Output{
		Category:   result.Category,
		Title:      result.Definition.Title,
		Suggestion: result.Definition.Suggestion,
		Actions:    result.Definition.Actions,
		Scores:     result.Scores,
		Source:     result.Source,
		Speed:      speed,
	}
	if output.Scores == nil {
		output.Scores = map[classifier.Category]float64{}
	}
	if len(sorted) > 0 {
		output.TopLabel = sorted[0].Label
		output.TopConfidence = sorted[0].Confidence
		prefill := valuation.DescriptorFromLabel(sorted[0].Label)
		output.Prefill = &prefill
	}

	if input.SessionID != "" && h.sessions != nil {
		item := &session.ClassifiedItem{
			Label:    output.TopLabel,
			ImageURL: input.ImageURL,
			Category: string(output.Category),
		}
		if err := h.sessions.SaveClassifiedItem(ctx, input.SessionID, item); err != nil {
			return nil, err
		}
	}

	metrics.ClassificationDecisions.WithLabelValues(string(output.Category), string(output.Source)).Inc()
	h.logger.Info("item classified", map[string]interface{}{
		"category":    output.Category,
		"source":      output.Source,
		"topLabel":    output.TopLabel,
		"predictions": len(sorted),
	})
	return output, nil
}

func (h *Handler) fetchPredictions(ctx context.Context, imageURL string) (*vision.Response, error) {
	if h.vision == nil {
		return nil, errors.NewVisionUnavailableError(fmt.Errorf("no vision service configured"))
	}
	res, err := h.vision.Classify(ctx, imageURL)
	if err != nil {
		h.logger.Warn("vision request failed", map[string]interface{}{
			"imageUrl": imageURL,
			"error":    err,
		})
		return nil, err
	}
	return res, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}
