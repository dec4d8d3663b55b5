// internal/workers/ewaste/estimate-value/handler.go
package estimatevalue

import (
	"context"
	_ "embed"
	"encoding/json"
	stderrors "errors"
	"time"

	"ecycle-workers/internal/common/errors"
	"ecycle-workers/internal/common/logger"
	"ecycle-workers/internal/common/metrics"
	"ecycle-workers/internal/common/observability"
	"ecycle-workers/internal/common/validation"
	"ecycle-workers/internal/session"
	"ecycle-workers/internal/valuation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "estimate-value"
)

//go:embed schema.json
var inputSchemaJSON string

var inputSchema = validation.MustCompile(inputSchemaJSON)

type Handler struct {
	config       *Config
	estimator    *valuation.Estimator
	sessions     *session.Store
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, sessions *session.Store, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		estimator:    valuation.Default(),
		sessions:     sessions,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
		now:          time.Now,
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
	items := input.Items
	prefilled := false
	var label, imageURL string

	if len(items) == 0 && input.FromClassifier && input.SessionID != "" && h.sessions != nil {
		item, err := h.sessions.TakeClassifiedItem(ctx, input.SessionID)
		switch {
		case err == nil:
			items = []valuation.Descriptor{valuation.DescriptorFromLabel(item.Label)}
			prefilled = true
			label, imageURL = item.Label, item.ImageURL
		case stderrors.Is(err, session.ErrNotFound):
			h.logger.Debug("no classified item to prefill from", map[string]interface{}{
				"sessionId": input.SessionID,
			})
		default:
			return nil, err
		}
	}

	result := h.estimator.Estimate(items)
	output := &Output{
		EstimateID: uuid.NewString(),
		Result:     result,
		Prefilled:  prefilled,
		Listing:    valuation.NewListingPrefill(label, imageURL, result),
	}

	if input.SessionID != "" && h.sessions != nil {
		saved := &session.Estimate{
			EstimateID: output.EstimateID,
			Items:      items,
			Result:     &result,
			SavedAt:    h.now().UTC(),
		}
		if err := h.sessions.SaveEstimate(ctx, input.SessionID, saved); err != nil {
			return nil, err
		}
		if output.Listing != nil {
			if err := h.sessions.SaveListing(ctx, input.SessionID, output.Listing); err != nil {
				return nil, err
			}
		}
	}

	for _, item := range result.Items {
		metrics.EstimatedItems.WithLabelValues(string(item.Category), item.Suggestion.Type).Inc()
	}
	metrics.EstimateTotalValue.Observe(float64(result.TotalMaxValue))

	h.logger.Info("estimate calculated", map[string]interface{}{
		"estimateId":    output.EstimateID,
		"items":         len(result.Items),
		"totalMinValue": result.TotalMinValue,
		"totalMaxValue": result.TotalMaxValue,
		"prefilled":     prefilled,
	})
	return output, nil
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
