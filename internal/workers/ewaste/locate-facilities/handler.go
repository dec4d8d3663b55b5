// internal/workers/ewaste/locate-facilities/handler.go
package locatefacilities

import (
	"context"
	_ "embed"
	"encoding/json"
	"time"

	"ecycle-workers/internal/common/errors"
	"ecycle-workers/internal/common/logger"
	"ecycle-workers/internal/common/metrics"
	"ecycle-workers/internal/common/observability"
	"ecycle-workers/internal/common/validation"
	"ecycle-workers/internal/facility"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "locate-facilities"

	cacheKey = "facilities:all"
)

//go:embed schema.json
var inputSchemaJSON string

var inputSchema = validation.MustCompile(inputSchemaJSON)

// FacilitySource lists every known facility.
type FacilitySource interface {
	List(ctx context.Context) ([]facility.Facility, error)
}

type Handler struct {
	config       *Config
	source       FacilitySource
	redis        redis.Cmdable
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, source FacilitySource, rdb redis.Cmdable, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		source:       source,
		redis:        rdb,
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
	origin := facility.DefaultOrigin
	if input.Lon != nil && input.Lat != nil {
		origin = facility.Point{Lon: *input.Lon, Lat: *input.Lat}
	}

	filter := facility.Filter{
		VerifiedOnly:  input.VerifiedOnly,
		MaxDistanceKm: input.MaxDistanceKm,
		Limit:         h.config.DefaultLimit,
	}
	if input.Limit != nil && *input.Limit > 0 {
		filter.Limit = *input.Limit
	}

	all, err := h.facilities(ctx)
	if err != nil {
		return nil, err
	}

	nearest := facility.Nearest(all, origin, filter)
	h.logger.Info("facilities located", map[string]interface{}{
		"origin":       origin,
		"verifiedOnly": filter.VerifiedOnly,
		"count":        len(nearest),
	})

	return &Output{
		Origin:     origin,
		Facilities: nearest,
		Count:      len(nearest),
	}, nil
}

// facilities reads the full list through the Redis cache. Cache errors fall
// through to the database.
func (h *Handler) facilities(ctx context.Context) ([]facility.Facility, error) {
	if h.redis != nil {
		data, err := h.redis.Get(ctx, cacheKey).Bytes()
		switch {
		case err == nil:
			var cached []facility.Facility
			if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
				metrics.FacilityCacheLookups.WithLabelValues("hit").Inc()
				return cached, nil
			}
			metrics.FacilityCacheLookups.WithLabelValues("corrupt").Inc()
		case err == redis.Nil:
			metrics.FacilityCacheLookups.WithLabelValues("miss").Inc()
		default:
			metrics.FacilityCacheLookups.WithLabelValues("error").Inc()
			h.logger.Warn("facility cache read failed", map[string]interface{}{"error": err})
		}
	}

	all, err := h.source.List(ctx)
	if err != nil {
		return nil, err
	}

	if h.redis != nil {
		if data, err := json.Marshal(all); err == nil {
			if err := h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL).Err(); err != nil {
				h.logger.Warn("facility cache write failed", map[string]interface{}{"error": err})
			}
		}
	}
	return all, nil
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
