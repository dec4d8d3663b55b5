// internal/workers/ewaste/schedule-pickup/handler.go
package schedulepickup

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
	"ecycle-workers/internal/pickup"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "schedule-pickup"
)

//go:embed schema.json
var inputSchemaJSON string

var inputSchema = validation.MustCompile(inputSchemaJSON)

// BookingStore persists scheduled pickups.
type BookingStore interface {
	Create(ctx context.Context, b *pickup.Booking) error
}

type Handler struct {
	config       *Config
	store        BookingStore
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, store BookingStore, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
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
	return h.Execute(ctx, &input)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	req := input.Normalize()
	now := h.now()

	if problems := pickup.Validate(req, now); problems != nil {
		metrics.PickupBookings.WithLabelValues("rejected").Inc()
		h.logger.Warn("pickup booking rejected", map[string]interface{}{
			"fields": problems,
		})
		return nil, errors.NewBookingValidationError(problems)
	}

	booking := pickup.NewBooking(uuid.NewString(), req, now)
	if err := h.store.Create(ctx, booking); err != nil {
		metrics.PickupBookings.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.PickupBookings.WithLabelValues("scheduled").Inc()

	h.logger.Info("pickup scheduled", map[string]interface{}{
		"bookingId":  booking.ID,
		"pickupDate": booking.PickupDate,
		"facility":   booking.Facility,
	})

	return &Output{
		BookingID: booking.ID,
		Status:    booking.Status,
		Summary: Summary{
			RecycleItem: booking.RecycleItem,
			PickupDate:  booking.PickupDate,
			PickupTime:  booking.PickupTime,
			Facility:    booking.Facility,
			Address:     booking.Address,
			UserEmail:   booking.UserEmail,
		},
	}, nil
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
