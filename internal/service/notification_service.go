package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tanroads/rrs-api/internal/models"
	"github.com/tanroads/rrs-api/internal/workflow"
	"github.com/tanroads/rrs-api/pkg/config"
	"github.com/tanroads/rrs-api/pkg/jobs"
)

// TransitionEvent is the payload dispatched for every committed
// transition. The queue decouples request latency from delivery.
type TransitionEvent struct {
	ApplicationID     int64
	ApplicationNumber string
	Action            workflow.Action
	Status            models.ApplicationStatus
	OwnerRole         models.UserRole
	ActorName         string
	ActorRole         models.UserRole
	OccurredAt        time.Time
}

// NotificationService fans transition events out to the role queues.
// Delivery is in-process log output; the channel adapters sit behind
// the same queue.
type NotificationService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService builds the dispatcher and its worker pool.
func NewNotificationService(cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{logger: logger}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// ApplicationTransitioned implements the Notifier port. Enqueue
// failures are logged and dropped; notifications never fail a
// transition that already committed.
func (s *NotificationService) ApplicationTransitioned(ctx context.Context, app *models.Application, action workflow.Action, actor models.Actor) {
	number := ""
	if app.ApplicationNumber != nil {
		number = *app.ApplicationNumber
	}
	event := TransitionEvent{
		ApplicationID:     app.ID,
		ApplicationNumber: number,
		Action:            action,
		Status:            app.Status,
		OwnerRole:         app.OwnerRole,
		ActorName:         actor.FullName,
		ActorRole:         actor.Role,
		OccurredAt:        time.Now().UTC(),
	}
	if err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "workflow.transition",
		Payload: event,
	}); err != nil {
		s.logger.Warn("failed to enqueue transition notification",
			zap.Int64("application_id", app.ID),
			zap.Error(err),
		)
	}
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(TransitionEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	s.logger.Info("transition notification",
		zap.Int64("application_id", event.ApplicationID),
		zap.String("application_number", event.ApplicationNumber),
		zap.String("action", string(event.Action)),
		zap.String("status", string(event.Status)),
		zap.String("notify_role", string(event.OwnerRole)),
		zap.String("actor", event.ActorName),
	)
	return nil
}
