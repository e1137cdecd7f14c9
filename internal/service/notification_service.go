package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mahfuz-dev/edupanel-api/internal/models"
	appErrors "github.com/mahfuz-dev/edupanel-api/pkg/errors"
	"github.com/mahfuz-dev/edupanel-api/pkg/jobs"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	UnreadCount(ctx context.Context, recipientID string) (int, error)
}

type profileIDLister interface {
	ListIDs(ctx context.Context, role *models.UserRole) ([]string, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}

// SendNotificationRequest is the payload for sending a notification. A nil
// RecipientID broadcasts to every profile, optionally narrowed by Role.
type SendNotificationRequest struct {
	Title       string           `json:"title" validate:"required"`
	Message     string           `json:"message" validate:"required"`
	RecipientID *string          `json:"recipient_id"`
	Role        *models.UserRole `json:"role"`
}

// NotificationServiceConfig tunes delivery behaviour.
type NotificationServiceConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	QueueBuffer       int
	RealtimeEnabled   bool
	ChannelPrefix     string
}

// NotificationService stores notifications and fans broadcasts out through a
// background queue. Stored rows are also published on the realtime channel
// so connected clients see them without polling.
type NotificationService struct {
	repo      notificationRepository
	profiles  profileIDLister
	publisher eventPublisher
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
	config    NotificationServiceConfig
}

// NewNotificationService constructs the notification service. publisher may
// be nil when the realtime stream is disabled.
func NewNotificationService(repo notificationRepository, profiles profileIDLister, publisher eventPublisher, validate *validator.Validate, logger *zap.Logger, config NotificationServiceConfig) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ChannelPrefix == "" {
		config.ChannelPrefix = "edupanel:notify:"
	}

	s := &NotificationService{
		repo:      repo,
		profiles:  profiles,
		publisher: publisher,
		validator: validate,
		logger:    logger,
		config:    config,
	}
	s.queue = jobs.NewQueue("notifications", s.handleDeliver, jobs.QueueConfig{
		Workers:    config.WorkerConcurrency,
		BufferSize: config.QueueBuffer,
		MaxRetries: config.WorkerRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// Send stores a direct notification, or fans a broadcast out through the
// queue. Broadcast delivery is asynchronous; the returned count is the
// number of recipients the fan-out was enqueued for.
func (s *NotificationService) Send(ctx context.Context, senderID string, req SendNotificationRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}

	if req.RecipientID != nil {
		n := &models.Notification{
			SenderID:    senderID,
			RecipientID: req.RecipientID,
			Title:       req.Title,
			Message:     req.Message,
		}
		if err := s.deliver(ctx, n); err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store notification")
		}
		return 1, nil
	}

	ids, err := s.profiles.ListIDs(ctx, req.Role)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve broadcast recipients")
	}

	enqueued := 0
	for _, id := range ids {
		recipient := id
		n := models.Notification{
			SenderID:    senderID,
			RecipientID: &recipient,
			Title:       req.Title,
			Message:     req.Message,
		}
		if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: "notification.deliver", Payload: n}); err != nil {
			s.logger.Warn("broadcast enqueue failed", zap.String("recipient_id", recipient), zap.Error(err))
			continue
		}
		enqueued++
	}
	return enqueued, nil
}

// List returns a recipient's notifications.
func (s *NotificationService) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	notifications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return notifications, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// MarkRead flags one notification as read for the recipient.
func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) error {
	if err := s.repo.MarkRead(ctx, id, recipientID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flags every unread notification for the recipient.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) error {
	if err := s.repo.MarkAllRead(ctx, recipientID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// UnreadCount returns the recipient's unread total.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	count, err := s.repo.UnreadCount(ctx, recipientID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	return count, nil
}

// Channel returns the realtime channel name for a recipient.
func (s *NotificationService) Channel(recipientID string) string {
	return s.config.ChannelPrefix + recipientID
}

func (s *NotificationService) handleDeliver(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	return s.deliver(ctx, &n)
}

func (s *NotificationService) deliver(ctx context.Context, n *models.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.publish(ctx, n)
	return nil
}

func (s *NotificationService) publish(ctx context.Context, n *models.Notification) {
	if !s.config.RealtimeEnabled || s.publisher == nil || n.RecipientID == nil {
		return
	}
	event := models.NotificationEvent{
		ID:          n.ID,
		Title:       n.Title,
		Message:     n.Message,
		RecipientID: n.RecipientID,
		CreatedAt:   n.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, s.Channel(*n.RecipientID), event); err != nil {
		s.logger.Warn("realtime publish failed", zap.String("notification_id", n.ID), zap.Error(err))
	}
}
