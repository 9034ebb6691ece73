// Package services owns the notification lifecycle: creation with analysis
// scheduling, the at-most-once read transition and consistent snapshots for
// the query and streaming surfaces.
package services

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/Tireon003/notification-management-service/internal/models"
	"github.com/Tireon003/notification-management-service/internal/repositories"
	"github.com/Tireon003/notification-management-service/internal/worker"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	maxTitleLength = 256
	maxTextLength  = 512
)

// CreateNotification carries the accepted inputs of the create operation.
type CreateNotification struct {
	UserID uuid.UUID
	Title  string
	Text   string
}

// NotificationService orchestrates repository calls and analysis scheduling.
type NotificationService struct {
	repository repositories.NotificationRepository
	queue      worker.Queue
	log        *logrus.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	repository repositories.NotificationRepository,
	queue worker.Queue,
	log *logrus.Logger,
) *NotificationService {
	return &NotificationService{
		repository: repository,
		queue:      queue,
		log:        log,
	}
}

// Create validates the input, persists a pending notification and enqueues
// exactly one analysis work item for it.
func (s *NotificationService) Create(ctx context.Context, data CreateNotification) (*models.Notification, error) {
	if err := validate(data); err != nil {
		return nil, err
	}

	notification := &models.Notification{
		ID:               uuid.New(),
		UserID:           data.UserID,
		Title:            data.Title,
		Text:             data.Text,
		CreatedAt:        time.Now(),
		ProcessingStatus: models.StatusPending,
	}
	if err := s.repository.Create(ctx, notification); err != nil {
		return nil, err
	}

	err := s.queue.Enqueue(worker.Item{
		NotificationID: notification.ID,
		Text:           notification.Text,
	})
	if err != nil {
		// The notification exists but stays pending; analysis can be picked up
		// again by resubmitting the work item.
		s.log.WithError(err).WithField("notification_id", notification.ID).
			Warn("could not enqueue analysis work item")
	}

	return notification, nil
}

// Get returns the current snapshot of a notification.
func (s *NotificationService) Get(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	return s.repository.GetOne(ctx, id)
}

// List returns notifications ordered newest first, bounded by the paginator.
func (s *NotificationService) List(ctx context.Context, paginator repositories.Paginator) ([]models.Notification, error) {
	return s.repository.GetAll(ctx, paginator)
}

// MarkRead sets read_at exactly once. A second call on the same notification
// returns models.ErrAlreadyRead; under concurrent calls exactly one wins.
func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	return s.repository.MarkRead(ctx, id, time.Now())
}

// ProcessingStatus returns the current analysis pipeline stage.
func (s *NotificationService) ProcessingStatus(ctx context.Context, id uuid.UUID) (models.ProcessingStatus, error) {
	notification, err := s.repository.GetOne(ctx, id)
	if err != nil {
		return "", err
	}
	return notification.ProcessingStatus, nil
}

// RecentSnapshot returns the newest notifications for the streaming
// projection, bounded by limit.
func (s *NotificationService) RecentSnapshot(ctx context.Context, limit int) ([]models.Notification, error) {
	return s.repository.GetAll(ctx, repositories.Paginator{Limit: &limit})
}

func validate(data CreateNotification) error {
	if data.UserID == uuid.Nil {
		return &models.ValidationError{Field: "user_id", Message: "must be a non-nil UUID"}
	}
	if data.Title == "" {
		return &models.ValidationError{Field: "title", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(data.Title) > maxTitleLength {
		return &models.ValidationError{Field: "title", Message: "must be at most 256 characters"}
	}
	if data.Text == "" {
		return &models.ValidationError{Field: "text", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(data.Text) > maxTextLength {
		return &models.ValidationError{Field: "text", Message: "must be at most 512 characters"}
	}
	return nil
}
