package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Tireon003/notification-management-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Paginator carries optional non-negative offset/limit bounds for list queries.
// A nil field means "no bound" on that side.
type Paginator struct {
	Offset *int
	Limit  *int
}

// NotificationRepository defines the interface for notification persistence.
// It performs no business validation; the conditional update methods carry
// the atomicity contract that the service and worker rely on.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetOne(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	GetAll(ctx context.Context, paginator Paginator) ([]models.Notification, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Notification, error)

	// MarkRead sets read_at in a single conditional update. It returns
	// models.ErrAlreadyRead when read_at was already set, so that exactly one
	// of two concurrent calls on the same id succeeds.
	MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) (*models.Notification, error)

	// TransitionStatus moves processing_status from one value to another in a
	// single conditional update. It reports false without error when the row
	// was not in the expected source status.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.ProcessingStatus) (bool, error)

	// CompleteAnalysis writes the completed status together with category and
	// confidence, conditional on the row still being in the processing status.
	CompleteAnalysis(ctx context.Context, id uuid.UUID, category models.Category, confidence float64) (bool, error)
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a GORM-backed NotificationRepository.
func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *postgresNotificationRepository) GetOne(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).First(&notification, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *postgresNotificationRepository) GetAll(ctx context.Context, paginator Paginator) ([]models.Notification, error) {
	var notifications []models.Notification

	query := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Order("created_at DESC, id DESC")
	if paginator.Offset != nil {
		query = query.Offset(*paginator.Offset)
	}
	if paginator.Limit != nil {
		query = query.Limit(*paginator.Limit)
	}

	err := query.Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Notification, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, models.ErrNotFound
	}
	return r.GetOne(ctx, id)
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) (*models.Notification, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", readAt)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Either the row doesn't exist or read_at is already set.
		current, err := r.GetOne(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Read() {
			return nil, models.ErrAlreadyRead
		}
		return nil, models.ErrNotFound
	}
	return r.GetOne(ctx, id)
}

func (r *postgresNotificationRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.ProcessingStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND processing_status = ?", id, from).
		Update("processing_status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *postgresNotificationRepository) CompleteAnalysis(ctx context.Context, id uuid.UUID, category models.Category, confidence float64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND processing_status = ?", id, models.StatusProcessing).
		Updates(map[string]interface{}{
			"processing_status": models.StatusCompleted,
			"category":          category,
			"confidence":        confidence,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
