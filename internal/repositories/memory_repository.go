package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Tireon003/notification-management-service/internal/models"
	"github.com/google/uuid"
)

// MemoryNotificationRepository is an in-memory NotificationRepository. It is
// the reference implementation used by the test suite and by deployments that
// run without an external store. Stored records are never aliased: every read
// returns a copy and every write replaces fields explicitly.
type MemoryNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[uuid.UUID]models.Notification
}

// NewMemoryNotificationRepository creates an empty in-memory repository.
func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{
		notifications: make(map[uuid.UUID]models.Notification),
	}
}

func (r *MemoryNotificationRepository) Create(_ context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications[notification.ID] = copyNotification(*notification)
	return nil
}

func (r *MemoryNotificationRepository) GetOne(_ context.Context, id uuid.UUID) (*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.notifications[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	result := copyNotification(stored)
	return &result, nil
}

func (r *MemoryNotificationRepository) GetAll(_ context.Context, paginator Paginator) ([]models.Notification, error) {
	r.mu.RLock()
	all := make([]models.Notification, 0, len(r.notifications))
	for _, stored := range r.notifications {
		all = append(all, copyNotification(stored))
	}
	r.mu.RUnlock()

	// Newest first; id as a deterministic tie-break at equal timestamps.
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID.String() > all[j].ID.String()
	})

	if paginator.Offset != nil {
		if *paginator.Offset >= len(all) {
			return []models.Notification{}, nil
		}
		all = all[*paginator.Offset:]
	}
	if paginator.Limit != nil && *paginator.Limit < len(all) {
		all = all[:*paginator.Limit]
	}
	return all, nil
}

func (r *MemoryNotificationRepository) Update(_ context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.notifications[id]
	if !ok {
		return nil, models.ErrNotFound
	}

	for name, value := range fields {
		switch name {
		case "title":
			stored.Title = value.(string)
		case "text":
			stored.Text = value.(string)
		case "read_at":
			stored.ReadAt = toTimePtr(value)
		case "category":
			category := value.(models.Category)
			stored.Category = &category
		case "confidence":
			confidence := value.(float64)
			stored.Confidence = &confidence
		case "processing_status":
			stored.ProcessingStatus = value.(models.ProcessingStatus)
		}
	}

	r.notifications[id] = stored
	result := copyNotification(stored)
	return &result, nil
}

func (r *MemoryNotificationRepository) MarkRead(_ context.Context, id uuid.UUID, readAt time.Time) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.notifications[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if stored.ReadAt != nil {
		return nil, models.ErrAlreadyRead
	}
	stored.ReadAt = &readAt
	r.notifications[id] = stored
	result := copyNotification(stored)
	return &result, nil
}

func (r *MemoryNotificationRepository) TransitionStatus(_ context.Context, id uuid.UUID, from, to models.ProcessingStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.notifications[id]
	if !ok || stored.ProcessingStatus != from {
		return false, nil
	}
	stored.ProcessingStatus = to
	r.notifications[id] = stored
	return true, nil
}

func (r *MemoryNotificationRepository) CompleteAnalysis(_ context.Context, id uuid.UUID, category models.Category, confidence float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.notifications[id]
	if !ok || stored.ProcessingStatus != models.StatusProcessing {
		return false, nil
	}
	stored.ProcessingStatus = models.StatusCompleted
	stored.Category = &category
	stored.Confidence = &confidence
	r.notifications[id] = stored
	return true, nil
}

// copyNotification deep-copies the nullable fields so callers never share
// pointers with the store.
func copyNotification(n models.Notification) models.Notification {
	if n.ReadAt != nil {
		readAt := *n.ReadAt
		n.ReadAt = &readAt
	}
	if n.Category != nil {
		category := *n.Category
		n.Category = &category
	}
	if n.Confidence != nil {
		confidence := *n.Confidence
		n.Confidence = &confidence
	}
	return n
}

func toTimePtr(value interface{}) *time.Time {
	switch v := value.(type) {
	case time.Time:
		return &v
	case *time.Time:
		return v
	default:
		return nil
	}
}
