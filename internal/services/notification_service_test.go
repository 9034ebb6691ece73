package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Tireon003/notification-management-service/internal/models"
	"github.com/Tireon003/notification-management-service/internal/repositories"
	"github.com/Tireon003/notification-management-service/internal/worker"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*NotificationService, *repositories.MemoryNotificationRepository, *worker.MemoryQueue) {
	repo := repositories.NewMemoryNotificationRepository()
	queue := worker.NewMemoryQueue(16)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewNotificationService(repo, queue, log), repo, queue
}

func validInput() CreateNotification {
	return CreateNotification{
		UserID: uuid.New(),
		Title:  "Deployment finished",
		Text:   "The nightly deployment finished without issues",
	}
}

func TestCreateSetsInitialState(t *testing.T) {
	service, _, queue := newTestService()

	notification, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, notification.ID)
	assert.Equal(t, models.StatusPending, notification.ProcessingStatus)
	assert.Nil(t, notification.ReadAt)
	assert.Nil(t, notification.Category)
	assert.Nil(t, notification.Confidence)
	assert.False(t, notification.CreatedAt.IsZero())

	// Exactly one work item is enqueued per creation.
	select {
	case item := <-queue.Items():
		assert.Equal(t, notification.ID, item.NotificationID)
		assert.Equal(t, notification.Text, item.Text)
	default:
		t.Fatal("expected an analysis work item to be enqueued")
	}
	select {
	case <-queue.Items():
		t.Fatal("expected exactly one work item")
	default:
	}
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	service, _, _ := newTestService()
	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 10; i++ {
		notification, err := service.Create(context.Background(), validInput())
		require.NoError(t, err)
		assert.False(t, seen[notification.ID])
		seen[notification.ID] = true
	}
}

func TestCreateValidation(t *testing.T) {
	service, _, queue := newTestService()
	longTitle := make([]byte, 257)
	longText := make([]byte, 513)
	for i := range longTitle {
		longTitle[i] = 'a'
	}
	for i := range longText {
		longText[i] = 'a'
	}

	cases := []struct {
		name  string
		input CreateNotification
	}{
		{"nil user id", CreateNotification{Title: "t", Text: "x"}},
		{"empty title", CreateNotification{UserID: uuid.New(), Text: "x"}},
		{"title too long", CreateNotification{UserID: uuid.New(), Title: string(longTitle), Text: "x"}},
		{"empty text", CreateNotification{UserID: uuid.New(), Title: "t"}},
		{"text too long", CreateNotification{UserID: uuid.New(), Title: "t", Text: string(longText)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), tc.input)
			var validationErr *models.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}

	// Rejected inputs never reach the queue.
	select {
	case <-queue.Items():
		t.Fatal("no work item should be enqueued for invalid input")
	default:
	}
}

func TestGetNotFound(t *testing.T) {
	service, _, _ := newTestService()
	_, err := service.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMarkReadTwice(t *testing.T) {
	service, _, _ := newTestService()
	notification, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	first, err := service.MarkRead(context.Background(), notification.ID)
	require.NoError(t, err)
	require.NotNil(t, first.ReadAt)

	_, err = service.MarkRead(context.Background(), notification.ID)
	assert.ErrorIs(t, err, models.ErrAlreadyRead)

	current, err := service.Get(context.Background(), notification.ID)
	require.NoError(t, err)
	require.NotNil(t, current.ReadAt)
	assert.True(t, current.ReadAt.Equal(*first.ReadAt))
}

func TestMarkReadConcurrent(t *testing.T) {
	service, _, _ := newTestService()
	notification, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.MarkRead(context.Background(), notification.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, models.ErrAlreadyRead)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestMarkReadNotFound(t *testing.T) {
	service, _, _ := newTestService()
	_, err := service.MarkRead(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListOffsetLimit(t *testing.T) {
	service, repo, _ := newTestService()

	// Create three notifications at distinct times, oldest first.
	base := time.Now()
	ids := make([]uuid.UUID, 3)
	for i := 0; i < 3; i++ {
		notification := &models.Notification{
			ID:               uuid.New(),
			UserID:           uuid.New(),
			Title:            "t",
			Text:             "x",
			CreatedAt:        base.Add(time.Duration(i) * time.Minute),
			ProcessingStatus: models.StatusPending,
		}
		require.NoError(t, repo.Create(context.Background(), notification))
		ids[i] = notification.ID
	}

	offset, limit := 1, 1
	page, err := service.List(context.Background(), repositories.Paginator{Offset: &offset, Limit: &limit})
	require.NoError(t, err)
	require.Len(t, page, 1)
	// Second-newest record.
	assert.Equal(t, ids[1], page[0].ID)
}

func TestProcessingStatus(t *testing.T) {
	service, _, _ := newTestService()
	notification, err := service.Create(context.Background(), validInput())
	require.NoError(t, err)

	status, err := service.ProcessingStatus(context.Background(), notification.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, status)

	_, err = service.ProcessingStatus(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRecentSnapshot(t *testing.T) {
	service, repo, _ := newTestService()
	base := time.Now()
	var newestID uuid.UUID
	for i := 0; i < 5; i++ {
		notification := &models.Notification{
			ID:               uuid.New(),
			UserID:           uuid.New(),
			Title:            "t",
			Text:             "x",
			CreatedAt:        base.Add(time.Duration(i) * time.Second),
			ProcessingStatus: models.StatusPending,
		}
		require.NoError(t, repo.Create(context.Background(), notification))
		newestID = notification.ID
	}

	snapshot, err := service.RecentSnapshot(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, snapshot, 3)
	assert.Equal(t, newestID, snapshot[0].ID)
}
