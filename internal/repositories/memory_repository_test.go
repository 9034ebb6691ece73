package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Tireon003/notification-management-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredNotification(t *testing.T, repo *MemoryNotificationRepository, createdAt time.Time) *models.Notification {
	t.Helper()
	notification := &models.Notification{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		Title:            "title",
		Text:             "text",
		CreatedAt:        createdAt,
		ProcessingStatus: models.StatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), notification))
	return notification
}

func TestMemoryRepositoryGetOne(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	stored := newStoredNotification(t, repo, time.Now())

	found, err := repo.GetOne(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, found.ID)
	assert.Equal(t, models.StatusPending, found.ProcessingStatus)

	_, err = repo.GetOne(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryRepositoryGetAllOrdering(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	base := time.Now()

	oldest := newStoredNotification(t, repo, base.Add(-2*time.Hour))
	middle := newStoredNotification(t, repo, base.Add(-time.Hour))
	newest := newStoredNotification(t, repo, base)

	all, err := repo.GetAll(context.Background(), Paginator{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newest.ID, all[0].ID)
	assert.Equal(t, middle.ID, all[1].ID)
	assert.Equal(t, oldest.ID, all[2].ID)
}

func TestMemoryRepositoryGetAllOffsetLimit(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	base := time.Now()

	newStoredNotification(t, repo, base.Add(-2*time.Hour))
	middle := newStoredNotification(t, repo, base.Add(-time.Hour))
	newStoredNotification(t, repo, base)

	offset, limit := 1, 1
	page, err := repo.GetAll(context.Background(), Paginator{Offset: &offset, Limit: &limit})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, middle.ID, page[0].ID)

	farOffset := 10
	empty, err := repo.GetAll(context.Background(), Paginator{Offset: &farOffset})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryRepositoryDeterministicTieBreak(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	createdAt := time.Now()
	for i := 0; i < 5; i++ {
		newStoredNotification(t, repo, createdAt)
	}

	first, err := repo.GetAll(context.Background(), Paginator{})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := repo.GetAll(context.Background(), Paginator{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMemoryRepositoryMarkRead(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	stored := newStoredNotification(t, repo, time.Now())

	readAt := time.Now()
	updated, err := repo.MarkRead(context.Background(), stored.ID, readAt)
	require.NoError(t, err)
	require.NotNil(t, updated.ReadAt)
	assert.True(t, updated.ReadAt.Equal(readAt))

	_, err = repo.MarkRead(context.Background(), stored.ID, time.Now())
	assert.ErrorIs(t, err, models.ErrAlreadyRead)

	// read_at keeps the first call's value
	current, err := repo.GetOne(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.True(t, current.ReadAt.Equal(readAt))

	_, err = repo.MarkRead(context.Background(), uuid.New(), time.Now())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryRepositoryConcurrentMarkRead(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	stored := newStoredNotification(t, repo, time.Now())

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.MarkRead(context.Background(), stored.ID, time.Now())
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

func TestMemoryRepositoryTransitionStatus(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	stored := newStoredNotification(t, repo, time.Now())
	ctx := context.Background()

	moved, err := repo.TransitionStatus(ctx, stored.ID, models.StatusPending, models.StatusProcessing)
	require.NoError(t, err)
	assert.True(t, moved)

	// A second pending->processing transition must not match.
	moved, err = repo.TransitionStatus(ctx, stored.ID, models.StatusPending, models.StatusProcessing)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = repo.TransitionStatus(ctx, stored.ID, models.StatusProcessing, models.StatusFailed)
	require.NoError(t, err)
	assert.True(t, moved)

	// A redelivered pending->processing transition no longer matches.
	moved, err = repo.TransitionStatus(ctx, stored.ID, models.StatusPending, models.StatusProcessing)
	require.NoError(t, err)
	assert.False(t, moved)

	current, err := repo.GetOne(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, current.ProcessingStatus)
}

func TestMemoryRepositoryCompleteAnalysis(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	stored := newStoredNotification(t, repo, time.Now())
	ctx := context.Background()

	// Completing a pending notification must not match: processing comes first.
	done, err := repo.CompleteAnalysis(ctx, stored.ID, models.CategoryInfo, 0.9)
	require.NoError(t, err)
	assert.False(t, done)

	_, err = repo.TransitionStatus(ctx, stored.ID, models.StatusPending, models.StatusProcessing)
	require.NoError(t, err)

	done, err = repo.CompleteAnalysis(ctx, stored.ID, models.CategoryCritical, 0.85)
	require.NoError(t, err)
	assert.True(t, done)

	current, err := repo.GetOne(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, current.ProcessingStatus)
	require.NotNil(t, current.Category)
	assert.Equal(t, models.CategoryCritical, *current.Category)
	require.NotNil(t, current.Confidence)
	assert.Equal(t, 0.85, *current.Confidence)

	// Re-completing an already completed notification is a no-op.
	done, err = repo.CompleteAnalysis(ctx, stored.ID, models.CategoryInfo, 0.5)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestMemoryRepositoryUpdateFields(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	stored := newStoredNotification(t, repo, time.Now())
	ctx := context.Background()

	updated, err := repo.Update(ctx, stored.ID, map[string]interface{}{
		"processing_status": models.StatusProcessing,
		"title":             "new title",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, updated.ProcessingStatus)
	assert.Equal(t, "new title", updated.Title)

	_, err = repo.Update(ctx, uuid.New(), map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryNotificationRepository()
	stored := newStoredNotification(t, repo, time.Now())
	ctx := context.Background()

	first, err := repo.GetOne(ctx, stored.ID)
	require.NoError(t, err)
	first.Title = "mutated"
	first.ProcessingStatus = models.StatusFailed

	second, err := repo.GetOne(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "title", second.Title)
	assert.Equal(t, models.StatusPending, second.ProcessingStatus)
}
