// Package worker runs the asynchronous analysis pipeline. It consumes work
// items from a queue, drives each notification through the
// pending -> processing -> completed/failed state machine and writes results
// back through the repository, concurrently with API traffic.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/Tireon003/notification-management-service/internal/analyzer"
	"github.com/Tireon003/notification-management-service/internal/models"
	"github.com/Tireon003/notification-management-service/internal/repositories"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// terminalWriteTimeout bounds the final status write so a shutdown or a dead
// store cannot leave an item in processing forever.
const terminalWriteTimeout = 5 * time.Second

// Worker consumes analysis work items with a pool of goroutines.
type Worker struct {
	repository  repositories.NotificationRepository
	queue       Queue
	analyzer    analyzer.Analyzer
	concurrency int
	timeout     time.Duration
	log         *logrus.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New creates a Worker. timeout bounds a single analyzer call; concurrency is
// the number of consuming goroutines.
func New(
	repository repositories.NotificationRepository,
	queue Queue,
	textAnalyzer analyzer.Analyzer,
	concurrency int,
	timeout time.Duration,
	log *logrus.Logger,
) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		repository:  repository,
		queue:       queue,
		analyzer:    textAnalyzer,
		concurrency: concurrency,
		timeout:     timeout,
		log:         log,
	}
}

// Start launches the consuming goroutines. They run until Stop is called or
// the parent context is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.consume(ctx)
	}
	w.log.WithField("concurrency", w.concurrency).Info("analysis worker started")
}

// Stop cancels the consuming goroutines and waits for in-flight items.
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.log.Info("analysis worker stopped")
}

func (w *Worker) consume(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-w.queue.Items():
			if !ok {
				return
			}
			w.process(ctx, item)
		}
	}
}

// process handles a single work item. A failure of one item must never stop
// the consuming loop, so every outcome ends here.
func (w *Worker) process(ctx context.Context, item Item) {
	log := w.log.WithField("notification_id", item.NotificationID)

	started, err := w.repository.TransitionStatus(ctx, item.NotificationID, models.StatusPending, models.StatusProcessing)
	if err != nil {
		log.WithError(err).Error("could not transition notification to processing")
		return
	}
	if !started {
		// Redelivered item: the notification is already in flight or terminal.
		log.Debug("skipping work item not in pending status")
		return
	}

	// The analyzer is the only untrusted collaborator: contain panics so the
	// item still reaches a terminal status.
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("analyzer panicked")
			w.fail(item.NotificationID, log)
		}
	}()

	analyzeCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	result, err := w.analyzer.Analyze(analyzeCtx, item.Text)
	if err != nil {
		log.WithError(err).Warn("text analysis failed")
		w.fail(item.NotificationID, log)
		return
	}

	// Terminal writes run on a fresh bounded context so a shutdown between the
	// analyzer returning and the write cannot strand the item in processing.
	writeCtx, cancelWrite := context.WithTimeout(context.Background(), terminalWriteTimeout)
	defer cancelWrite()

	completed, err := w.repository.CompleteAnalysis(writeCtx, item.NotificationID, result.Category, result.Confidence)
	if err != nil {
		log.WithError(err).Error("could not store analysis result")
		return
	}
	if !completed {
		log.Warn("notification left processing status before the result write")
		return
	}
	log.WithFields(logrus.Fields{
		"category":   result.Category,
		"confidence": result.Confidence,
		"keywords":   result.Keywords,
	}).Info("notification analysis completed")
}

// fail records the failed terminal status. It runs on a fresh context so the
// write still happens during shutdown or after an analyzer timeout.
func (w *Worker) fail(id uuid.UUID, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), terminalWriteTimeout)
	defer cancel()

	failed, err := w.repository.TransitionStatus(ctx, id, models.StatusProcessing, models.StatusFailed)
	if err != nil {
		log.WithError(err).Error("could not transition notification to failed")
		return
	}
	if !failed {
		log.Warn("notification was not in processing status when recording failure")
	}
}
