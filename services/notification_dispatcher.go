package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/notification"
)

const (
	dispatcherWorkers   = 5
	dispatcherQueueSize = 100
	dispatchTimeout     = 10 * time.Second
)

// NotificationDispatcher delivers notifications off the request path through a small worker pool.
type NotificationDispatcher struct {
	pushProvider notification.PushProvider
	metrics      *Metrics
	logger       *slog.Logger
	workers      int
	jobQueue     chan *notification.Notification
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

var _ Notifier = (*NotificationDispatcher)(nil)

func NewNotificationDispatcher(logger *slog.Logger) *NotificationDispatcher {
	dispatcher := &NotificationDispatcher{
		logger:   logger,
		workers:  dispatcherWorkers,
		jobQueue: make(chan *notification.Notification, dispatcherQueueSize),
		stopChan: make(chan struct{}),
	}

	dispatcher.startWorkers()
	return dispatcher
}

// SetPushProvider injects the FCM provider. Without one, notifications are logged and dropped.
func (d *NotificationDispatcher) SetPushProvider(provider notification.PushProvider) {
	d.pushProvider = provider
}

func (d *NotificationDispatcher) SetMetrics(m *Metrics) { d.metrics = m }

func (d *NotificationDispatcher) startWorkers() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *NotificationDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case n := <-d.jobQueue:
			d.process(n)
		case <-d.stopChan:
			return
		}
	}
}

func (d *NotificationDispatcher) process(n *notification.Notification) {
	if d.pushProvider == nil || len(n.Tokens) == 0 {
		d.logger.Debug("skipping push",
			slog.String("user_id", n.UserID),
			slog.Int("tokens", len(n.Tokens)),
			slog.Bool("provider_set", d.pushProvider != nil),
		)
		d.metrics.NotificationSent("skipped")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	if err := d.pushProvider.SendPush(ctx, n.Tokens, n.Title, n.Body, n.Data); err != nil {
		d.logger.Warn("push failed",
			slog.String("user_id", n.UserID),
			slog.String("type", string(n.Type)),
			slog.String("error", err.Error()),
		)
		d.metrics.NotificationSent("failed")
		return
	}
	d.metrics.NotificationSent("sent")
}

// Notify queues n and returns immediately. When the queue is full the notification is dropped.
func (d *NotificationDispatcher) Notify(n *notification.Notification) {
	select {
	case <-d.stopChan:
		d.metrics.NotificationSent("dropped")
		return
	default:
	}

	select {
	case d.jobQueue <- n:
	default:
		d.logger.Warn("notification queue full, dropping", slog.String("user_id", n.UserID), slog.String("type", string(n.Type)))
		d.metrics.NotificationSent("dropped")
	}
}

// Stop signals the workers and waits for them. Queued but unprocessed notifications are discarded.
func (d *NotificationDispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("stopping notification dispatcher")
		close(d.stopChan)
		d.wg.Wait()
		d.logger.Info("notification dispatcher stopped")
	})
}
