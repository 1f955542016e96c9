package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/logger"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/notification"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

type fakePushProvider struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (p *fakePushProvider) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, title)
	return p.err
}

func (p *fakePushProvider) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func TestDispatcherDeliversThroughProvider(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	provider := &fakePushProvider{}
	d := NewNotificationDispatcher(logger.Discard())
	d.SetPushProvider(provider)
	d.SetMetrics(metrics)
	defer d.Stop()

	tokens := []notification.DeviceToken{{Token: "t1", Platform: "android"}}
	for i := 0; i < 3; i++ {
		d.Notify(&notification.Notification{UserID: "u1", Type: notification.TypeLevelUp, Title: "Level up!", Tokens: tokens})
	}
	d.Notify(&notification.Notification{UserID: "u2", Type: notification.TypeLevelUp, Title: "no devices"})

	assert.Eventually(t, func() bool { return provider.count() == 3 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.notificationsSent.WithLabelValues("skipped")) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.notificationsSent.WithLabelValues("sent")))
}

func TestDispatcherCountsFailures(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	d := NewNotificationDispatcher(logger.Discard())
	d.SetPushProvider(&fakePushProvider{err: errors.New("fcm down")})
	d.SetMetrics(metrics)
	defer d.Stop()

	d.Notify(&notification.Notification{UserID: "u1", Tokens: []notification.DeviceToken{{Token: "t1"}}})
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.notificationsSent.WithLabelValues("failed")) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestDispatcherNotifyAfterStop(t *testing.T) {
	d := NewNotificationDispatcher(logger.Discard())
	d.Stop()
	d.Stop()

	done := make(chan struct{})
	go func() {
		d.Notify(&notification.Notification{UserID: "u1"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked after Stop")
	}
}

func TestSendStreakReminders(t *testing.T) {
	f := newFixture(t)
	notifier := &recordingNotifier{}
	svc := NewNotificationService(f.store, notifier, 6, logger.Discard())

	atRisk := f.newUser(t)
	safe := f.newUser(t)
	noDevice := f.newUser(t)
	for _, u := range []*user.User{atRisk, safe, noDevice} {
		f.completeNewTask(t, u.ID)
	}
	for _, u := range []*user.User{atRisk, safe} {
		require.NoError(t, f.users.RegisterDevice(f.ctx, u.ID, &user.RegisterDeviceRequest{Token: "tok-" + u.ID}))
	}

	// safe was active 10 hours after the others.
	f.advance(10 * time.Hour)
	f.completeNewTask(t, safe.ID)

	svc.SetClock(func() time.Time { return f.now.Add(9 * time.Hour) })
	n, err := svc.SendStreakReminders(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, atRisk.ID, notifier.sent[0].UserID)
	assert.Equal(t, notification.TypeStreakRisk, notifier.sent[0].Type)
	assert.Equal(t, 5, notifier.sent[0].Data["hoursLeft"])

	svc.SetClock(func() time.Time { return f.now.Add(20 * time.Hour) })
	n, err = svc.SendStreakReminders(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "expired streaks are not reminded")
	assert.Equal(t, safe.ID, notifier.sent[1].UserID)
}
