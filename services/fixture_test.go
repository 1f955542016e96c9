package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/logger"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/notification"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage/memory"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage/storagetest"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

var testNow = time.Date(2023, 5, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	now      time.Time
	progress *ProgressionService
	tasks    *TaskService
	habits   *HabitService
	games    *GameService
	shop     *StoreService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	require.NoError(t, storage.Seed(context.Background(), st))
	return newFixtureWithStore(st)
}

// newEmptyCatalogFixture has no achievements, so XP comes from the activities alone.
func newEmptyCatalogFixture() *fixture {
	return newFixtureWithStore(memory.New())
}

func newFixtureWithStore(st *memory.Store) *fixture {
	log := logger.Discard()
	f := &fixture{ctx: context.Background(), store: st, now: testNow}
	f.progress = NewProgressionService(st, time.UTC, log)
	f.progress.SetClock(func() time.Time { return f.now })
	f.tasks = NewTaskService(st, f.progress, log)
	f.habits = NewHabitService(st, f.progress)
	f.games = NewGameService(st, f.progress)
	f.shop = NewStoreService(st, log)
	f.users = NewUserService(st, f.progress, log)
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) newUser(t *testing.T) *user.User {
	return storagetest.NewUser(t, f.store)
}

func (f *fixture) newTask(t *testing.T, userID string, req task.CreateTaskRequest) *task.Task {
	t.Helper()
	if req.Title == "" {
		req.Title = "Read a chapter"
	}
	created, err := f.tasks.CreateTask(f.ctx, userID, &req)
	require.NoError(t, err)
	return created
}

func (f *fixture) completeNewTask(t *testing.T, userID string) *TaskCompletion {
	t.Helper()
	created := f.newTask(t, userID, task.CreateTaskRequest{})
	res, err := f.tasks.CompleteTask(f.ctx, userID, created.ID)
	require.NoError(t, err)
	return res
}

func (f *fixture) getUser(t *testing.T, id string) *user.User {
	t.Helper()
	u, err := f.store.Users().GetByID(f.ctx, id)
	require.NoError(t, err)
	return u
}

func names(list []*achievement.Achievement) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Name)
	}
	return out
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*notification.Notification
}

func (r *recordingNotifier) Notify(n *notification.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) types() []notification.NotificationType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notification.NotificationType, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Type)
	}
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]*ProgressEvent
}

func (r *recordingPublisher) Publish(userID string, event *ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = make(map[string][]*ProgressEvent)
	}
	r.events[userID] = append(r.events[userID], event)
}
