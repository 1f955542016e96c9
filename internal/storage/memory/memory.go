// Package memory is an in-process storage backend for tests and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/game"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/habit"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/notification"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/store"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

// Store keeps everything in maps behind one mutex. Values are cloned on the way in and out.
type Store struct {
	mu sync.Mutex

	users        map[string]*user.User
	tasks        map[string]*task.Task
	habits       map[string]*habit.Habit
	achievements map[string]*achievement.Achievement
	badges       map[string]*store.Badge
	scores       []*game.Score

	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:        make(map[string]*user.User),
		tasks:        make(map[string]*task.Task),
		habits:       make(map[string]*habit.Habit),
		achievements: make(map[string]*achievement.Achievement),
		badges:       make(map[string]*store.Badge),
		now:          time.Now,
	}
}

func (s *Store) Users() storage.UserStore { return userStore{s} }
func (s *Store) Tasks() storage.TaskStore { return taskStore{s} }
func (s *Store) Habits() storage.HabitStore { return habitStore{s} }
func (s *Store) Achievements() storage.AchievementStore { return achievementStore{s} }
func (s *Store) Badges() storage.BadgeStore { return badgeStore{s} }
func (s *Store) GameScores() storage.GameScoreStore { return scoreStore{s} }

func (s *Store) Migrate(ctx context.Context) error { return nil }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close(ctx context.Context) error { return nil }

type userStore struct{ s *Store }

func (us userStore) Create(ctx context.Context, u *user.User) error {
	s := us.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return apperror.Conflict("Username already taken")
		}
		if existing.Email == u.Email {
			return apperror.Conflict("Email already registered")
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Level == 0 {
		u.Level = 1
	}
	s.users[u.ID] = u.Clone()
	return nil
}

func (us userStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	s := us.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("User not found")
	}
	return u.Clone(), nil
}

func (us userStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s := us.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, apperror.NotFound("User not found")
}

func (us userStore) UpdateProfile(ctx context.Context, id string, username, email *string) (*user.User, error) {
	s := us.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("User not found")
	}
	for otherID, other := range s.users {
		if otherID == id {
			continue
		}
		if username != nil && strings.EqualFold(other.Username, *username) {
			return nil, apperror.Conflict("Username already taken")
		}
		if email != nil && other.Email == *email {
			return nil, apperror.Conflict("Email already registered")
		}
	}
	if username != nil {
		u.Username = *username
	}
	if email != nil {
		u.Email = *email
	}
	u.UpdatedAt = s.now()
	u.Rev++
	return u.Clone(), nil
}

func (us userStore) UpdateProgress(ctx context.Context, id string, fn storage.ProgressFunc) (*user.User, error) {
	s := us.s
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("User not found")
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	working.ID = current.ID
	working.UpdatedAt = s.now()
	working.Rev = current.Rev + 1
	s.users[id] = working
	return working.Clone(), nil
}

func (us userStore) AddDeviceToken(ctx context.Context, id string, token notification.DeviceToken) error {
	s := us.s
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return apperror.NotFound("User not found")
	}
	for i, existing := range u.DeviceTokens {
		if existing.Token == token.Token {
			u.DeviceTokens[i] = token
			return nil
		}
	}
	u.DeviceTokens = append(u.DeviceTokens, token)
	return nil
}

func (us userStore) TopByXP(ctx context.Context, limit int) ([]*user.User, error) {
	s := us.s
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*user.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u.Clone())
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].XP != all[j].XP {
			return all[i].XP > all[j].XP
		}
		return all[i].Username < all[j].Username
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (us userStore) CountUsers(ctx context.Context) (int, error) {
	s := us.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

func (us userStore) ListStreakHolders(ctx context.Context) ([]*user.User, error) {
	s := us.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*user.User
	for _, u := range s.users {
		if u.Streak > 0 && len(u.DeviceTokens) > 0 {
			out = append(out, u.Clone())
		}
	}
	return out, nil
}

type taskStore struct{ s *Store }

func (ts taskStore) Create(ctx context.Context, t *task.Task) error {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	s.tasks[t.ID] = t.Clone()
	return nil
}

func (ts taskStore) get(userID, id string) (*task.Task, error) {
	t, ok := ts.s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, apperror.NotFound("Task not found")
	}
	return t, nil
}

func (ts taskStore) Get(ctx context.Context, userID, id string) (*task.Task, error) {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := ts.get(userID, id)
	if err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

func (ts taskStore) List(ctx context.Context, userID string, filter task.ListFilter) ([]*task.Task, error) {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*task.Task{}
	for _, t := range s.tasks {
		if t.UserID == userID && filter.Matches(t) {
			out = append(out, t.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (ts taskStore) Update(ctx context.Context, t *task.Task) error {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := ts.get(t.UserID, t.ID)
	if err != nil {
		return err
	}
	t.CreatedAt = existing.CreatedAt
	t.Rewarded = existing.Rewarded
	t.UpdatedAt = s.now()
	s.tasks[t.ID] = t.Clone()
	return nil
}

func (ts taskStore) Delete(ctx context.Context, userID, id string) error {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := ts.get(userID, id); err != nil {
		return err
	}
	delete(s.tasks, id)
	return nil
}

func (ts taskStore) MarkCompleted(ctx context.Context, userID, id string, at time.Time) (*task.Task, error) {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := ts.get(userID, id)
	if err != nil {
		return nil, err
	}
	if t.Completed {
		return nil, apperror.Validation("Task already completed")
	}
	t.MarkCompleted(at)
	t.UpdatedAt = s.now()
	return t.Clone(), nil
}

func (ts taskStore) SetRewarded(ctx context.Context, userID, id string, rewarded bool) (bool, error) {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := ts.get(userID, id)
	if err != nil {
		return false, err
	}
	if t.Rewarded == rewarded {
		return false, nil
	}
	t.Rewarded = rewarded
	t.UpdatedAt = s.now()
	return true, nil
}

func (ts taskStore) CountCompletedBetween(ctx context.Context, userID string, from, to time.Time) (int, error) {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.tasks {
		if t.UserID != userID || !t.Completed || t.CompletedAt == nil {
			continue
		}
		if !t.CompletedAt.Before(from) && t.CompletedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (ts taskStore) CountCompleted(ctx context.Context, userID string) (int, error) {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.tasks {
		if t.UserID == userID && t.Completed {
			n++
		}
	}
	return n, nil
}

func (ts taskStore) CountMasteredHabitTitles(ctx context.Context, userID string, minCompletions int) (int, error) {
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	for _, t := range s.tasks {
		if t.UserID == userID && t.IsHabit && t.Completed {
			counts[t.Title]++
		}
	}
	n := 0
	for _, c := range counts {
		if c >= minCompletions {
			n++
		}
	}
	return n, nil
}

type habitStore struct{ s *Store }

func (hs habitStore) get(userID, id string) (*habit.Habit, error) {
	h, ok := hs.s.habits[id]
	if !ok || h.UserID != userID {
		return nil, apperror.NotFound("Habit not found")
	}
	return h, nil
}

func (hs habitStore) Create(ctx context.Context, h *habit.Habit) error {
	s := hs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	now := s.now()
	h.CreatedAt, h.UpdatedAt = now, now
	s.habits[h.ID] = h.Clone()
	return nil
}

func (hs habitStore) Get(ctx context.Context, userID, id string) (*habit.Habit, error) {
	s := hs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := hs.get(userID, id)
	if err != nil {
		return nil, err
	}
	return h.Clone(), nil
}

func (hs habitStore) List(ctx context.Context, userID string) ([]*habit.Habit, error) {
	s := hs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*habit.Habit{}
	for _, h := range s.habits {
		if h.UserID == userID {
			out = append(out, h.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (hs habitStore) Update(ctx context.Context, h *habit.Habit) error {
	s := hs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := hs.get(h.UserID, h.ID)
	if err != nil {
		return err
	}
	h.CreatedAt = existing.CreatedAt
	h.Progress = existing.Progress
	h.LastCompletedAt = existing.LastCompletedAt
	h.UpdatedAt = s.now()
	s.habits[h.ID] = h.Clone()
	return nil
}

func (hs habitStore) Delete(ctx context.Context, userID, id string) error {
	s := hs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := hs.get(userID, id); err != nil {
		return err
	}
	delete(s.habits, id)
	return nil
}

func (hs habitStore) RecordProgress(ctx context.Context, userID, id string, at time.Time) (*habit.Habit, error) {
	s := hs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	h, err := hs.get(userID, id)
	if err != nil {
		return nil, err
	}
	h.Progress++
	completed := at
	h.LastCompletedAt = &completed
	h.UpdatedAt = s.now()
	return h.Clone(), nil
}

type achievementStore struct{ s *Store }

func (as achievementStore) List(ctx context.Context) ([]*achievement.Achievement, error) {
	s := as.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*achievement.Achievement, 0, len(s.achievements))
	for _, a := range s.achievements {
		c := *a
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (as achievementStore) Upsert(ctx context.Context, a *achievement.Achievement) error {
	s := as.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.achievements {
		if existing.Name == a.Name {
			a.ID, a.CreatedAt = existing.ID, existing.CreatedAt
			c := *a
			s.achievements[a.ID] = &c
			return nil
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = s.now()
	c := *a
	s.achievements[a.ID] = &c
	return nil
}

type badgeStore struct{ s *Store }

func (bs badgeStore) List(ctx context.Context) ([]*store.Badge, error) {
	s := bs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*store.Badge, 0, len(s.badges))
	for _, b := range s.badges {
		c := *b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (bs badgeStore) Get(ctx context.Context, id string) (*store.Badge, error) {
	s := bs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.badges[id]
	if !ok {
		return nil, apperror.NotFound("Badge not found")
	}
	c := *b
	return &c, nil
}

func (bs badgeStore) Upsert(ctx context.Context, b *store.Badge) error {
	s := bs.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.badges {
		if existing.Name == b.Name {
			b.ID, b.CreatedAt = existing.ID, existing.CreatedAt
			c := *b
			s.badges[b.ID] = &c
			return nil
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = s.now()
	c := *b
	s.badges[b.ID] = &c
	return nil
}

type scoreStore struct{ s *Store }

func (ss scoreStore) Create(ctx context.Context, score *game.Score) error {
	s := ss.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	score.CreatedAt = s.now()
	c := *score
	s.scores = append(s.scores, &c)
	return nil
}

func (ss scoreStore) ListByUser(ctx context.Context, userID string, limit int) ([]*game.Score, error) {
	s := ss.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*game.Score{}
	for i := len(s.scores) - 1; i >= 0; i-- {
		if s.scores[i].UserID != userID {
			continue
		}
		c := *s.scores[i]
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (ss scoreStore) CountByUser(ctx context.Context, userID string) (int, error) {
	s := ss.s
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, sc := range s.scores {
		if sc.UserID == userID {
			n++
		}
	}
	return n, nil
}
