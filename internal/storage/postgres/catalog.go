package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/game"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/habit"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/store"
)

type habitStore struct {
	db *pgxpool.Pool
}

const habitColumns = `id, user_id, title, description, frequency, xp_reward, progress, last_completed_at,
	created_at, updated_at`

func (s *habitStore) Create(ctx context.Context, h *habit.Habit) error {
	if h.ID == "" {
		h.ID = newID()
	}
	query := `
		INSERT INTO habits (id, user_id, title, description, frequency, xp_reward)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query, h.ID, h.UserID, h.Title, h.Description, h.Frequency, h.XPReward).
		Scan(&h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}
	return nil
}

func (s *habitStore) Get(ctx context.Context, userID, id string) (*habit.Habit, error) {
	rows, err := s.db.Query(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	h, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[habit.Habit])
	if err != nil {
		return nil, notFound(err, "Habit")
	}
	return h, nil
}

func (s *habitStore) List(ctx context.Context, userID string) ([]*habit.Habit, error) {
	rows, err := s.db.Query(ctx, `SELECT `+habitColumns+` FROM habits WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	habits, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[habit.Habit])
	if err != nil {
		return nil, fmt.Errorf("failed to scan habits: %w", err)
	}
	if habits == nil {
		habits = []*habit.Habit{}
	}
	return habits, nil
}

func (s *habitStore) Update(ctx context.Context, h *habit.Habit) error {
	query := `
		UPDATE habits
		SET title = $3, description = $4, frequency = $5, xp_reward = $6, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING progress, last_completed_at, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query, h.ID, h.UserID, h.Title, h.Description, h.Frequency, h.XPReward).
		Scan(&h.Progress, &h.LastCompletedAt, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return notFound(err, "Habit")
	}
	return nil
}

func (s *habitStore) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Habit not found")
	}
	return nil
}

func (s *habitStore) RecordProgress(ctx context.Context, userID, id string, at time.Time) (*habit.Habit, error) {
	query := `
		UPDATE habits
		SET progress = progress + 1, last_completed_at = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + habitColumns
	rows, err := s.db.Query(ctx, query, id, userID, at)
	if err != nil {
		return nil, fmt.Errorf("failed to record habit progress: %w", err)
	}
	h, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[habit.Habit])
	if err != nil {
		return nil, notFound(err, "Habit")
	}
	return h, nil
}

type achievementStore struct {
	db *pgxpool.Pool
}

func (s *achievementStore) List(ctx context.Context) ([]*achievement.Achievement, error) {
	query := `
		SELECT id, name, description, icon, xp_reward, criteria_type, criteria_value, created_at
		FROM achievements
		ORDER BY created_at, name
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[achievement.Achievement])
	if err != nil {
		return nil, fmt.Errorf("failed to scan achievements: %w", err)
	}
	return list, nil
}

func (s *achievementStore) Upsert(ctx context.Context, a *achievement.Achievement) error {
	if a.ID == "" {
		a.ID = newID()
	}
	query := `
		INSERT INTO achievements (id, name, description, icon, xp_reward, criteria_type, criteria_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description,
		    icon = EXCLUDED.icon,
		    xp_reward = EXCLUDED.xp_reward,
		    criteria_type = EXCLUDED.criteria_type,
		    criteria_value = EXCLUDED.criteria_value
		RETURNING id, created_at
	`
	err := s.db.QueryRow(ctx, query,
		a.ID, a.Name, a.Description, a.Icon, a.XPReward, a.CriteriaType, a.CriteriaValue,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert achievement %q: %w", a.Name, err)
	}
	return nil
}

type badgeStore struct {
	db *pgxpool.Pool
}

const badgeColumns = `id, name, description, price, rarity, icon, created_at`

func (s *badgeStore) List(ctx context.Context) ([]*store.Badge, error) {
	rows, err := s.db.Query(ctx, `SELECT `+badgeColumns+` FROM badges ORDER BY price, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[store.Badge])
	if err != nil {
		return nil, fmt.Errorf("failed to scan badges: %w", err)
	}
	return list, nil
}

func (s *badgeStore) Get(ctx context.Context, id string) (*store.Badge, error) {
	rows, err := s.db.Query(ctx, `SELECT `+badgeColumns+` FROM badges WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get badge: %w", err)
	}
	b, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[store.Badge])
	if err != nil {
		return nil, notFound(err, "Badge")
	}
	return b, nil
}

func (s *badgeStore) Upsert(ctx context.Context, b *store.Badge) error {
	if b.ID == "" {
		b.ID = newID()
	}
	query := `
		INSERT INTO badges (id, name, description, price, rarity, icon)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE
		SET description = EXCLUDED.description,
		    price = EXCLUDED.price,
		    rarity = EXCLUDED.rarity,
		    icon = EXCLUDED.icon
		RETURNING id, created_at
	`
	err := s.db.QueryRow(ctx, query, b.ID, b.Name, b.Description, b.Price, b.Rarity, b.Icon).
		Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert badge %q: %w", b.Name, err)
	}
	return nil
}

type scoreStore struct {
	db *pgxpool.Pool
}

func (s *scoreStore) Create(ctx context.Context, sc *game.Score) error {
	if sc.ID == "" {
		sc.ID = newID()
	}
	query := `
		INSERT INTO game_scores (id, user_id, game, score, xp_awarded)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := s.db.QueryRow(ctx, query, sc.ID, sc.UserID, sc.Game, sc.Score, sc.XPAwarded).Scan(&sc.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save game score: %w", err)
	}
	return nil
}

func (s *scoreStore) ListByUser(ctx context.Context, userID string, limit int) ([]*game.Score, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, game, score, xp_awarded, created_at
		FROM game_scores
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get game scores: %w", err)
	}
	scores, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[game.Score])
	if err != nil {
		return nil, fmt.Errorf("failed to scan game scores: %w", err)
	}
	if scores == nil {
		scores = []*game.Score{}
	}
	return scores, nil
}

func (s *scoreStore) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM game_scores WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count game scores: %w", err)
	}
	return n, nil
}
