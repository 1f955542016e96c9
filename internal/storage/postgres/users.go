package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/notification"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

const userColumns = `id, username, email, password_hash, xp, level, streak, longest_streak,
	last_active, badges, fitness_plans_completed, created_at, updated_at, rev`

type userStore struct {
	db *pgxpool.Pool
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.XP,
		&u.Level,
		&u.Streak,
		&u.LongestStreak,
		&u.LastActive,
		&u.Badges,
		&u.FitnessPlansCompleted,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.Rev,
	)
	if err != nil {
		return nil, err
	}
	if u.Badges == nil {
		u.Badges = []string{}
	}
	return &u, nil
}

func conflictFor(constraint string) error {
	if strings.Contains(constraint, "email") {
		return apperror.Conflict("Email already registered")
	}
	return apperror.Conflict("Username already taken")
}

func (s *userStore) Create(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	if u.Level == 0 {
		u.Level = 1
	}
	if u.Badges == nil {
		u.Badges = []string{}
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, xp, level, streak, longest_streak, badges)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, u.XP, u.Level, u.Streak, u.LongestStreak, u.Badges,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok {
			return conflictFor(constraint)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// load reads the user row plus its achievements and device tokens through q, which is either the
// pool or an open transaction.
func (s *userStore) load(ctx context.Context, q pgx.Tx, where string, arg any, lock bool) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	if lock {
		query += ` FOR UPDATE`
	}

	var row pgx.Row
	if q != nil {
		row = q.QueryRow(ctx, query, arg)
	} else {
		row = s.db.QueryRow(ctx, query, arg)
	}
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, "User")
	}

	if err := s.loadRelations(ctx, q, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *userStore) loadRelations(ctx context.Context, q pgx.Tx, u *user.User) error {
	query := func(sql string, args ...any) (pgx.Rows, error) {
		if q != nil {
			return q.Query(ctx, sql, args...)
		}
		return s.db.Query(ctx, sql, args...)
	}

	rows, err := query(`
		SELECT achievement_id, progress, completed, completed_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY completed_at NULLS LAST, achievement_id
	`, u.ID)
	if err != nil {
		return fmt.Errorf("failed to get user achievements: %w", err)
	}
	u.Achievements, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (achievement.UserAchievement, error) {
		var ua achievement.UserAchievement
		err := row.Scan(&ua.AchievementID, &ua.Progress, &ua.Completed, &ua.CompletedAt)
		return ua, err
	})
	if err != nil {
		return fmt.Errorf("failed to scan user achievements: %w", err)
	}

	rows, err = query(`
		SELECT token, platform, created_at
		FROM device_tokens
		WHERE user_id = $1
		ORDER BY created_at
	`, u.ID)
	if err != nil {
		return fmt.Errorf("failed to get device tokens: %w", err)
	}
	u.DeviceTokens, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (notification.DeviceToken, error) {
		var dt notification.DeviceToken
		err := row.Scan(&dt.Token, &dt.Platform, &dt.CreatedAt)
		return dt, err
	})
	if err != nil {
		return fmt.Errorf("failed to scan device tokens: %w", err)
	}
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	return s.load(ctx, nil, "id = $1", id, false)
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.load(ctx, nil, "email = $1", email, false)
}

func (s *userStore) UpdateProfile(ctx context.Context, id string, username, email *string) (*user.User, error) {
	query := `
		UPDATE users
		SET username = COALESCE($2, username),
		    email = COALESCE($3, email),
		    updated_at = NOW(),
		    rev = rev + 1
		WHERE id = $1
	`
	tag, err := s.db.Exec(ctx, query, id, username, email)
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok {
			return nil, conflictFor(constraint)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperror.NotFound("User not found")
	}
	return s.GetByID(ctx, id)
}

func (s *userStore) UpdateProgress(ctx context.Context, id string, fn storage.ProgressFunc) (*user.User, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	u, err := s.load(ctx, tx, "id = $1", id, true)
	if err != nil {
		return nil, err
	}

	if err := fn(u); err != nil {
		return nil, err
	}
	if u.Badges == nil {
		u.Badges = []string{}
	}

	updateQuery := `
		UPDATE users
		SET xp = $2,
		    level = $3,
		    streak = $4,
		    longest_streak = $5,
		    last_active = $6,
		    badges = $7,
		    fitness_plans_completed = $8,
		    updated_at = NOW(),
		    rev = rev + 1
		WHERE id = $1
		RETURNING updated_at, rev
	`
	err = tx.QueryRow(ctx, updateQuery,
		id, u.XP, u.Level, u.Streak, u.LongestStreak, u.LastActive, u.Badges, u.FitnessPlansCompleted,
	).Scan(&u.UpdatedAt, &u.Rev)
	if err != nil {
		return nil, fmt.Errorf("failed to update user progress: %w", err)
	}

	batch := &pgx.Batch{}
	for _, ua := range u.Achievements {
		batch.Queue(`
			INSERT INTO user_achievements (user_id, achievement_id, progress, completed, completed_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, achievement_id) DO UPDATE
			SET progress = EXCLUDED.progress,
			    completed = EXCLUDED.completed,
			    completed_at = EXCLUDED.completed_at
		`, id, ua.AchievementID, ua.Progress, ua.Completed, ua.CompletedAt)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, fmt.Errorf("failed to save user achievements: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit progress: %w", err)
	}
	u.ID = id
	return u, nil
}

func (s *userStore) AddDeviceToken(ctx context.Context, id string, token notification.DeviceToken) error {
	query := `
		INSERT INTO device_tokens (user_id, token, platform, created_at)
		SELECT id, $2, $3, $4 FROM users WHERE id = $1
		ON CONFLICT (user_id, token) DO UPDATE SET platform = EXCLUDED.platform
	`
	tag, err := s.db.Exec(ctx, query, id, token.Token, token.Platform, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("User not found")
	}
	return nil
}

func (s *userStore) list(ctx context.Context, query string, args ...any) ([]*user.User, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*user.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *userStore) TopByXP(ctx context.Context, limit int) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY xp DESC, username ASC LIMIT $1`
	users, err := s.list(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return users, nil
}

func (s *userStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (s *userStore) ListStreakHolders(ctx context.Context) ([]*user.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE u.streak > 0
		  AND EXISTS (SELECT 1 FROM device_tokens d WHERE d.user_id = u.id)
	`
	users, err := s.list(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list streak holders: %w", err)
	}
	for _, u := range users {
		if err := s.loadRelations(ctx, nil, u); err != nil {
			return nil, err
		}
	}
	return users, nil
}
