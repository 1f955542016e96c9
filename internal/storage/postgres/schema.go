package postgres

// schema is applied by Migrate. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		xp INTEGER NOT NULL DEFAULT 0 CHECK (xp >= 0),
		level INTEGER NOT NULL DEFAULT 1 CHECK (level >= 1),
		streak INTEGER NOT NULL DEFAULT 0 CHECK (streak >= 0),
		longest_streak INTEGER NOT NULL DEFAULT 0,
		last_active TIMESTAMPTZ,
		badges TEXT[] NOT NULL DEFAULT '{}',
		fitness_plans_completed INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		rev BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_lower_idx ON users (LOWER(username))`,
	`CREATE INDEX IF NOT EXISTS users_xp_idx ON users (xp DESC)`,
	`CREATE TABLE IF NOT EXISTS user_achievements (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		achievement_id TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at TIMESTAMPTZ,
		PRIMARY KEY (user_id, achievement_id)
	)`,
	`CREATE TABLE IF NOT EXISTS device_tokens (
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token TEXT NOT NULL,
		platform TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, token)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		due_date TIMESTAMPTZ NOT NULL,
		due_date_string TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		completed_at TIMESTAMPTZ,
		xp_reward INTEGER NOT NULL DEFAULT 20,
		rewarded BOOLEAN NOT NULL DEFAULT FALSE,
		is_habit BOOLEAN NOT NULL DEFAULT FALSE,
		is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
		frequency TEXT NOT NULL DEFAULT '',
		recurring_end_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`ALTER TABLE tasks ADD COLUMN IF NOT EXISTS rewarded BOOLEAN NOT NULL DEFAULT FALSE`,
	`CREATE INDEX IF NOT EXISTS tasks_user_due_idx ON tasks (user_id, due_date)`,
	`CREATE INDEX IF NOT EXISTS tasks_user_completed_idx ON tasks (user_id, completed_at) WHERE completed`,
	`CREATE TABLE IF NOT EXISTS habits (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		frequency TEXT NOT NULL,
		xp_reward INTEGER NOT NULL DEFAULT 30,
		progress INTEGER NOT NULL DEFAULT 0,
		last_completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS achievements (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		xp_reward INTEGER NOT NULL DEFAULT 0,
		criteria_type TEXT NOT NULL,
		criteria_value INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS badges (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		price INTEGER NOT NULL CHECK (price >= 0),
		rarity TEXT NOT NULL,
		icon TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS game_scores (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		game TEXT NOT NULL,
		score INTEGER NOT NULL,
		xp_awarded INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS game_scores_user_idx ON game_scores (user_id, created_at DESC)`,
}
