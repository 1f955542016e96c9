// Package mongo implements storage.Store on MongoDB. Documents use string UUIDs as _id so ids look
// the same across backends.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
)

const (
	usersCollection        = "users"
	tasksCollection        = "tasks"
	habitsCollection       = "habits"
	achievementsCollection = "achievements"
	badgesCollection       = "badges"
	scoresCollection       = "game_scores"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Connect dials uri and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("MONGODB_URI environment variable not set")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database), now: time.Now}
}

func (s *Store) Users() storage.UserStore {
	return &userStore{s: s, col: s.db.Collection(usersCollection)}
}

func (s *Store) Tasks() storage.TaskStore {
	return &taskStore{s: s, col: s.db.Collection(tasksCollection)}
}

func (s *Store) Habits() storage.HabitStore {
	return &habitStore{s: s, col: s.db.Collection(habitsCollection)}
}

func (s *Store) Achievements() storage.AchievementStore {
	return &achievementStore{s: s, col: s.db.Collection(achievementsCollection)}
}

func (s *Store) Badges() storage.BadgeStore {
	return &badgeStore{s: s, col: s.db.Collection(badgesCollection)}
}

func (s *Store) GameScores() storage.GameScoreStore {
	return &scoreStore{s: s, col: s.db.Collection(scoresCollection)}
}

// Migrate creates the indexes the stores rely on for uniqueness and ordering.
func (s *Store) Migrate(ctx context.Context) error {
	caseInsensitive := &options.Collation{Locale: "en", Strength: 2}

	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_unique").SetCollation(caseInsensitive)},
			{Keys: bson.D{{Key: "xp", Value: -1}}},
		},
		tasksCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "dueDate", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "completed", Value: 1}, {Key: "completedAt", Value: 1}}},
		},
		habitsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		achievementsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		badgesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		scoresCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func newID() string {
	return uuid.NewString()
}

func notFound(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperror.NotFound("%s not found", what)
	}
	return err
}

func duplicateUserError(err error) error {
	if strings.Contains(err.Error(), "email") {
		return apperror.Conflict("Email already registered")
	}
	return apperror.Conflict("Username already taken")
}
