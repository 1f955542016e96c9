package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/notification"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

type userStore struct {
	s   *Store
	col *mongo.Collection
}

func normalize(u *user.User) {
	if u.Badges == nil {
		u.Badges = []string{}
	}
	if u.Achievements == nil {
		u.Achievements = []achievement.UserAchievement{}
	}
	if u.DeviceTokens == nil {
		u.DeviceTokens = []notification.DeviceToken{}
	}
}

func (us *userStore) Create(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = newID()
	}
	if u.Level == 0 {
		u.Level = 1
	}
	now := us.s.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	normalize(u)

	if _, err := us.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateUserError(err)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (us *userStore) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var u user.User
	if err := us.col.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, notFound(err, "User")
	}
	normalize(&u)
	return &u, nil
}

func (us *userStore) GetByID(ctx context.Context, id string) (*user.User, error) {
	return us.findOne(ctx, bson.M{"_id": id})
}

func (us *userStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return us.findOne(ctx, bson.M{"email": email})
}

func (us *userStore) UpdateProfile(ctx context.Context, id string, username, email *string) (*user.User, error) {
	set := bson.M{"updatedAt": us.s.now().UTC()}
	if username != nil {
		set["username"] = *username
	}
	if email != nil {
		set["email"] = *email
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u user.User
	err := us.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set, "$inc": bson.M{"rev": 1}}, opts).Decode(&u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateUserError(err)
		}
		return nil, notFound(err, "User")
	}
	normalize(&u)
	return &u, nil
}

// UpdateProgress retries on a revision mismatch and gives up with a conflict error after
// storage.MaxProgressRetries attempts.
func (us *userStore) UpdateProgress(ctx context.Context, id string, fn storage.ProgressFunc) (*user.User, error) {
	for attempt := 0; attempt < storage.MaxProgressRetries; attempt++ {
		u, err := us.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		rev := u.Rev

		if err := fn(u); err != nil {
			return nil, err
		}
		normalize(u)
		u.UpdatedAt = us.s.now().UTC()

		update := bson.M{
			"$set": bson.M{
				"xp":                    u.XP,
				"level":                 u.Level,
				"streak":                u.Streak,
				"longestStreak":         u.LongestStreak,
				"lastActive":            u.LastActive,
				"achievements":          u.Achievements,
				"badges":                u.Badges,
				"fitnessPlansCompleted": u.FitnessPlansCompleted,
				"updatedAt":             u.UpdatedAt,
			},
			"$inc": bson.M{"rev": 1},
		}
		res, err := us.col.UpdateOne(ctx, bson.M{"_id": id, "rev": rev}, update)
		if err != nil {
			return nil, fmt.Errorf("failed to update user progress: %w", err)
		}
		if res.MatchedCount == 1 {
			u.ID = id
			u.Rev = rev + 1
			return u, nil
		}
	}
	return nil, apperror.Conflict("Progress changed concurrently, please retry")
}

func (us *userStore) AddDeviceToken(ctx context.Context, id string, token notification.DeviceToken) error {
	res, err := us.col.UpdateOne(ctx,
		bson.M{"_id": id, "deviceTokens.token": token.Token},
		bson.M{"$set": bson.M{"deviceTokens.$.platform": token.Platform}},
	)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	res, err = us.col.UpdateOne(ctx,
		bson.M{"_id": id, "deviceTokens.token": bson.M{"$ne": token.Token}},
		bson.M{"$push": bson.M{"deviceTokens": token}},
	)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := us.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (us *userStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*user.User, error) {
	cur, err := us.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []*user.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	for _, u := range users {
		normalize(u)
	}
	return users, nil
}

func (us *userStore) TopByXP(ctx context.Context, limit int) ([]*user.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "xp", Value: -1}, {Key: "username", Value: 1}}).
		SetLimit(int64(limit))
	users, err := us.find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return users, nil
}

func (us *userStore) CountUsers(ctx context.Context) (int, error) {
	n, err := us.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return int(n), nil
}

func (us *userStore) ListStreakHolders(ctx context.Context) ([]*user.User, error) {
	filter := bson.M{
		"streak":         bson.M{"$gt": 0},
		"deviceTokens.0": bson.M{"$exists": true},
	}
	users, err := us.find(ctx, filter, options.Find())
	if err != nil {
		return nil, fmt.Errorf("failed to list streak holders: %w", err)
	}
	return users, nil
}
