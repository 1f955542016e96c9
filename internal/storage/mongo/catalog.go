package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/game"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/habit"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/store"
)

type habitStore struct {
	s   *Store
	col *mongo.Collection
}

func (hs *habitStore) Create(ctx context.Context, h *habit.Habit) error {
	if h.ID == "" {
		h.ID = newID()
	}
	now := hs.s.now().UTC()
	h.CreatedAt, h.UpdatedAt = now, now
	if _, err := hs.col.InsertOne(ctx, h); err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}
	return nil
}

func (hs *habitStore) Get(ctx context.Context, userID, id string) (*habit.Habit, error) {
	var h habit.Habit
	if err := hs.col.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&h); err != nil {
		return nil, notFound(err, "Habit")
	}
	return &h, nil
}

func (hs *habitStore) List(ctx context.Context, userID string) ([]*habit.Habit, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := hs.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer cur.Close(ctx)

	habits := []*habit.Habit{}
	if err := cur.All(ctx, &habits); err != nil {
		return nil, fmt.Errorf("failed to decode habits: %w", err)
	}
	return habits, nil
}

func (hs *habitStore) Update(ctx context.Context, h *habit.Habit) error {
	set := bson.M{
		"title":       h.Title,
		"description": h.Description,
		"frequency":   h.Frequency,
		"xpReward":    h.XPReward,
		"updatedAt":   hs.s.now().UTC(),
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated habit.Habit
	err := hs.col.FindOneAndUpdate(ctx, bson.M{"_id": h.ID, "userId": h.UserID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		return notFound(err, "Habit")
	}
	*h = updated
	return nil
}

func (hs *habitStore) Delete(ctx context.Context, userID, id string) error {
	res, err := hs.col.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("Habit not found")
	}
	return nil
}

func (hs *habitStore) RecordProgress(ctx context.Context, userID, id string, at time.Time) (*habit.Habit, error) {
	update := bson.M{
		"$inc": bson.M{"progress": 1},
		"$set": bson.M{"lastCompletedAt": at, "updatedAt": hs.s.now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var h habit.Habit
	if err := hs.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "userId": userID}, update, opts).Decode(&h); err != nil {
		return nil, notFound(err, "Habit")
	}
	return &h, nil
}

type achievementStore struct {
	s   *Store
	col *mongo.Collection
}

func (as *achievementStore) List(ctx context.Context) ([]*achievement.Achievement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "name", Value: 1}})
	cur, err := as.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements: %w", err)
	}
	defer cur.Close(ctx)

	list := []*achievement.Achievement{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("failed to decode achievements: %w", err)
	}
	return list, nil
}

func (as *achievementStore) Upsert(ctx context.Context, a *achievement.Achievement) error {
	id := a.ID
	if id == "" {
		id = newID()
	}
	update := bson.M{
		"$set": bson.M{
			"description":   a.Description,
			"icon":          a.Icon,
			"xpReward":      a.XPReward,
			"criteriaType":  a.CriteriaType,
			"criteriaValue": a.CriteriaValue,
		},
		"$setOnInsert": bson.M{"_id": id, "createdAt": as.s.now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	if err := as.col.FindOneAndUpdate(ctx, bson.M{"name": a.Name}, update, opts).Decode(a); err != nil {
		return fmt.Errorf("failed to upsert achievement %q: %w", a.Name, err)
	}
	return nil
}

type badgeStore struct {
	s   *Store
	col *mongo.Collection
}

func (bs *badgeStore) List(ctx context.Context) ([]*store.Badge, error) {
	opts := options.Find().SetSort(bson.D{{Key: "price", Value: 1}, {Key: "name", Value: 1}})
	cur, err := bs.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}
	defer cur.Close(ctx)

	list := []*store.Badge{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("failed to decode badges: %w", err)
	}
	return list, nil
}

func (bs *badgeStore) Get(ctx context.Context, id string) (*store.Badge, error) {
	var b store.Badge
	if err := bs.col.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, notFound(err, "Badge")
	}
	return &b, nil
}

func (bs *badgeStore) Upsert(ctx context.Context, b *store.Badge) error {
	id := b.ID
	if id == "" {
		id = newID()
	}
	update := bson.M{
		"$set": bson.M{
			"description": b.Description,
			"price":       b.Price,
			"rarity":      b.Rarity,
			"icon":        b.Icon,
		},
		"$setOnInsert": bson.M{"_id": id, "createdAt": bs.s.now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	if err := bs.col.FindOneAndUpdate(ctx, bson.M{"name": b.Name}, update, opts).Decode(b); err != nil {
		return fmt.Errorf("failed to upsert badge %q: %w", b.Name, err)
	}
	return nil
}

type scoreStore struct {
	s   *Store
	col *mongo.Collection
}

func (ss *scoreStore) Create(ctx context.Context, sc *game.Score) error {
	if sc.ID == "" {
		sc.ID = newID()
	}
	sc.CreatedAt = ss.s.now().UTC()
	if _, err := ss.col.InsertOne(ctx, sc); err != nil {
		return fmt.Errorf("failed to save game score: %w", err)
	}
	return nil
}

func (ss *scoreStore) ListByUser(ctx context.Context, userID string, limit int) ([]*game.Score, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	cur, err := ss.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get game scores: %w", err)
	}
	defer cur.Close(ctx)

	scores := []*game.Score{}
	if err := cur.All(ctx, &scores); err != nil {
		return nil, fmt.Errorf("failed to decode game scores: %w", err)
	}
	return scores, nil
}

func (ss *scoreStore) CountByUser(ctx context.Context, userID string) (int, error) {
	n, err := ss.col.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count game scores: %w", err)
	}
	return int(n), nil
}
