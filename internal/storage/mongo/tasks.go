package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/task"
)

type taskStore struct {
	s   *Store
	col *mongo.Collection
}

func (ts *taskStore) Create(ctx context.Context, t *task.Task) error {
	if t.ID == "" {
		t.ID = newID()
	}
	now := ts.s.now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	if _, err := ts.col.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (ts *taskStore) Get(ctx context.Context, userID, id string) (*task.Task, error) {
	var t task.Task
	if err := ts.col.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&t); err != nil {
		return nil, notFound(err, "Task")
	}
	return &t, nil
}

func (ts *taskStore) List(ctx context.Context, userID string, filter task.ListFilter) ([]*task.Task, error) {
	query := bson.M{"userId": userID}
	if filter.Date != "" {
		query["dueDateString"] = filter.Date
	}
	if filter.Completed != nil {
		query["completed"] = *filter.Completed
	}
	if filter.IsHabit != nil {
		query["isHabit"] = *filter.IsHabit
	}

	opts := options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}, {Key: "createdAt", Value: 1}})
	cur, err := ts.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer cur.Close(ctx)

	tasks := []*task.Task{}
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

func (ts *taskStore) Update(ctx context.Context, t *task.Task) error {
	t.UpdatedAt = ts.s.now().UTC()
	set := bson.M{
		"title":            t.Title,
		"description":      t.Description,
		"dueDate":          t.DueDate,
		"dueDateString":    t.DueDateString,
		"completed":        t.Completed,
		"completedAt":      t.CompletedAt,
		"xpReward":         t.XPReward,
		"isHabit":          t.IsHabit,
		"isRecurring":      t.IsRecurring,
		"frequency":        t.Frequency,
		"recurringEndDate": t.RecurringEndDate,
		"updatedAt":        t.UpdatedAt,
	}
	res, err := ts.col.UpdateOne(ctx, bson.M{"_id": t.ID, "userId": t.UserID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("Task not found")
	}
	return nil
}

func (ts *taskStore) Delete(ctx context.Context, userID, id string) error {
	res, err := ts.col.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("Task not found")
	}
	return nil
}

func (ts *taskStore) MarkCompleted(ctx context.Context, userID, id string, at time.Time) (*task.Task, error) {
	filter := bson.M{"_id": id, "userId": userID, "completed": false}
	update := bson.M{"$set": bson.M{"completed": true, "completedAt": at, "updatedAt": ts.s.now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var t task.Task
	err := ts.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&t)
	if err == nil {
		return &t, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	if _, getErr := ts.Get(ctx, userID, id); getErr != nil {
		return nil, getErr
	}
	return nil, apperror.Validation("Task already completed")
}

func (ts *taskStore) SetRewarded(ctx context.Context, userID, id string, rewarded bool) (bool, error) {
	filter := bson.M{"_id": id, "userId": userID, "rewarded": bson.M{"$ne": rewarded}}
	update := bson.M{"$set": bson.M{"rewarded": rewarded, "updatedAt": ts.s.now().UTC()}}
	res, err := ts.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update task reward: %w", err)
	}
	if res.ModifiedCount > 0 {
		return true, nil
	}
	if _, err := ts.Get(ctx, userID, id); err != nil {
		return false, err
	}
	return false, nil
}

func (ts *taskStore) count(ctx context.Context, filter bson.M) (int, error) {
	n, err := ts.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	return int(n), nil
}

func (ts *taskStore) CountCompletedBetween(ctx context.Context, userID string, from, to time.Time) (int, error) {
	return ts.count(ctx, bson.M{
		"userId":      userID,
		"completed":   true,
		"completedAt": bson.M{"$gte": from, "$lt": to},
	})
}

func (ts *taskStore) CountCompleted(ctx context.Context, userID string) (int, error) {
	return ts.count(ctx, bson.M{"userId": userID, "completed": true})
}

func (ts *taskStore) CountMasteredHabitTitles(ctx context.Context, userID string, minCompletions int) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID, "isHabit": true, "completed": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$title", "n": bson.M{"$sum": 1}}}},
		{{Key: "$match", Value: bson.M{"n": bson.M{"$gte": minCompletions}}}},
		{{Key: "$count", Value: "mastered"}},
	}
	cur, err := ts.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to count mastered habits: %w", err)
	}
	defer cur.Close(ctx)

	var out []struct {
		Mastered int `bson:"mastered"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, fmt.Errorf("failed to decode mastered habits: %w", err)
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].Mastered, nil
}
