package user

import (
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/notification"
)

type User struct {
	ID                    string                        `json:"id" bson:"_id"`
	Username              string                        `json:"username" bson:"username"`
	Email                 string                        `json:"email" bson:"email"`
	PasswordHash          string                        `json:"-" bson:"passwordHash"`
	XP                    int                           `json:"xp" bson:"xp"`
	Level                 int                           `json:"level" bson:"level"`
	Streak                int                           `json:"streak" bson:"streak"`
	LongestStreak         int                           `json:"longestStreak" bson:"longestStreak"`
	LastActive            *time.Time                    `json:"lastActive,omitempty" bson:"lastActive,omitempty"`
	Achievements          []achievement.UserAchievement `json:"achievements" bson:"achievements"`
	Badges                []string                      `json:"badges" bson:"badges"`
	FitnessPlansCompleted int                           `json:"fitnessPlansCompleted" bson:"fitnessPlansCompleted"`
	DeviceTokens          []notification.DeviceToken    `json:"-" bson:"deviceTokens"`
	CreatedAt             time.Time                     `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time                     `json:"updatedAt" bson:"updatedAt"`
	Rev                   int64                         `json:"-" bson:"rev"`
}

func (u *User) HasAchievement(id string) bool {
	for _, a := range u.Achievements {
		if a.AchievementID == id {
			return true
		}
	}
	return false
}

func (u *User) HasBadge(id string) bool {
	for _, b := range u.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stores never hand out shared slices.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.LastActive != nil {
		t := *u.LastActive
		c.LastActive = &t
	}
	c.Achievements = make([]achievement.UserAchievement, len(u.Achievements))
	for i, a := range u.Achievements {
		if a.CompletedAt != nil {
			t := *a.CompletedAt
			a.CompletedAt = &t
		}
		c.Achievements[i] = a
	}
	c.Badges = append([]string{}, u.Badges...)
	c.DeviceTokens = append([]notification.DeviceToken{}, u.DeviceTokens...)
	return &c
}
