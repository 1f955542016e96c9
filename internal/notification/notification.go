package notification

import "time"

type NotificationType string

const (
	TypeAchievement NotificationType = "achievement"
	TypeLevelUp     NotificationType = "level_up"
	TypeStreakRisk  NotificationType = "streak_risk"
)

type DeviceToken struct {
	Token     string    `json:"token" bson:"token"`
	Platform  string    `json:"platform" bson:"platform"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Notification struct {
	UserID string           `json:"userId"`
	Type   NotificationType `json:"type"`
	Title  string           `json:"title"`
	Body   string           `json:"body"`
	Data   map[string]any   `json:"data,omitempty"`
	Tokens []DeviceToken    `json:"-"`
}
