package user

import (
	"net/mail"
	"strings"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the complete allow-list of profile fields a user may change.
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

type AwardXPRequest struct {
	Amount int    `json:"amount"`
	Source string `json:"source"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type AuthResponse struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Profile struct {
	*User
	StreakExpiresIn int `json:"streakExpiresIn"`
}

type Stats struct {
	XP                   int `json:"xp"`
	Level                int `json:"level"`
	XPToNextLevel        int `json:"xpToNextLevel"`
	Streak               int `json:"streak"`
	LongestStreak        int `json:"longestStreak"`
	StreakExpiresIn      int `json:"streakExpiresIn"`
	TasksCompletedToday  int `json:"tasksCompletedToday"`
	TasksCompletedTotal  int `json:"tasksCompletedTotal"`
	AchievementsUnlocked int `json:"achievementsUnlocked"`
	BadgesOwned          int `json:"badgesOwned"`
	GamesPlayed          int `json:"gamesPlayed"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidateUsername(username string) error {
	n := len([]rune(strings.TrimSpace(username)))
	if n < 3 || n > 30 {
		return apperror.Validation("Username must be between 3 and 30 characters")
	}
	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return apperror.Validation("Email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperror.Validation("Email is invalid")
	}
	return nil
}

func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = NormalizeEmail(r.Email)
	if err := ValidateUsername(r.Username); err != nil {
		return err
	}
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if len(r.Password) < 6 {
		return apperror.Validation("Password must be at least 6 characters")
	}
	return nil
}

func (r *LoginRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	if r.Email == "" || r.Password == "" {
		return apperror.Validation("Email and password are required")
	}
	return nil
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Username == nil && r.Email == nil {
		return apperror.Validation("No updatable fields provided")
	}
	if r.Username != nil {
		trimmed := strings.TrimSpace(*r.Username)
		r.Username = &trimmed
		if err := ValidateUsername(trimmed); err != nil {
			return err
		}
	}
	if r.Email != nil {
		normalized := NormalizeEmail(*r.Email)
		r.Email = &normalized
		if err := ValidateEmail(normalized); err != nil {
			return err
		}
	}
	return nil
}

func (r *RegisterDeviceRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return apperror.Validation("Device token is required")
	}
	switch r.Platform {
	case "ios", "android", "web":
		return nil
	case "":
		r.Platform = "android"
		return nil
	default:
		return apperror.Validation("Platform must be one of ios, android, web")
	}
}
