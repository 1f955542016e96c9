package store

import (
	"strings"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
)

type Rarity string

const (
	RarityCommon Rarity = "common"
	RarityRare   Rarity = "rare"
	RarityEpic   Rarity = "epic"
)

// Badge is a cosmetic catalog item paid for with XP. Ownership lives on the user.
type Badge struct {
	ID          string    `json:"id" bson:"_id" db:"id"`
	Name        string    `json:"name" bson:"name" db:"name"`
	Description string    `json:"description" bson:"description" db:"description"`
	Price       int       `json:"price" bson:"price" db:"price"`
	Rarity      Rarity    `json:"rarity" bson:"rarity" db:"rarity"`
	Icon        string    `json:"icon" bson:"icon" db:"icon"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt" db:"created_at"`
}

type PurchaseRequest struct {
	BadgeID string `json:"badgeId"`
}

func (r *PurchaseRequest) Validate() error {
	r.BadgeID = strings.TrimSpace(r.BadgeID)
	if r.BadgeID == "" {
		return apperror.Validation("Badge ID is required")
	}
	return nil
}

type Purchase struct {
	Badge       *Badge    `json:"badge"`
	XPSpent     int       `json:"xpSpent"`
	XP          int       `json:"xp"`
	Level       int       `json:"level"`
	Badges      []string  `json:"badges"`
	PurchasedAt time.Time `json:"purchasedAt"`
}

// StoreResponse groups the catalog by rarity for the store page.
type StoreResponse struct {
	Common   []*Badge `json:"common"`
	Rare     []*Badge `json:"rare"`
	Epic     []*Badge `json:"epic"`
	UserXP   int      `json:"userXp,omitempty"`
	OwnedIDs []string `json:"owned,omitempty"`
}
