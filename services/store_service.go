package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/apperror"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/progression"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/store"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/user"
)

type StoreService struct {
	store  storage.Store
	board  LeaderboardCache
	logger *slog.Logger
	now    func() time.Time
}

func NewStoreService(st storage.Store, logger *slog.Logger) *StoreService {
	return &StoreService{store: st, logger: logger, now: time.Now}
}

func (s *StoreService) SetLeaderboardCache(c LeaderboardCache) { s.board = c }

func (s *StoreService) ListBadges(ctx context.Context) ([]*store.Badge, error) {
	return s.store.Badges().List(ctx)
}

// GetStore groups the catalog by rarity and marks what the user already owns.
func (s *StoreService) GetStore(ctx context.Context, userID string) (*store.StoreResponse, error) {
	badges, err := s.store.Badges().List(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &store.StoreResponse{
		Common:   []*store.Badge{},
		Rare:     []*store.Badge{},
		Epic:     []*store.Badge{},
		UserXP:   u.XP,
		OwnedIDs: u.Badges,
	}
	for _, b := range badges {
		switch b.Rarity {
		case store.RarityRare:
			resp.Rare = append(resp.Rare, b)
		case store.RarityEpic:
			resp.Epic = append(resp.Epic, b)
		default:
			resp.Common = append(resp.Common, b)
		}
	}
	return resp, nil
}

// PurchaseBadge spends XP on a badge. The level is recalculated from the remaining XP so the
// level formula holds after every XP change.
func (s *StoreService) PurchaseBadge(ctx context.Context, userID string, req *store.PurchaseRequest) (*store.Purchase, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	badge, err := s.store.Badges().Get(ctx, req.BadgeID)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.Users().UpdateProgress(ctx, userID, func(u *user.User) error {
		if u.HasBadge(badge.ID) {
			return apperror.Validation("Badge already owned")
		}
		if u.XP < badge.Price {
			return apperror.Validation("Not enough XP to buy %s", badge.Name)
		}
		u.XP -= badge.Price
		u.Level = progression.LevelForXP(u.XP)
		u.Badges = append(u.Badges, badge.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.board != nil {
		if err := s.board.SetScore(ctx, updated.ID, updated.Username, updated.XP); err != nil {
			s.logger.Warn("leaderboard update failed", slog.String("user_id", updated.ID), slog.String("error", err.Error()))
		}
	}

	return &store.Purchase{
		Badge:       badge,
		XPSpent:     badge.Price,
		XP:          updated.XP,
		Level:       updated.Level,
		Badges:      updated.Badges,
		PurchasedAt: s.now(),
	}, nil
}
