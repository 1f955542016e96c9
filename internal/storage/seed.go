package storage

import (
	"context"
	"fmt"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/achievement"
	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/store"
)

// Seed installs the default achievement and badge catalogs. Entries are upserted by name, so
// running it twice is harmless.
func Seed(ctx context.Context, s Store) error {
	for _, tmpl := range achievement.Defaults {
		a := tmpl
		if err := s.Achievements().Upsert(ctx, &a); err != nil {
			return fmt.Errorf("failed to seed achievement %q: %w", a.Name, err)
		}
	}
	for _, tmpl := range store.Defaults {
		b := tmpl
		if err := s.Badges().Upsert(ctx, &b); err != nil {
			return fmt.Errorf("failed to seed badge %q: %w", b.Name, err)
		}
	}
	return nil
}
