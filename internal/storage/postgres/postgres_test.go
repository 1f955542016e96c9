package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ronitsabhaya75/Habit-Quest-sub001/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := Open(ctx, dbURL)
	require.NoError(t, err)
	s := New(pool)
	defer s.Close(context.Background())

	storagetest.Run(t, s)
}
