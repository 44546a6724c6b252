package seeder_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokerlog/internal/seeder"
	"pokerlog/internal/sessions"
	"pokerlog/internal/testsupport"
)

func TestSeederRun(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	s := seeder.NewSeeder(dbManager, logger, 25).WithSeed(42)
	user, err := s.Run(context.Background(), seeder.DefaultEmail, seeder.DefaultName, seeder.DefaultPassword)
	require.NoError(t, err)

	rows, err := sessions.List(db, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 25)

	yearAgo := time.Now().AddDate(-1, 0, -2)
	for _, r := range rows {
		assert.True(t, r.Winnings.Equal(r.EndAmount.Sub(r.BuyIn)), "winnings follow buy-in and end amount")
		assert.True(t, sessions.IsValidLocationType(r.LocationType))
		assert.False(t, r.BuyIn.IsNegative())
		assert.True(t, r.Timestamp.After(yearAgo))
		assert.NotEmpty(t, r.GameType)
	}

	// A second run reuses the user and appends.
	again, err := s.Run(context.Background(), seeder.DefaultEmail, seeder.DefaultName, seeder.DefaultPassword)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	count, err := sessions.Count(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), count)
}

func TestSeederStopsOnCancel(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seeder.NewSeeder(dbManager, logger, 10).Run(ctx, "cancel@example.com", "Cancel", "password123")
	assert.ErrorIs(t, err, context.Canceled)
}
