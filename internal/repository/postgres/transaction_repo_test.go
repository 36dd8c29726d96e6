package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dtran/focus-rival/internal/domain"
	"github.com/dtran/focus-rival/internal/repository/postgres"
	"github.com/dtran/focus-rival/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionRepository_SumForUserSince(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	other, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	since := time.Now().Add(-time.Hour)

	entries := []struct {
		userID uuid.UUID
		amount int
		at     time.Time
	}{
		{user.ID, 100, since.Add(-time.Minute)}, // before the window
		{user.ID, 3, since.Add(time.Minute)},
		{user.ID, 4, since.Add(2 * time.Minute)},
		{other.ID, 50, since.Add(time.Minute)}, // different user
	}
	for _, e := range entries {
		require.NoError(t, repo.Create(ctx, &domain.CoinTransaction{
			ID:        uuid.New(),
			UserID:    e.userID,
			Amount:    e.amount,
			Source:    domain.TransactionSourceManual,
			CreatedAt: e.at,
		}))
	}

	sum, err := repo.SumForUserSince(ctx, user.ID, since)
	require.NoError(t, err)
	assert.Equal(t, 7, sum, "only this user's entries inside the window count")

	sum, err = repo.SumForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 107, sum, "lifetime total spans the full ledger")
}

func TestTransactionRepository_SumWithNoEntries(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	sum, err := repo.SumForUserSince(ctx, uuid.New(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, sum, "an empty ledger sums to zero, not an error")

	sum, err = repo.SumForUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, sum)
}

func TestTransactionRepository_ListByUser(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewTransactionRepository(testDB.DB)
	ctx := context.Background()

	user, _ := testutil.NewUserBuilder().Build(t, testDB.DB)
	base := time.Now().Add(-time.Hour)

	for i, amount := range []int{1, 2, 3} {
		require.NoError(t, repo.Create(ctx, &domain.CoinTransaction{
			ID:        uuid.New(),
			UserID:    user.ID,
			Amount:    amount,
			Source:    domain.TransactionSourceFocus,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := repo.ListByUser(ctx, user.ID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Amount, "newest entry first")
	assert.Equal(t, 2, got[1].Amount)
}
