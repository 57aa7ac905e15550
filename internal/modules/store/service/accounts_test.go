package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prokazin/telegram-trading/internal/models"
)

func newTestStore(t *testing.T) (*Accounts, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.json")
	return NewAccounts(path), path
}

func TestGetMissingAccount(t *testing.T) {
	t.Parallel()

	a, _ := newTestStore(t)
	acc, err := a.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, acc)
}

func TestSaveAndReloadFromDisk(t *testing.T) {
	t.Parallel()

	a, path := newTestStore(t)
	ctx := context.Background()

	acc := &models.Account{
		UserID:  7,
		Name:    "alice",
		Balance: 1234.5,
		History: []*models.TradeRecord{
			{
				Position:   models.Position{ID: 1, Symbol: "BTC", Direction: models.Long, Entry: 50000, Amount: 100, Leverage: 2},
				ExitPrice:  51000,
				PnLAmount:  4,
				PnLPercent: 2,
				ClosedAt:   time.Now(),
			},
		},
	}
	require.NoError(t, a.Save(ctx, acc))

	// свежий стор читает тот же файл
	b := NewAccounts(path)
	got, err := b.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, 1234.5, got.Balance)
	require.Len(t, got.History, 1)
	assert.Equal(t, "BTC", got.History[0].Symbol)
}

func TestSaveIsolatesCaller(t *testing.T) {
	t.Parallel()

	a, _ := newTestStore(t)
	ctx := context.Background()

	acc := &models.Account{UserID: 3, Balance: 100}
	require.NoError(t, a.Save(ctx, acc))

	// мутация исходника после Save не протекает в стор
	acc.Balance = 99999
	got, err := a.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Balance)
}

func TestBoardRoundTrip(t *testing.T) {
	t.Parallel()

	a, path := newTestStore(t)
	ctx := context.Background()

	board := []models.BoardRow{
		{Name: "alice", Profit: 500},
		{Name: "bob", Profit: -20},
	}
	require.NoError(t, a.SaveBoard(ctx, board))

	b := NewAccounts(path)
	got, err := b.Board(ctx)
	require.NoError(t, err)
	assert.Equal(t, board, got)
}

func TestCorruptedFileIsError(t *testing.T) {
	t.Parallel()

	a, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := a.Get(context.Background(), 1)
	assert.Error(t, err)
}

func TestNoTmpFileLeftBehind(t *testing.T) {
	t.Parallel()

	a, path := newTestStore(t)
	require.NoError(t, a.Save(context.Background(), &models.Account{UserID: 1}))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
