package service

import (
	"context"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prokazin/telegram-trading/internal/models"
	"github.com/prokazin/telegram-trading/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.MustInit("test")
	os.Exit(m.Run())
}

type fakeAPI struct {
	rankingRows []models.PlayerStats
	rankingErr  error
	submitErr   error
	submitted   []models.TradeResult
	player      *models.PlayerStats
}

func (f *fakeAPI) Ranking(_ context.Context, _, _ int) ([]models.PlayerStats, error) {
	return f.rankingRows, f.rankingErr
}

func (f *fakeAPI) SubmitTrade(_ context.Context, res models.TradeResult) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, res)
	return nil
}

func (f *fakeAPI) Player(_ context.Context, _ string) (*models.PlayerStats, error) {
	return f.player, nil
}

type fakeBoardStore struct {
	saved [][]models.BoardRow
	board []models.BoardRow
}

func (f *fakeBoardStore) SaveBoard(_ context.Context, board []models.BoardRow) error {
	f.saved = append(f.saved, board)
	return nil
}

func (f *fakeBoardStore) Board(_ context.Context) ([]models.BoardRow, error) {
	return f.board, nil
}

func TestUpdateLocalSortAndCap(t *testing.T) {
	t.Parallel()

	store := &fakeBoardStore{}
	r := NewReconciler(&fakeAPI{}, store, 10)
	ctx := context.Background()

	for i, profit := range []float64{5, 100, -3, 50, 100, 7, 8, 9, 10, 11, 12} {
		r.UpdateLocal(ctx, "p"+string(rune('a'+i)), profit)
	}

	board := r.Board()
	require.Len(t, board, 10) // кап

	// убывание по профиту
	for i := 1; i < len(board); i++ {
		assert.GreaterOrEqual(t, board[i-1].Profit, board[i].Profit)
	}
	// при равном профите раньше добавленный выше (стабильная сортировка)
	assert.Equal(t, "pb", board[0].Name)
	assert.Equal(t, "pe", board[1].Name)
	// худший результат вытеснен
	for _, row := range board {
		assert.NotEqual(t, -3.0, row.Profit)
	}

	// каждый апдейт персистится
	assert.Len(t, store.saved, 11)
}

func TestPushFailureKeepsCache(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		rankingRows: []models.PlayerStats{{Rank: 1, Username: "alice", TotalProfit: 500}},
	}
	r := NewReconciler(api, &fakeBoardStore{}, 10)
	ctx := context.Background()

	require.NoError(t, r.Refresh(ctx))
	require.Len(t, r.Board(), 1)

	// сабмит падает — кэш не трогаем
	api.submitErr = errors.New("network down")
	api.rankingRows = nil
	r.Push(ctx, models.TradeResult{TelegramID: "1"})

	board := r.Board()
	require.Len(t, board, 1)
	assert.Equal(t, "alice", board[0].Name)
}

func TestPushSuccessRefreshesWholesale(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		rankingRows: []models.PlayerStats{
			{Rank: 1, Username: "old_leader", TotalProfit: 100},
		},
	}
	r := NewReconciler(api, &fakeBoardStore{}, 10)
	ctx := context.Background()

	require.NoError(t, r.Refresh(ctx))

	api.rankingRows = []models.PlayerStats{
		{Rank: 1, Username: "new_leader", TotalProfit: 900},
		{Rank: 2, Username: "runner_up", TotalProfit: 400},
	}
	r.Push(ctx, models.TradeResult{TelegramID: "1"})

	board := r.Board()
	require.Len(t, board, 2)
	assert.Equal(t, "new_leader", board[0].Name)
	require.Len(t, api.submitted, 1)
}

func TestBoardFallsBackToLocal(t *testing.T) {
	t.Parallel()

	r := NewReconciler(&fakeAPI{}, &fakeBoardStore{}, 10)
	ctx := context.Background()

	r.UpdateLocal(ctx, "offline_player", 42)

	board := r.Board()
	require.Len(t, board, 1)
	assert.Equal(t, "offline_player", board[0].Name)
}

func TestBoardAnonymousName(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		rankingRows: []models.PlayerStats{{Rank: 3, Username: "", TotalProfit: 9}},
	}
	r := NewReconciler(api, nil, 10)

	require.NoError(t, r.Refresh(context.Background()))
	board := r.Board()
	require.Len(t, board, 1)
	assert.Equal(t, "Игрок 3", board[0].Name)
}

func TestRestore(t *testing.T) {
	t.Parallel()

	store := &fakeBoardStore{
		board: []models.BoardRow{{Name: "persisted", Profit: 77}},
	}
	r := NewReconciler(&fakeAPI{}, store, 10)
	r.Restore(context.Background())

	board := r.Board()
	require.Len(t, board, 1)
	assert.Equal(t, "persisted", board[0].Name)
}
