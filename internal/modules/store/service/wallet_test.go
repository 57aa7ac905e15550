package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prokazin/telegram-trading/internal/models"
)

func TestOnboard(t *testing.T) {
	t.Parallel()

	a, _ := newTestStore(t)
	ctx := context.Background()
	ts := models.DefaultTradingSettings()

	acc, err := a.Onboard(ctx, 10, "carol", ts)
	require.NoError(t, err)
	assert.Equal(t, ts.StartBalance, acc.Balance)
	assert.Equal(t, "carol", acc.Name)
	assert.False(t, acc.CreatedAt.IsZero())
	assert.False(t, acc.LastLogin.IsZero())

	// повторный вход не пересоздаёт аккаунт
	acc.Balance = 777
	require.NoError(t, a.Save(ctx, acc))

	again, err := a.Onboard(ctx, 10, "carol_renamed", ts)
	require.NoError(t, err)
	assert.Equal(t, 777.0, again.Balance)
	assert.Equal(t, "carol_renamed", again.Name)
	assert.Equal(t, acc.CreatedAt.Unix(), again.CreatedAt.Unix())
}

func TestDeposit(t *testing.T) {
	t.Parallel()

	a, _ := newTestStore(t)
	ctx := context.Background()
	ts := models.DefaultTradingSettings() // 1 звезда = $0.01, бонус 10%

	acc, err := a.Onboard(ctx, 20, "dave", ts)
	require.NoError(t, err)
	start := acc.Balance

	// первый депозит: 1000 звёзд = $10 + бонус $1
	p, err := a.Deposit(ctx, acc, 1000, ts)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, p.Dollars, 1e-9)
	assert.InDelta(t, 1.0, p.Bonus, 1e-9)
	assert.InDelta(t, 11.0, p.Total, 1e-9)
	assert.InDelta(t, start+11, acc.Balance, 1e-9)
	assert.True(t, acc.BonusUsed)

	// второй депозит без бонуса
	p2, err := a.Deposit(ctx, acc, 1000, ts)
	require.NoError(t, err)
	assert.Zero(t, p2.Bonus)
	assert.InDelta(t, 10.0, p2.Total, 1e-9)

	assert.Len(t, acc.Purchases, 2)
}

func TestDepositInvalid(t *testing.T) {
	t.Parallel()

	a, _ := newTestStore(t)
	ts := models.DefaultTradingSettings()
	acc := &models.Account{UserID: 1, Balance: 100}

	_, err := a.Deposit(context.Background(), acc, 0, ts)
	assert.ErrorIs(t, err, ErrDepositInvalid)
	_, err = a.Deposit(context.Background(), acc, -10, ts)
	assert.ErrorIs(t, err, ErrDepositInvalid)
}

func TestWithdraw(t *testing.T) {
	t.Parallel()

	a, _ := newTestStore(t)
	ctx := context.Background()
	ts := models.DefaultTradingSettings() // комиссия 5%

	acc := &models.Account{UserID: 30, Balance: 1000}
	require.NoError(t, a.Save(ctx, acc))

	net, err := a.Withdraw(ctx, acc, 200, ts)
	require.NoError(t, err)
	assert.InDelta(t, 190.0, net, 1e-9) // 200 - 5%
	assert.InDelta(t, 800.0, acc.Balance, 1e-9)
}

func TestWithdrawInvalid(t *testing.T) {
	t.Parallel()

	a, _ := newTestStore(t)
	ts := models.DefaultTradingSettings()
	acc := &models.Account{UserID: 1, Balance: 100}

	_, err := a.Withdraw(context.Background(), acc, 0, ts)
	assert.ErrorIs(t, err, ErrWithdrawInvalid)
	_, err = a.Withdraw(context.Background(), acc, 100.01, ts)
	assert.ErrorIs(t, err, ErrWithdrawInvalid)
}

func TestResetGame(t *testing.T) {
	t.Parallel()

	a, _ := newTestStore(t)
	ctx := context.Background()
	ts := models.DefaultTradingSettings()

	acc, err := a.Onboard(ctx, 40, "erin", ts)
	require.NoError(t, err)

	acc.Balance = 5
	acc.BonusUsed = true
	acc.Positions = []*models.Position{{ID: 1, Symbol: "BTC"}}
	acc.History = []*models.TradeRecord{{}}
	created := acc.CreatedAt

	require.NoError(t, a.ResetGame(ctx, acc, ts))

	assert.Equal(t, ts.StartBalance, acc.Balance)
	assert.Empty(t, acc.Positions)
	assert.Empty(t, acc.History)
	assert.Empty(t, acc.Purchases)
	assert.False(t, acc.BonusUsed)
	assert.Equal(t, created, acc.CreatedAt)
	assert.Equal(t, int64(40), acc.UserID)
}
