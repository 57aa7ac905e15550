package session

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prokazin/telegram-trading/internal/models"
	"github.com/prokazin/telegram-trading/internal/modules/config"
	ledgersvc "github.com/prokazin/telegram-trading/internal/modules/ledger/service"
	marketsvc "github.com/prokazin/telegram-trading/internal/modules/market/service"
	"github.com/prokazin/telegram-trading/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.MustInit("test")
	os.Exit(m.Run())
}

type memStore struct {
	mu    sync.Mutex
	saves int
}

func (s *memStore) Save(_ context.Context, _ *models.Account) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	closed []*models.TradeRecord
}

func (n *recordingNotifier) TradeClosed(_ context.Context, _ int64, rec *models.TradeRecord) {
	n.mu.Lock()
	n.closed = append(n.closed, rec)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.closed)
}

func newTestEnv(t *testing.T) (*Manager, *marketsvc.Simulator) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Market.HistoryCap = 10
	cfg.Market.Instruments = []config.InstrumentConfig{
		{Symbol: "BTC", Price: 50000, Volatility: 0.02},
	}
	sim := marketsvc.NewSimulatorSeeded(cfg, 17)
	ledger := ledgersvc.NewLedger(10, &memStore{}, sim, nil)
	return NewManager(ledger, sim, nil), sim
}

func TestStartForPlayerIdempotent(t *testing.T) {
	t.Parallel()

	m, _ := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	acc := &models.Account{UserID: 1, Balance: 1000}
	s1, err := m.StartForPlayer(ctx, acc, nil)
	require.NoError(t, err)
	s2, err := m.StartForPlayer(ctx, acc, nil)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestStopForPlayer(t *testing.T) {
	t.Parallel()

	m, _ := newTestEnv(t)
	ctx := context.Background()

	acc := &models.Account{UserID: 2, Balance: 1000}
	_, err := m.StartForPlayer(ctx, acc, nil)
	require.NoError(t, err)

	require.NoError(t, m.StopForPlayer(2))
	require.Eventually(t, func() bool {
		_, ok := m.Session(2)
		return !ok
	}, time.Second, time.Millisecond)

	// повторная остановка — ошибка, сессии уже нет
	assert.Error(t, m.StopForPlayer(2))
}

func TestStopImmediatelyAfterStart(t *testing.T) {
	t.Parallel()

	m, _ := newTestEnv(t)
	ctx := context.Background()

	// стоп сразу после старта не должен проигрывать гонку запуску
	// горутины: сессия обязана завершиться, а не тикать дальше
	for i := 0; i < 50; i++ {
		acc := &models.Account{UserID: 100 + int64(i), Balance: 1000}
		_, err := m.StartForPlayer(ctx, acc, nil)
		require.NoError(t, err)
		require.NoError(t, m.StopForPlayer(acc.UserID))

		require.Eventually(t, func() bool {
			_, ok := m.Session(acc.UserID)
			return !ok
		}, time.Second, time.Millisecond, "iteration %d", i)
	}
}

func TestAutoCloseNotifiesPlayer(t *testing.T) {
	t.Parallel()

	m, sim := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := &recordingNotifier{}
	acc := &models.Account{UserID: 3, Balance: 1000}
	s, err := m.StartForPlayer(ctx, acc, n)
	require.NoError(t, err)

	// 10x: почти любой тик двинет цену дальше порога ликвидации
	// либо TP 0.1% — сессия обязана закрыть и уведомить
	_, err = s.Open(ctx, ledgersvc.OpenRequest{
		Symbol:     "BTC",
		Direction:  models.Long,
		Amount:     100,
		Leverage:   10,
		StopLoss:   0.1,
		TakeProfit: 0.1,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		sim.Tick()
		return n.count() == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.Empty(t, s.Positions())
	require.Len(t, s.History(10), 1)
}

func TestCloseAppliedBeforeNextTick(t *testing.T) {
	t.Parallel()

	m, sim := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := &recordingNotifier{}
	acc := &models.Account{UserID: 4, Balance: 1000}
	s, err := m.StartForPlayer(ctx, acc, n)
	require.NoError(t, err)

	_, err = s.Open(ctx, ledgersvc.OpenRequest{
		Symbol: "BTC", Direction: models.Long, Amount: 100, Leverage: 1,
		StopLoss: 0.01, TakeProfit: 0.01,
	})
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		sim.Tick()
	}

	require.Eventually(t, func() bool {
		return n.count() >= 1
	}, 5*time.Second, time.Millisecond)

	// сколько бы тиков ни прошло после закрытия, позиция закрыта
	// ровно один раз и баланс применён один раз
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, n.count())
	require.Len(t, s.History(10), 1)

	rec := s.History(10)[0]
	assert.InDelta(t, 1000+rec.PnLAmount, s.Balance(), 1e-9)
}

func TestApplyRunsUnderSessionLock(t *testing.T) {
	t.Parallel()

	m, _ := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	acc := &models.Account{UserID: 5, Balance: 1000}
	s, err := m.StartForPlayer(ctx, acc, nil)
	require.NoError(t, err)

	err = s.Apply(func(a *models.Account) error {
		a.Balance += 50
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1050.0, s.Balance())
}
