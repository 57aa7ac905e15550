package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prokazin/telegram-trading/internal/modules/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Market.HistoryCap = 100
	cfg.Market.Instruments = []config.InstrumentConfig{
		{Symbol: "BTC", Price: 50000, Volatility: 0.02},
		{Symbol: "ETH", Price: 3000, Volatility: 0.03},
		{Symbol: "DOGE", Price: 0.15, Volatility: 0.05},
	}
	return cfg
}

func TestBackfillFillsHistory(t *testing.T) {
	t.Parallel()

	s := NewSimulatorSeeded(testConfig(), 1)

	for _, sym := range s.Symbols() {
		h := s.History(sym)
		require.Len(t, h, 100, "symbol %s", sym)
		for i, p := range h {
			assert.Greater(t, p, 0.0, "symbol %s point %d", sym, i)
		}
	}
	// первая точка — стартовая цена
	assert.Equal(t, 50000.0, s.History("BTC")[0])
}

func TestTickMovesPricesWithinVolatility(t *testing.T) {
	t.Parallel()

	s := NewSimulatorSeeded(testConfig(), 7)
	before := s.Prices()

	ticks := s.Tick()
	require.Len(t, ticks, 3)

	for _, tk := range ticks {
		prev := before[tk.Symbol]
		// |дельта| ≤ volatility*prev
		var vol float64
		switch tk.Symbol {
		case "BTC":
			vol = 0.02
		case "ETH":
			vol = 0.03
		case "DOGE":
			vol = 0.05
		}
		assert.LessOrEqual(t, absFloat(tk.Price-prev), vol*prev+1e-9, "symbol %s", tk.Symbol)
	}
}

func TestTickNeverNonPositive(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Market.HistoryCap = 10
	// волатильность выше 0.5 даёт дельты больше цены: без нижней
	// границы цена регулярно уходила бы в минус
	cfg.Market.Instruments = []config.InstrumentConfig{
		{Symbol: "PUMP", Price: 1, Volatility: 0.6},
	}

	s := NewSimulatorSeeded(cfg, 3)
	for i := 0; i < 10000; i++ {
		s.Tick()
		price, ok := s.Price("PUMP")
		require.True(t, ok)
		require.Greater(t, price, 0.0, "iteration %d", i)
	}
}

func TestHistoryCapFIFO(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Market.HistoryCap = 5
	s := NewSimulatorSeeded(cfg, 11)

	require.Len(t, s.History("BTC"), 5)

	var lastTick float64
	for i := 0; i < 20; i++ {
		for _, tk := range s.Tick() {
			if tk.Symbol == "BTC" {
				lastTick = tk.Price
			}
		}
	}

	h := s.History("BTC")
	require.Len(t, h, 5)
	// последняя точка истории — последний тик
	assert.Equal(t, lastTick, h[len(h)-1])
}

func TestSubscribeReceivesBatch(t *testing.T) {
	t.Parallel()

	s := NewSimulatorSeeded(testConfig(), 5)
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	sent := s.Tick()
	got := <-ch
	assert.Equal(t, sent, got)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()

	s := NewSimulatorSeeded(testConfig(), 5)
	ch := s.Subscribe()
	s.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	// повторная отписка не паникует
	s.Unsubscribe(ch)
}

func TestDeterministicWithSameSeed(t *testing.T) {
	t.Parallel()

	a := NewSimulatorSeeded(testConfig(), 99)
	b := NewSimulatorSeeded(testConfig(), 99)

	for i := 0; i < 50; i++ {
		a.Tick()
		b.Tick()
	}
	assert.Equal(t, a.Prices(), b.Prices())
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
