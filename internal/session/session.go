package session

import (
	"context"
	"sync"

	"github.com/prokazin/telegram-trading/internal/models"
	ledgersvc "github.com/prokazin/telegram-trading/internal/modules/ledger/service"
	marketsvc "github.com/prokazin/telegram-trading/internal/modules/market/service"
	"github.com/prokazin/telegram-trading/pkg/logger"
)

// Notifier — уведомления игроку об авто-закрытиях (телеграм).
type Notifier interface {
	TradeClosed(ctx context.Context, userID int64, rec *models.TradeRecord)
}

// Session — игровая сессия одного игрока. Все мутации аккаунта идут под
// одним мьютексом: закрытие полностью применяется к балансу и истории
// до того, как следующий тик возьмётся за оставшиеся позиции.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	acc *models.Account

	ledger *ledgersvc.Ledger
	sim    *marketsvc.Simulator
	n      Notifier
}

// Контекст создаётся здесь, до запуска горутины: stop() из чужой
// горутины всегда видит готовый cancel.
func newSession(parent context.Context, acc *models.Account, ledger *ledgersvc.Ledger, sim *marketsvc.Simulator, n Notifier) *Session {
	s := &Session{
		acc:    acc,
		ledger: ledger,
		sim:    sim,
		n:      n,
	}
	s.ctx, s.cancel = context.WithCancel(parent)
	return s
}

func (s *Session) run() {
	sub := s.sim.Subscribe()
	defer s.sim.Unsubscribe(sub)

	for {
		select {
		case <-s.ctx.Done():
			return
		case ticks, ok := <-sub:
			if !ok {
				return
			}
			s.onTick(ticks)
		}
	}
}

func (s *Session) onTick(ticks []models.PriceTick) {
	prices := make(map[string]float64, len(ticks))
	for _, t := range ticks {
		prices[t.Symbol] = t.Price
	}

	s.mu.Lock()
	closed, err := s.ledger.EvaluateAll(s.ctx, s.acc, prices)
	s.mu.Unlock()
	if err != nil {
		logger.Error("evaluate user %d: %v", s.acc.UserID, err)
	}

	for _, rec := range closed {
		if s.n != nil {
			s.n.TradeClosed(s.ctx, s.acc.UserID, rec)
		}
	}
}

func (s *Session) stop() {
	s.cancel()
}

// Open — открытие позиции по команде игрока.
func (s *Session) Open(ctx context.Context, req ledgersvc.OpenRequest) (*models.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Open(ctx, s.acc, req)
}

// ClosePosition — закрытие по команде игрока.
func (s *Session) ClosePosition(ctx context.Context, id int64) (*models.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Close(ctx, s.acc, id)
}

func (s *Session) Balance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.Balance
}

// Positions — копия открытых позиций с последним рассчитанным PnL.
func (s *Session) Positions() []models.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Position, 0, len(s.acc.Positions))
	for _, p := range s.acc.Positions {
		out = append(out, *p)
	}
	return out
}

// History — последние n закрытых сделок.
func (s *Session) History(n int) []models.TradeRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	recent := s.acc.RecentHistory(n)
	out := make([]models.TradeRecord, 0, len(recent))
	for _, r := range recent {
		out = append(out, *r)
	}
	return out
}

// Apply выполняет fn над аккаунтом под мьютексом сессии
// (депозиты, сбросы и прочие внешние мутации).
func (s *Session) Apply(fn func(acc *models.Account) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.acc)
}
