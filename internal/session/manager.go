package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/prokazin/telegram-trading/internal/models"
	hsvc "github.com/prokazin/telegram-trading/internal/modules/health/service"
	ledgersvc "github.com/prokazin/telegram-trading/internal/modules/ledger/service"
	marketsvc "github.com/prokazin/telegram-trading/internal/modules/market/service"
)

// Manager управляет игровыми сессиями разных игроков.
type Manager struct {
	ledger *ledgersvc.Ledger
	sim    *marketsvc.Simulator
	state  *hsvc.State

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewManager(ledger *ledgersvc.Ledger, sim *marketsvc.Simulator, state *hsvc.State) *Manager {
	return &Manager{
		ledger:   ledger,
		sim:      sim,
		sessions: make(map[int64]*Session),
		state:    state,
	}
}

// StartForPlayer поднимает сессию игрока (если ещё не запущена).
// Аккаунт уже загружен/создан стором к этому моменту.
func (m *Manager) StartForPlayer(ctx context.Context, acc *models.Account, n Notifier) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, running := m.sessions[acc.UserID]; running {
		return s, nil
	}

	s := newSession(ctx, acc, m.ledger, m.sim, n)
	m.sessions[acc.UserID] = s
	if m.state != nil {
		m.state.SessionStarted()
	}

	go func() {
		s.run()

		m.mu.Lock()
		delete(m.sessions, acc.UserID)
		m.mu.Unlock()
		if m.state != nil {
			m.state.SessionStopped()
		}
	}()

	return s, nil
}

// StopForPlayer гасит сессию игрока (если запущена).
func (m *Manager) StopForPlayer(userID int64) error {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("session not running for user %d", userID)
	}
	s.stop()
	return nil
}

// Session — живая сессия игрока, если есть.
func (m *Manager) Session(userID int64) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}
