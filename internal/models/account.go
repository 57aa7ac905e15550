package models

import "time"

// Account — локальное состояние игрока. Баланс здесь авторитетный,
// удалённый рейтинг — только advisory.
type Account struct {
	UserID int64  `json:"user_id"` // Telegram chat/user ID
	Name   string `json:"name"`

	Balance float64 `json:"balance"`
	Stars   float64 `json:"stars"`

	// открытые позиции; поиск по ID, порядок — порядок открытия
	Positions []*Position `json:"positions"`
	// история закрытых сделок, самая свежая — первая
	History []*TradeRecord `json:"history"`

	Purchases []Purchase `json:"purchases,omitempty"`
	BonusUsed bool       `json:"bonus_used"`

	CreatedAt time.Time `json:"created_at"`
	LastLogin time.Time `json:"last_login"`
}

// Purchase — пополнение баланса через Telegram Stars.
type Purchase struct {
	Stars   float64   `json:"stars"`
	Dollars float64   `json:"dollars"`
	Bonus   float64   `json:"bonus"`
	Total   float64   `json:"total"`
	At      time.Time `json:"date"`
}

func (a *Account) Position(id int64) (*Position, bool) {
	for _, p := range a.Positions {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

func (a *Account) RemovePosition(id int64) bool {
	for i, p := range a.Positions {
		if p.ID == id {
			a.Positions = append(a.Positions[:i], a.Positions[i+1:]...)
			return true
		}
	}
	return false
}

// PushHistory добавляет запись в начало истории (как unshift в клиенте).
func (a *Account) PushHistory(rec *TradeRecord) {
	a.History = append([]*TradeRecord{rec}, a.History...)
}

// RecentHistory — окно для отображения; полная история сохраняется целиком.
func (a *Account) RecentHistory(n int) []*TradeRecord {
	if n <= 0 || n >= len(a.History) {
		return a.History
	}
	return a.History[:n]
}
