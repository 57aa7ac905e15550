package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/prokazin/telegram-trading/internal/models"
)

var (
	ErrDepositInvalid  = errors.New("deposit stars must be positive")
	ErrWithdrawInvalid = errors.New("withdraw amount out of range")
)

// Onboard возвращает аккаунт игрока, создавая его со стартовым балансом
// на первой сессии. Обновляет last_login на каждом входе.
func (a *Accounts) Onboard(ctx context.Context, userID int64, name string, ts models.TradingSettings) (*models.Account, error) {
	acc, err := a.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if acc == nil {
		acc = &models.Account{
			UserID:    userID,
			Name:      name,
			Balance:   ts.StartBalance,
			CreatedAt: now,
		}
	}
	if name != "" {
		acc.Name = name
	}
	acc.LastLogin = now
	if err := a.Save(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

// Deposit — конвертация Telegram Stars в игровые доллары.
// Первый депозит получает бонус FirstBonusPct.
func (a *Accounts) Deposit(ctx context.Context, acc *models.Account, stars float64, ts models.TradingSettings) (*models.Purchase, error) {
	if stars <= 0 {
		return nil, ErrDepositInvalid
	}

	dollars := stars * ts.StarsRate
	var bonus float64
	if !acc.BonusUsed {
		bonus = dollars * ts.FirstBonusPct / 100
		acc.BonusUsed = true
	}

	p := models.Purchase{
		Stars:   stars,
		Dollars: dollars,
		Bonus:   bonus,
		Total:   dollars + bonus,
		At:      time.Now(),
	}
	acc.Balance += p.Total
	acc.Purchases = append(acc.Purchases, p)

	if err := a.Save(ctx, acc); err != nil {
		return nil, err
	}
	return &p, nil
}

// Withdraw списывает amount с баланса, на руки игрок получает
// amount минус комиссия WithdrawFeePct.
func (a *Accounts) Withdraw(ctx context.Context, acc *models.Account, amount float64, ts models.TradingSettings) (net float64, err error) {
	if amount <= 0 || amount > acc.Balance {
		return 0, ErrWithdrawInvalid
	}
	fee := amount * ts.WithdrawFeePct / 100
	acc.Balance -= amount
	if err := a.Save(ctx, acc); err != nil {
		return 0, err
	}
	return amount - fee, nil
}

// ResetGame — полный сброс игры игрока: стартовый баланс, пустые
// позиции и история. Идентичность и дата регистрации сохраняются.
func (a *Accounts) ResetGame(ctx context.Context, acc *models.Account, ts models.TradingSettings) error {
	acc.Balance = ts.StartBalance
	acc.Positions = nil
	acc.History = nil
	acc.Purchases = nil
	acc.BonusUsed = false
	return a.Save(ctx, acc)
}
