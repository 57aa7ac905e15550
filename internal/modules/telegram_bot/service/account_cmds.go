package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/prokazin/telegram-trading/internal/models"
	storesvc "github.com/prokazin/telegram-trading/internal/modules/store/service"
	"github.com/prokazin/telegram-trading/pkg/logger"
)

const historyPage = 10

func (t *Telegram) handleHistory(ctx context.Context, userID int64) {
	s, ok := t.manager.Session(userID)
	if !ok {
		return
	}
	recent := s.History(historyPage)
	if len(recent) == 0 {
		_, _ = t.Send(ctx, userID, "📭 Сделок ещё не было")
		return
	}

	var b strings.Builder
	b.WriteString("📜 Последние сделки:\n")
	for _, rec := range recent {
		b.WriteString("\n")
		b.WriteString(formatHistoryLine(rec))
	}
	_, _ = t.Send(ctx, userID, b.String())
}

func (t *Telegram) handleRating(ctx context.Context, userID int64) {
	board := t.rank.Board()
	if len(board) == 0 {
		_, _ = t.Send(ctx, userID, "🏆 Рейтинг пока пуст")
		return
	}

	var b strings.Builder
	b.WriteString("🏆 Рейтинг игроков:\n")
	for i, row := range board {
		b.WriteString("\n")
		b.WriteString(medal(i + 1))
		b.WriteString(" ")
		b.WriteString(row.Name)
		b.WriteString(" — $")
		b.WriteString(strconv.FormatFloat(row.Profit, 'f', 2, 64))
	}
	_, _ = t.Send(ctx, userID, b.String())
}

// handleDeposit: "/deposit 500" — пополнение за Stars с бонусом на первый раз.
func (t *Telegram) handleDeposit(ctx context.Context, userID int64, args string) {
	stars, err := strconv.ParseFloat(strings.TrimSpace(args), 64)
	if err != nil || stars <= 0 {
		_, _ = t.Send(ctx, userID, "⭐️ Формат: /deposit <кол-во Stars>")
		return
	}

	s, ok := t.manager.Session(userID)
	if !ok {
		return
	}

	// мутируем аккаунт под мьютексом сессии, чтобы не разъехаться с тиком
	var p *models.Purchase
	err = s.Apply(func(acc *models.Account) error {
		var applyErr error
		p, applyErr = t.accounts.Deposit(ctx, acc, stars, t.cfg.Trading)
		return applyErr
	})
	if err != nil {
		if errors.Is(err, storesvc.ErrDepositInvalid) {
			_, _ = t.Send(ctx, userID, "❗️ Некорректная сумма пополнения")
			return
		}
		logger.Error("deposit %d: %v", userID, err)
		_, _ = t.Send(ctx, userID, "❗️ Не удалось пополнить баланс")
		return
	}

	_, _ = t.SendF(ctx, userID,
		"⭐️ Зачислено $%.2f%s\n💰 Баланс: $%.2f",
		p.Total, bonusSuffix(p.Bonus), s.Balance())
}

func bonusSuffix(bonus float64) string {
	if bonus <= 0 {
		return ""
	}
	return " (включая бонус $" + strconv.FormatFloat(bonus, 'f', 2, 64) + ")"
}

// handleWithdraw: "/withdraw 100" — вывод с комиссией, после подтверждения.
func (t *Telegram) handleWithdraw(ctx context.Context, userID int64, args string) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(args), 64)
	if err != nil || amount <= 0 {
		_, _ = t.Send(ctx, userID, "💸 Формат: /withdraw <сумма>")
		return
	}

	s, ok := t.manager.Session(userID)
	if !ok {
		return
	}

	fee := amount * t.cfg.Trading.WithdrawFeePct / 100
	ok = t.Confirm(ctx, userID, fmt.Sprintf(
		"💸 Вывести $%.2f?\nКомиссия %.0f%%: $%.2f, к получению $%.2f",
		amount, t.cfg.Trading.WithdrawFeePct, fee, amount-fee,
	), 30*time.Second)
	if !ok {
		return
	}

	var net float64
	err = s.Apply(func(acc *models.Account) error {
		var applyErr error
		net, applyErr = t.accounts.Withdraw(ctx, acc, amount, t.cfg.Trading)
		return applyErr
	})
	if err != nil {
		if errors.Is(err, storesvc.ErrWithdrawInvalid) {
			_, _ = t.Send(ctx, userID, "❗️ Сумма больше баланса или некорректна")
			return
		}
		logger.Error("withdraw %d: %v", userID, err)
		_, _ = t.Send(ctx, userID, "❗️ Не удалось выполнить вывод")
		return
	}
	_, _ = t.SendF(ctx, userID, "✅ Выведено $%.2f\n💰 Баланс: $%.2f", net, s.Balance())
}

// handleReset сбрасывает игру после подтверждения кнопками.
func (t *Telegram) handleReset(ctx context.Context, userID int64) {
	ok := t.Confirm(ctx, userID,
		"⚠️ Сбросить игру? Баланс, позиции и история будут удалены.",
		30*time.Second)
	if !ok {
		return
	}

	_ = t.manager.StopForPlayer(userID)

	acc, err := t.accounts.Get(ctx, userID)
	if err == nil && acc != nil {
		err = t.accounts.ResetGame(ctx, acc, t.cfg.Trading)
	}
	if err != nil || acc == nil {
		logger.Error("reset %d: %v", userID, err)
		_, _ = t.Send(ctx, userID, "❗️ Не удалось сбросить игру")
		return
	}
	_, _ = t.SendF(ctx, userID,
		"🔄 Игра сброшена. Баланс: $%.2f\nЗапустите /start, чтобы начать заново",
		t.cfg.Trading.StartBalance)
}
