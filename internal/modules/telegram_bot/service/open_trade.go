package service

import (
	"context"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/prokazin/telegram-trading/internal/models"
	ledgersvc "github.com/prokazin/telegram-trading/internal/modules/ledger/service"
)

// handleOpen разбирает "/long BTC 500 2 [sl] [tp]" и открывает позицию.
func (t *Telegram) handleOpen(ctx context.Context, userID int64, dir models.Direction, args string) {
	s, ok := t.manager.Session(userID)
	if !ok {
		return
	}

	req, err := parseOpenArgs(dir, args)
	if err != nil {
		_, _ = t.SendF(ctx, userID,
			"❗️ %v\nФормат: /%s <монета> <сумма> <плечо> [SL%%] [TP%%]",
			err, strings.ToLower(string(dir)))
		return
	}

	pos, err := s.Open(ctx, req)
	if err != nil {
		_, _ = t.SendF(ctx, userID, "❗️ %s", openErrText(err))
		return
	}

	_, _ = t.SendF(ctx, userID,
		"✅ OPEN %s %s @ %s | сумма $%.2f | плечо %dx%s",
		pos.Symbol, pos.Direction, fmtPrice(pos.Entry), pos.Amount, pos.Leverage,
		fmtSLTP(pos.StopLoss, pos.TakeProfit),
	)
}

func parseOpenArgs(dir models.Direction, args string) (ledgersvc.OpenRequest, error) {
	req := ledgersvc.OpenRequest{Direction: dir}

	fields := strings.Fields(args)
	if len(fields) < 3 {
		return req, errors.New("нужно минимум: монета, сумма, плечо")
	}

	req.Symbol = strings.ToUpper(fields[0])

	amount, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return req, errors.New("некорректная сумма")
	}
	req.Amount = amount

	lev, err := strconv.Atoi(fields[2])
	if err != nil {
		return req, errors.New("некорректное плечо")
	}
	req.Leverage = lev

	if len(fields) > 3 {
		if sl, err := strconv.ParseFloat(fields[3], 64); err == nil {
			req.StopLoss = sl
		}
	}
	if len(fields) > 4 {
		if tp, err := strconv.ParseFloat(fields[4], 64); err == nil {
			req.TakeProfit = tp
		}
	}
	return req, nil
}

func openErrText(err error) string {
	switch {
	case errors.Is(err, ledgersvc.ErrAmountInvalid):
		return "Введите корректную сумму"
	case errors.Is(err, ledgersvc.ErrAmountExceedsMargin):
		return "Недостаточно средств с учётом плеча"
	case errors.Is(err, ledgersvc.ErrLeverageInvalid):
		return "Недопустимое плечо"
	case errors.Is(err, ledgersvc.ErrUnknownInstrument):
		return "Нет такой монеты"
	default:
		return "Не удалось открыть позицию"
	}
}

// handlePositions — открытые позиции с кнопками закрытия.
func (t *Telegram) handlePositions(ctx context.Context, userID int64) {
	s, ok := t.manager.Session(userID)
	if !ok {
		return
	}
	positions := s.Positions()
	if len(positions) == 0 {
		_, _ = t.Send(ctx, userID, "📭 Открытых позиций нет")
		return
	}

	for _, p := range positions {
		msg := tgbot.NewMessage(userID, formatPosition(p))
		btn := tgbot.NewInlineKeyboardButtonData(
			"Закрыть", "CLOSE::"+strconv.FormatInt(p.ID, 10))
		msg.ReplyMarkup = tgbot.NewInlineKeyboardMarkup(tgbot.NewInlineKeyboardRow(btn))
		_, _ = t.bot.Send(msg)
	}
}

// handleCallback: CONF/REJ для подтверждений + CLOSE::<id> для позиций.
func (t *Telegram) handleCallback(ctx context.Context, cb *tgbot.CallbackQuery) {
	// остановить спиннер
	_, _ = t.bot.Request(tgbot.NewCallback(cb.ID, ""))

	verb, token, ok := splitCallback(cb.Data)
	if !ok {
		return
	}

	switch verb {
	case "CONF", "REJ":
		t.mu.Lock()
		p, found := t.pendings[token]
		if found {
			delete(t.pendings, token)
		}
		t.mu.Unlock()
		if !found {
			return
		}
		accepted := verb == "CONF"
		p.ch <- accepted
		close(p.ch)

		status := "❌ Отклонено"
		if accepted {
			status = "✅ Подтверждено"
		}
		_ = t.editReplyMarkupRemove(cb.Message.Chat.ID, p.msgID)
		_ = t.editText(cb.Message.Chat.ID, p.msgID, p.prompt+"\n\n"+status)

	case "CLOSE":
		id, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return
		}
		t.closePosition(ctx, cb.Message.Chat.ID, id)
	}
}

func (t *Telegram) closePosition(ctx context.Context, userID, id int64) {
	s, ok := t.manager.Session(userID)
	if !ok {
		return
	}
	rec, err := s.ClosePosition(ctx, id)
	if err != nil {
		if errors.Is(err, ledgersvc.ErrPositionNotFound) {
			// позиция могла закрыться сама тиком раньше — не страшно
			_, _ = t.Send(ctx, userID, "ℹ️ Позиция уже закрыта")
			return
		}
		_, _ = t.SendF(ctx, userID, "❗️ Ошибка закрытия: %v", err)
		return
	}
	_, _ = t.Send(ctx, userID, formatClosed(rec))
}

func splitCallback(data string) (verb, token string, ok bool) {
	i := strings.Index(data, "::")
	if i <= 0 || i+2 >= len(data) {
		return "", "", false
	}
	return data[:i], data[i+2:], true
}
