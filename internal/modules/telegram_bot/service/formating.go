package service

import (
	"fmt"
	"strconv"

	"github.com/prokazin/telegram-trading/internal/models"
)

// fmtPrice подбирает точность под цену: у DOGE значащие цифры
// после четвёртого знака, у BTC хватает двух.
func fmtPrice(p float64) string {
	if p < 1 {
		return strconv.FormatFloat(p, 'f', 6, 64)
	}
	return strconv.FormatFloat(p, 'f', 2, 64)
}

func fmtSLTP(sl, tp float64) string {
	out := ""
	if sl > 0 {
		out += fmt.Sprintf(" | SL %.1f%%", sl)
	}
	if tp > 0 {
		out += fmt.Sprintf(" | TP %.1f%%", tp)
	}
	return out
}

func dirEmoji(d models.Direction) string {
	if d == models.Long {
		return "📈"
	}
	return "📉"
}

func pnlEmoji(v float64) string {
	if v >= 0 {
		return "🟢"
	}
	return "🔴"
}

func formatPosition(p models.Position) string {
	return fmt.Sprintf(
		"%s %s %s\nВход: $%s | Сумма: $%.2f | Плечо: %dx%s\n%s PnL: $%+.2f",
		dirEmoji(p.Direction), p.Symbol, p.Direction,
		fmtPrice(p.Entry), p.Amount, p.Leverage, fmtSLTP(p.StopLoss, p.TakeProfit),
		pnlEmoji(p.PnL), p.PnL,
	)
}

func formatClosed(rec *models.TradeRecord) string {
	if rec.Liquidated {
		return fmt.Sprintf(
			"💥 ЛИКВИДАЦИЯ %s %s\nВход: $%s → Выход: $%s\nУбыток: $%.2f (%.2f%%)\n💰 Баланс обнулён",
			rec.Symbol, rec.Direction,
			fmtPrice(rec.Entry), fmtPrice(rec.ExitPrice),
			rec.PnLAmount, rec.PnLPercent,
		)
	}
	return fmt.Sprintf(
		"%s Сделка закрыта: %s %s\nВход: $%s → Выход: $%s\nРезультат: $%+.2f (%+.2f%%)",
		pnlEmoji(rec.PnLAmount), rec.Symbol, rec.Direction,
		fmtPrice(rec.Entry), fmtPrice(rec.ExitPrice),
		rec.PnLAmount, rec.PnLPercent,
	)
}

func formatHistoryLine(rec models.TradeRecord) string {
	mark := pnlEmoji(rec.PnLAmount)
	if rec.Liquidated {
		mark = "💥"
	}
	return fmt.Sprintf("%s %s %s  $%+.2f (%+.2f%%)",
		mark, rec.Symbol, rec.Direction, rec.PnLAmount, rec.PnLPercent)
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return strconv.Itoa(rank) + "."
}
