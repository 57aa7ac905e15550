package service

import "github.com/prokazin/telegram-trading/internal/models"

// PnLPercent — процентное движение цены в пользу позиции.
// LONG: (current-entry)/entry*100, SHORT: (entry-current)/entry*100.
func PnLPercent(dir models.Direction, entry, current float64) float64 {
	if dir == models.Long {
		return (current - entry) / entry * 100
	}
	return (entry - current) / entry * 100
}

// PnLAmount — нереализованный/реализованный PnL в долларах.
func PnLAmount(amount, pct float64, leverage int) float64 {
	return amount * pct * float64(leverage) / 100
}
