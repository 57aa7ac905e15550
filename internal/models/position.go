package models

import "time"

type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Position — открытая сделка. Поля фиксируются при открытии,
// меняется только PnL (пересчитывается каждый тик, не накапливается).
type Position struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"coin"`
	Direction Direction `json:"type"`
	Entry     float64   `json:"entry_price"`
	Amount    float64   `json:"amount"`
	Leverage  int       `json:"leverage"`

	// 0 = не задан (как null в исходном клиенте)
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`

	OpenedAt time.Time `json:"timestamp"`

	// последний рассчитанный нереализованный PnL, производное значение
	PnL float64 `json:"pnl"`
}

// TradeRecord — закрытая сделка в истории. После закрытия неизменяема,
// PnL считается один раз по цене на момент закрытия.
type TradeRecord struct {
	Position

	ExitPrice  float64   `json:"exit_price"`
	PnLAmount  float64   `json:"pnl_amount"`
	PnLPercent float64   `json:"pnl_percentage"`
	ClosedAt   time.Time `json:"exit_time"`
	Liquidated bool      `json:"liquidated"`
}
