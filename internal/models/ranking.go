package models

// PlayerStats — агрегат игрока, каким его отдаёт рейтинг-сервис.
// Владелец агрегата — сервис, локально это read-mostly кэш.
type PlayerStats struct {
	Rank          int     `json:"rank,omitempty"`
	TelegramID    string  `json:"telegram_id"`
	Username      string  `json:"username"`
	TotalProfit   float64 `json:"total_profit"`
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	BestTrade     float64 `json:"best_trade"`
	WorstTrade    float64 `json:"worst_trade"`
	Balance       float64 `json:"balance"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

// TradeDetails — детали сделки в том виде, в каком их принимает POST /api/trade.
type TradeDetails struct {
	Coin             string  `json:"coin"`
	Type             string  `json:"type"`
	EntryPrice       float64 `json:"entryPrice"`
	ExitPrice        float64 `json:"exitPrice"`
	Amount           float64 `json:"amount"`
	Leverage         int     `json:"leverage"`
	ProfitPercentage float64 `json:"profitPercentage"`
	StopLoss         float64 `json:"stopLoss,omitempty"`
	TakeProfit       float64 `json:"takeProfit,omitempty"`
	Liquidated       bool    `json:"liquidated"`
}

// TradeResult — результат закрытой сделки для отправки в рейтинг.
type TradeResult struct {
	TelegramID string       `json:"telegramId"`
	Username   string       `json:"username"`
	Profit     float64      `json:"profit"`
	Details    TradeDetails `json:"tradeDetails"`
}

// NewTradeResult собирает результат из записи истории.
func NewTradeResult(acc *Account, rec *TradeRecord, telegramID string) TradeResult {
	return TradeResult{
		TelegramID: telegramID,
		Username:   acc.Name,
		Profit:     rec.PnLAmount,
		Details: TradeDetails{
			Coin:             rec.Symbol,
			Type:             string(rec.Direction),
			EntryPrice:       rec.Entry,
			ExitPrice:        rec.ExitPrice,
			Amount:           rec.Amount,
			Leverage:         rec.Leverage,
			ProfitPercentage: rec.PnLPercent,
			StopLoss:         rec.StopLoss,
			TakeProfit:       rec.TakeProfit,
			Liquidated:       rec.Liquidated,
		},
	}
}

// BoardRow — строка локального фолбэк-рейтинга (офлайн-режим).
type BoardRow struct {
	Name   string  `json:"name"`
	Profit float64 `json:"profit"`
}
