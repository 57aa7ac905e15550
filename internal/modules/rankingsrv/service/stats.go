package service

// Stats — сводка по игре для GET /api/stats.
type Stats struct {
	General    GeneralStats `json:"general"`
	TopPlayers []TopPlayer  `json:"topPlayers"`
	Last24h    DayStats     `json:"last24h"`
}

type GeneralStats struct {
	TotalPlayers      int     `json:"total_players"`
	TotalTrades       int     `json:"total_trades"`
	AvgProfit         float64 `json:"avg_profit"`
	ProfitablePlayers int     `json:"profitable_players"`
	LosingPlayers     int     `json:"losing_players"`
}

type TopPlayer struct {
	Username    string  `json:"username"`
	TotalProfit float64 `json:"total_profit"`
}

type DayStats struct {
	Trades    int     `json:"trades_last_24h"`
	Profit    float64 `json:"profit_last_24h"`
	AvgProfit float64 `json:"avg_profit_last_24h"`
}
