package pg

import (
	"context"
	"fmt"

	"github.com/prokazin/telegram-trading/internal/modules/rankingsrv/service"
)

// Stats собирает сводку: общие агрегаты, топ-3 и последние сутки.
func (p *Players) Stats(ctx context.Context) (stats *service.Stats, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Players.Stats: %w", err)
		}
	}()

	stats = &service.Stats{}

	err = p.tx.Conn().QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(total_trades), 0),
			COALESCE(AVG(total_profit), 0),
			COALESCE(SUM(CASE WHEN total_profit > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN total_profit <= 0 THEN 1 ELSE 0 END), 0)
		FROM players`,
	).Scan(
		&stats.General.TotalPlayers,
		&stats.General.TotalTrades,
		&stats.General.AvgProfit,
		&stats.General.ProfitablePlayers,
		&stats.General.LosingPlayers,
	)
	if err != nil {
		return nil, err
	}

	rows, err := p.tx.Conn().Query(ctx, `
		SELECT COALESCE(username, ''), total_profit
		FROM players
		ORDER BY total_profit DESC
		LIMIT 3`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var tp service.TopPlayer
		if err = rows.Scan(&tp.Username, &tp.TotalProfit); err != nil {
			return nil, err
		}
		stats.TopPlayers = append(stats.TopPlayers, tp)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	err = p.tx.Conn().QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(profit), 0),
			COALESCE(AVG(profit), 0)
		FROM trades
		WHERE created_at >= now() - interval '1 day'`,
	).Scan(&stats.Last24h.Trades, &stats.Last24h.Profit, &stats.Last24h.AvgProfit)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
