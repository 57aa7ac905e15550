package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/prokazin/telegram-trading/internal/models"
	"github.com/prokazin/telegram-trading/pkg/db"
)

// Players — хранилище агрегатов игроков и их сделок в Postgres.
type Players struct {
	tx *db.PgTxManager
}

func New(tx *db.PgTxManager) *Players {
	return &Players{tx: tx}
}

// Init создаёт схему при старте сервиса.
func (p *Players) Init(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Players.Init: %w", err)
		}
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id BIGSERIAL PRIMARY KEY,
			telegram_id TEXT UNIQUE NOT NULL,
			username TEXT,
			total_profit DOUBLE PRECISION DEFAULT 0,
			total_trades INTEGER DEFAULT 0,
			winning_trades INTEGER DEFAULT 0,
			losing_trades INTEGER DEFAULT 0,
			best_trade DOUBLE PRECISION DEFAULT 0,
			worst_trade DOUBLE PRECISION DEFAULT 0,
			balance DOUBLE PRECISION DEFAULT 1000,
			created_at TIMESTAMPTZ DEFAULT now(),
			updated_at TIMESTAMPTZ DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS trades (
			id BIGSERIAL PRIMARY KEY,
			player_id BIGINT REFERENCES players (id),
			telegram_id TEXT,
			coin TEXT,
			trade_type TEXT,
			entry_price DOUBLE PRECISION,
			exit_price DOUBLE PRECISION,
			amount DOUBLE PRECISION,
			leverage INTEGER,
			profit DOUBLE PRECISION,
			profit_percentage DOUBLE PRECISION,
			stop_loss DOUBLE PRECISION,
			take_profit DOUBLE PRECISION,
			liquidated BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_players_total_profit ON players(total_profit DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_player_id ON trades(player_id)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_created_at ON trades(created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err = p.tx.Conn().Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Ranking — топ игроков по суммарному профиту. Игроки без сделок не
// попадают в выдачу, поэтому win_rate всегда определён.
func (p *Players) Ranking(ctx context.Context, limit, offset int) (out []models.PlayerStats, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Players.Ranking: %w", err)
		}
	}()

	const q = `
		SELECT
			RANK() OVER (ORDER BY total_profit DESC) AS rank,
			telegram_id,
			COALESCE(username, ''),
			total_profit,
			total_trades,
			winning_trades,
			losing_trades,
			ROUND((winning_trades * 100.0 / total_trades)::numeric, 2)::float8 AS win_rate,
			best_trade,
			worst_trade,
			balance,
			to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SSOF')
		FROM players
		WHERE total_trades > 0
		ORDER BY total_profit DESC
		LIMIT $1 OFFSET $2`

	rows, err := p.tx.Conn().Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var s models.PlayerStats
		if err = rows.Scan(
			&s.Rank, &s.TelegramID, &s.Username, &s.TotalProfit,
			&s.TotalTrades, &s.WinningTrades, &s.LosingTrades, &s.WinRate,
			&s.BestTrade, &s.WorstTrade, &s.Balance, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Player — агрегат одного игрока; nil если не найден.
func (p *Players) Player(ctx context.Context, telegramID string) (stats *models.PlayerStats, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Players.Player: %w", err)
		}
	}()

	const q = `
		SELECT
			telegram_id,
			COALESCE(username, ''),
			total_profit,
			total_trades,
			winning_trades,
			losing_trades,
			COALESCE(ROUND((winning_trades * 100.0 / NULLIF(total_trades, 0))::numeric, 2), 0)::float8,
			best_trade,
			worst_trade,
			balance,
			to_char(created_at, 'YYYY-MM-DD"T"HH24:MI:SSOF')
		FROM players
		WHERE telegram_id = $1`

	var s models.PlayerStats
	err = p.tx.Conn().QueryRow(ctx, q, telegramID).Scan(
		&s.TelegramID, &s.Username, &s.TotalProfit,
		&s.TotalTrades, &s.WinningTrades, &s.LosingTrades, &s.WinRate,
		&s.BestTrade, &s.WorstTrade, &s.Balance, &s.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// RecordTrade — апсерт агрегатов игрока и запись сделки одной транзакцией.
func (p *Players) RecordTrade(ctx context.Context, res models.TradeResult) (stats *models.PlayerStats, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Players.RecordTrade: %w", err)
		}
	}()

	err = p.tx.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		var (
			playerID int64
			cur      models.PlayerStats
		)
		scanErr := tx.QueryRow(ctxTx,
			`SELECT id, total_profit, total_trades, winning_trades, losing_trades,
			        best_trade, worst_trade, balance
			 FROM players WHERE telegram_id = $1 FOR UPDATE`,
			res.TelegramID,
		).Scan(
			&playerID, &cur.TotalProfit, &cur.TotalTrades, &cur.WinningTrades,
			&cur.LosingTrades, &cur.BestTrade, &cur.WorstTrade, &cur.Balance,
		)

		profit := res.Profit
		win, lose := 0, 1
		if profit > 0 {
			win, lose = 1, 0
		}

		switch scanErr {
		case pgx.ErrNoRows:
			// новый игрок: стартовый баланс + профит первой сделки
			best, worst := 0.0, 0.0
			if profit > 0 {
				best = profit
			} else {
				worst = profit
			}
			if err := tx.QueryRow(ctxTx,
				`INSERT INTO players (
					telegram_id, username, total_profit, total_trades,
					winning_trades, losing_trades, best_trade, worst_trade, balance
				) VALUES ($1, $2, $3, 1, $4, $5, $6, $7, $8)
				RETURNING id`,
				res.TelegramID, res.Username, profit, win, lose, best, worst, 1000+profit,
			).Scan(&playerID); err != nil {
				return err
			}
		case nil:
			if _, err := tx.Exec(ctxTx,
				`UPDATE players SET
					total_profit = total_profit + $1,
					total_trades = total_trades + 1,
					winning_trades = winning_trades + $2,
					losing_trades = losing_trades + $3,
					best_trade = GREATEST(best_trade, $1),
					worst_trade = LEAST(worst_trade, $1),
					balance = balance + $1,
					username = $4,
					updated_at = now()
				WHERE id = $5`,
				profit, win, lose, res.Username, playerID,
			); err != nil {
				return err
			}
		default:
			return scanErr
		}

		d := res.Details
		_, err := tx.Exec(ctxTx,
			`INSERT INTO trades (
				player_id, telegram_id, coin, trade_type,
				entry_price, exit_price, amount, leverage,
				profit, profit_percentage, stop_loss, take_profit, liquidated
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, 0), NULLIF($12, 0), $13)`,
			playerID, res.TelegramID, d.Coin, d.Type,
			d.EntryPrice, d.ExitPrice, d.Amount, d.Leverage,
			profit, d.ProfitPercentage, d.StopLoss, d.TakeProfit, d.Liquidated,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p.Player(ctx, res.TelegramID)
}

// Reset чистит рейтинг целиком (админ-операция).
func (p *Players) Reset(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Players.Reset: %w", err)
		}
	}()

	return p.tx.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctxTx, `DELETE FROM trades`); err != nil {
			return err
		}
		_, err := tx.Exec(ctxTx, `DELETE FROM players`)
		return err
	})
}
