package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/prokazin/telegram-trading/internal/models"
)

// AccountStore — персист аккаунта. Каждая мутация баланса/истории
// сбрасывается на диск до возврата управления.
type AccountStore interface {
	Save(ctx context.Context, acc *models.Account) error
}

// PriceSource — текущие цены симулятора.
type PriceSource interface {
	Price(symbol string) (float64, bool)
}

// Reconciler получает каждую закрытую сделку. Не имеет права блокировать
// закрытие: сабмит в сеть внутри него fire-and-forget.
type Reconciler interface {
	OnClose(ctx context.Context, acc *models.Account, rec *models.TradeRecord)
}

type OpenRequest struct {
	Symbol     string
	Direction  models.Direction
	Amount     float64
	Leverage   int
	StopLoss   float64 // 0 = не задан
	TakeProfit float64 // 0 = не задан
}

// Ledger — журнал позиций: открытие, переоценка по тикам, авто-закрытие
// (SL/TP/ликвидация), закрытие с фиксацией PnL.
type Ledger struct {
	maxLeverage int
	store       AccountStore
	prices      PriceSource
	rank        Reconciler

	idMu   sync.Mutex
	lastID int64
}

func NewLedger(maxLeverage int, store AccountStore, prices PriceSource, rank Reconciler) *Ledger {
	return &Ledger{
		maxLeverage: maxLeverage,
		store:       store,
		prices:      prices,
		rank:        rank,
	}
}

// nextID — монотонный id на основе времени (как Date.now() в клиенте,
// но с защитой от повтора в пределах миллисекунды).
func (l *Ledger) nextID() int64 {
	l.idMu.Lock()
	defer l.idMu.Unlock()
	id := time.Now().UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id
	return id
}

// Open открывает позицию по текущей цене инструмента.
// Сумма не списывается с баланса: маржа в этой игре номинальная,
// баланс меняется только при закрытии.
func (l *Ledger) Open(ctx context.Context, acc *models.Account, req OpenRequest) (*models.Position, error) {
	if req.Amount <= 0 {
		return nil, ErrAmountInvalid
	}
	if req.Leverage < 1 || req.Leverage > l.maxLeverage {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrLeverageInvalid, req.Leverage, l.maxLeverage)
	}
	if req.Amount > acc.Balance*float64(req.Leverage) {
		return nil, ErrAmountExceedsMargin
	}

	price, ok := l.prices.Price(req.Symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstrument, req.Symbol)
	}

	pos := &models.Position{
		ID:         l.nextID(),
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		Entry:      price,
		Amount:     req.Amount,
		Leverage:   req.Leverage,
		StopLoss:   req.StopLoss,
		TakeProfit: req.TakeProfit,
		OpenedAt:   time.Now(),
	}
	acc.Positions = append(acc.Positions, pos)

	if err := l.store.Save(ctx, acc); err != nil {
		// запись не прошла — позицию не считаем открытой
		acc.RemovePosition(pos.ID)
		return nil, fmt.Errorf("persist open: %w", err)
	}
	return pos, nil
}

// EvaluateAll переоценивает все открытые позиции по свежим ценам и
// выполняет авто-закрытия. Возвращает закрытые записи (для уведомлений).
// Закрытие применяется к балансу и истории целиком до перехода к
// следующей позиции.
func (l *Ledger) EvaluateAll(ctx context.Context, acc *models.Account, prices map[string]float64) ([]*models.TradeRecord, error) {
	snapshot := make([]*models.Position, len(acc.Positions))
	copy(snapshot, acc.Positions)

	var closed []*models.TradeRecord
	for _, pos := range snapshot {
		price, ok := prices[pos.Symbol]
		if !ok {
			continue
		}
		// защита от повторной обработки уже закрытой в этом же проходе
		if _, open := acc.Position(pos.ID); !open {
			continue
		}

		pct := PnLPercent(pos.Direction, pos.Entry, price)
		pos.PnL = PnLAmount(pos.Amount, pct, pos.Leverage)

		liquidated, autoClose := l.checkAutoClose(pos, pct)
		if !autoClose {
			continue
		}
		rec, err := l.closeAt(ctx, acc, pos, price, liquidated)
		if err != nil {
			return closed, err
		}
		closed = append(closed, rec)
	}
	return closed, nil
}

// checkAutoClose решает, закрывать ли позицию на этом тике.
// Ликвидация проверяется первой и имеет приоритет: если на одном тике
// сработали бы и стоп-лосс, и порог ликвидации, обнуление баланса
// авторитетно.
func (l *Ledger) checkAutoClose(pos *models.Position, pct float64) (liquidated, closeNow bool) {
	if math.Abs(pct)*float64(pos.Leverage) >= 100 {
		return true, true
	}
	if pos.StopLoss > 0 && pct <= -pos.StopLoss {
		return false, true
	}
	if pos.TakeProfit > 0 && pct >= pos.TakeProfit {
		return false, true
	}
	return false, false
}

// Close — закрытие по запросу игрока. Неизвестный id — не фатально,
// вызывающий сам решает, показывать ли ошибку.
func (l *Ledger) Close(ctx context.Context, acc *models.Account, id int64) (*models.TradeRecord, error) {
	pos, ok := acc.Position(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPositionNotFound, id)
	}
	price, ok := l.prices.Price(pos.Symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstrument, pos.Symbol)
	}
	return l.closeAt(ctx, acc, pos, price, false)
}

// closeAt фиксирует PnL по цене price и переносит позицию в историю.
// При ликвидации баланс ставится ровно в 0, PnL к балансу не применяется.
func (l *Ledger) closeAt(ctx context.Context, acc *models.Account, pos *models.Position, price float64, liquidated bool) (*models.TradeRecord, error) {
	pct := PnLPercent(pos.Direction, pos.Entry, price)
	amount := PnLAmount(pos.Amount, pct, pos.Leverage)

	rec := &models.TradeRecord{
		Position:   *pos,
		ExitPrice:  price,
		PnLAmount:  amount,
		PnLPercent: pct,
		ClosedAt:   time.Now(),
		Liquidated: liquidated,
	}

	prevBalance := acc.Balance
	idx := -1
	for i, p := range acc.Positions {
		if p.ID == pos.ID {
			idx = i
			break
		}
	}

	acc.PushHistory(rec)
	if liquidated {
		acc.Balance = 0
	} else {
		acc.Balance += amount
	}
	acc.RemovePosition(pos.ID)

	if err := l.store.Save(ctx, acc); err != nil {
		// запись не прошла — закрытие не состоялось, возвращаем всё как было
		acc.History = acc.History[1:]
		acc.Balance = prevBalance
		if idx >= 0 {
			acc.Positions = append(acc.Positions[:idx],
				append([]*models.Position{pos}, acc.Positions[idx:]...)...)
		}
		return nil, fmt.Errorf("persist close: %w", err)
	}

	if l.rank != nil {
		l.rank.OnClose(ctx, acc, rec)
	}
	return rec, nil
}
