package service

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/opentracing/opentracing-go"

	"github.com/prokazin/telegram-trading/internal/models"
	"github.com/prokazin/telegram-trading/pkg/logger"
)

// RankingAPI — то, что реконсилеру нужно от удалённого сервиса.
type RankingAPI interface {
	Ranking(ctx context.Context, limit, offset int) ([]models.PlayerStats, error)
	SubmitTrade(ctx context.Context, res models.TradeResult) error
	Player(ctx context.Context, telegramID string) (*models.PlayerStats, error)
}

// BoardStore — персист снапшота рейтинга между сессиями.
type BoardStore interface {
	SaveBoard(ctx context.Context, board []models.BoardRow) error
	Board(ctx context.Context) ([]models.BoardRow, error)
}

const localBoardCap = 10

// Reconciler синхронизирует закрытые сделки с рейтинг-сервисом.
// Локальное состояние игрока авторитетно; удалённый рейтинг —
// eventually-consistent и advisory. Отказ сети логируется и глотается,
// закрытие сделки он не блокирует и не откатывает.
type Reconciler struct {
	api   RankingAPI
	store BoardStore
	topN  int

	mu     sync.Mutex
	remote []models.PlayerStats // кэш ответа сервиса, заменяется целиком
	local  []models.BoardRow    // офлайн-фолбэк, топ-10 по профиту
}

func NewReconciler(api RankingAPI, store BoardStore, topN int) *Reconciler {
	if topN <= 0 {
		topN = localBoardCap
	}
	return &Reconciler{
		api:   api,
		store: store,
		topN:  topN,
	}
}

// Restore поднимает сохранённый снапшот фолбэк-рейтинга.
func (r *Reconciler) Restore(ctx context.Context) {
	if r.store == nil {
		return
	}
	board, err := r.store.Board(ctx)
	if err != nil {
		logger.Error("restore board: %v", err)
		return
	}
	r.mu.Lock()
	r.local = board
	r.mu.Unlock()
}

// OnClose вызывается журналом на каждое закрытие. Фолбэк-рейтинг
// обновляется синхронно, сабмит наружу — fire-and-forget.
func (r *Reconciler) OnClose(ctx context.Context, acc *models.Account, rec *models.TradeRecord) {
	r.UpdateLocal(ctx, acc.Name, rec.PnLAmount)

	res := models.NewTradeResult(acc, rec, strconv.FormatInt(acc.UserID, 10))
	go r.Push(context.WithoutCancel(ctx), res)
}

// UpdateLocal добавляет запись в фолбэк-рейтинг: сортировка по профиту
// по убыванию, при равенстве — порядок добавления, кап 10.
func (r *Reconciler) UpdateLocal(ctx context.Context, name string, profit float64) {
	r.mu.Lock()
	r.local = append(r.local, models.BoardRow{Name: name, Profit: profit})
	sort.SliceStable(r.local, func(i, j int) bool {
		return r.local[i].Profit > r.local[j].Profit
	})
	if len(r.local) > localBoardCap {
		r.local = r.local[:localBoardCap]
	}
	board := append([]models.BoardRow(nil), r.local...)
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.SaveBoard(ctx, board); err != nil {
			logger.Error("persist board: %v", err)
		}
	}
}

// Push отправляет результат сделки и, если сервис принял, перечитывает
// топ-N. При отказе кэшированное представление остаётся прежним.
func (r *Reconciler) Push(ctx context.Context, res models.TradeResult) {
	span := opentracing.StartSpan("ranking.push")
	defer span.Finish()
	ctx = opentracing.ContextWithSpan(ctx, span)

	if err := r.api.SubmitTrade(ctx, res); err != nil {
		logger.Error("submit trade: %v", err)
		return
	}
	if err := r.Refresh(ctx); err != nil {
		logger.Error("refresh ranking: %v", err)
	}
}

// Refresh заменяет кэш удалённого рейтинга целиком (без слияния).
func (r *Reconciler) Refresh(ctx context.Context) error {
	rows, err := r.api.Ranking(ctx, r.topN, 0)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.remote = rows
	r.mu.Unlock()
	return nil
}

// RemoteBalance — баланс игрока из сервиса для восстановления на новом
// устройстве. (nil, nil) если игрок там ещё не известен.
func (r *Reconciler) RemoteBalance(ctx context.Context, userID int64) (*models.PlayerStats, error) {
	return r.api.Player(ctx, strconv.FormatInt(userID, 10))
}

// Board — текущее представление рейтинга: удалённый кэш, если он есть,
// иначе локальный фолбэк.
func (r *Reconciler) Board() []models.BoardRow {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.remote) > 0 {
		out := make([]models.BoardRow, 0, len(r.remote))
		for _, p := range r.remote {
			name := p.Username
			if name == "" {
				name = "Игрок " + strconv.Itoa(p.Rank)
			}
			out = append(out, models.BoardRow{Name: name, Profit: p.TotalProfit})
		}
		return out
	}
	return append([]models.BoardRow(nil), r.local...)
}
