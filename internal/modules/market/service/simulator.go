package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/prokazin/telegram-trading/internal/models"
	"github.com/prokazin/telegram-trading/internal/modules/config"
)

// priceEpsilon — нижняя граница цены. Исходный клиент не клампил и на
// длинном прогоне мог уйти в минус; здесь фиксируем пол.
const priceEpsilon = 1e-8

type instState struct {
	symbol     string
	price      float64
	volatility float64
	history    []float64
}

// Simulator — симулятор цен: случайное блуждание по каждому инструменту,
// ограниченная история на 100 точек (FIFO).
type Simulator struct {
	mu          sync.RWMutex
	instruments map[string]*instState
	order       []string // стабильный порядок обхода
	historyCap  int
	rnd         *rand.Rand

	subMu sync.Mutex
	subs  map[chan []models.PriceTick]struct{}
}

func NewSimulator(cfg *config.Config) *Simulator {
	return NewSimulatorSeeded(cfg, time.Now().UnixNano())
}

// NewSimulatorSeeded — с фиксированным сидом, для тестов.
func NewSimulatorSeeded(cfg *config.Config, seed int64) *Simulator {
	s := &Simulator{
		instruments: make(map[string]*instState, len(cfg.Market.Instruments)),
		historyCap:  cfg.Market.HistoryCap,
		rnd:         rand.New(rand.NewSource(seed)),
		subs:        make(map[chan []models.PriceTick]struct{}),
	}
	if s.historyCap <= 0 {
		s.historyCap = 100
	}
	for _, ic := range cfg.Market.Instruments {
		st := &instState{
			symbol:     ic.Symbol,
			price:      ic.Price,
			volatility: ic.Volatility,
		}
		st.history = s.backfill(ic.Price)
		s.instruments[ic.Symbol] = st
		s.order = append(s.order, ic.Symbol)
	}
	return s
}

// backfill синтезирует историю тем же блужданием, чтобы графику
// было что показать сразу после старта.
func (s *Simulator) backfill(startPrice float64) []float64 {
	history := make([]float64, 0, s.historyCap)
	history = append(history, startPrice)
	price := startPrice
	for i := 1; i < s.historyCap; i++ {
		price += (s.rnd.Float64() - 0.5) * 0.02 * price
		if price < priceEpsilon {
			price = priceEpsilon
		}
		history = append(history, price)
	}
	return history
}

// Tick сдвигает все цены на случайную дельту и рассылает батч подписчикам.
// Дельта: (U-0.5)*2*volatility*price, U равномерно в [0,1).
func (s *Simulator) Tick() []models.PriceTick {
	now := time.Now()

	s.mu.Lock()
	ticks := make([]models.PriceTick, 0, len(s.order))
	for _, sym := range s.order {
		st := s.instruments[sym]
		change := (s.rnd.Float64() - 0.5) * 2 * st.volatility * st.price
		st.price += change
		if st.price < priceEpsilon {
			st.price = priceEpsilon
		}

		st.history = append(st.history, st.price)
		if len(st.history) > s.historyCap {
			st.history = st.history[1:]
		}

		ticks = append(ticks, models.PriceTick{Symbol: sym, Price: st.price, At: now})
	}
	s.mu.Unlock()

	s.publish(ticks)
	return ticks
}

func (s *Simulator) publish(ticks []models.PriceTick) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ticks:
		default:
			// медленный подписчик — тик пропускает, не блокируем симуляцию
		}
	}
}

// Subscribe возвращает канал батчей тиков. Отписка через Unsubscribe.
func (s *Simulator) Subscribe() chan []models.PriceTick {
	ch := make(chan []models.PriceTick, 16)
	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()
	return ch
}

func (s *Simulator) Unsubscribe(ch chan []models.PriceTick) {
	s.subMu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.subMu.Unlock()
}

// Price — текущая цена инструмента.
func (s *Simulator) Price(symbol string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.instruments[symbol]
	if !ok {
		return 0, false
	}
	return st.price, true
}

// Prices — снапшот всех текущих цен.
func (s *Simulator) Prices() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.instruments))
	for sym, st := range s.instruments {
		out[sym] = st.price
	}
	return out
}

// History — копия ценовой истории инструмента.
func (s *Simulator) History(symbol string) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.instruments[symbol]
	if !ok {
		return nil
	}
	out := make([]float64, len(st.history))
	copy(out, st.history)
	return out
}

func (s *Simulator) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
