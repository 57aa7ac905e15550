package service

import (
	"context"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"github.com/prokazin/telegram-trading/internal/models"
	"github.com/prokazin/telegram-trading/pkg/logger"
)

// Hub раздаёт тики цен в Mini App по вебсокету (график в браузере).
type Hub struct {
	sim *Simulator

	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]chan []byte
}

func NewHub(sim *Simulator) *Hub {
	return &Hub{
		sim: sim,
		upgrader: websocket.Upgrader{
			// Mini App живёт на другом origin, чем API
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]chan []byte),
	}
}

// Run подписывается на симулятор и крутится до отмены контекста.
func (h *Hub) Run(ctx context.Context) {
	sub := h.sim.Subscribe()
	defer h.sim.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case ticks, ok := <-sub:
			if !ok {
				return
			}
			h.broadcast(ticks)
		}
	}
}

func (h *Hub) broadcast(ticks []models.PriceTick) {
	payload, err := sonic.Marshal(ticks)
	if err != nil {
		logger.Error("marshal ticks: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.conns {
		select {
		case ch <- payload:
		default:
			// клиент не успевает читать — выкидываем
			delete(h.conns, conn)
			close(ch)
			_ = conn.Close()
		}
	}
}

// HandleWS — апгрейд /ws/prices. Сразу шлёт бэкфилл истории по всем
// инструментам, дальше — живые тики.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("ws upgrade: %v", err)
		return
	}

	snapshot := make(map[string][]float64)
	for _, sym := range h.sim.Symbols() {
		snapshot[sym] = h.sim.History(sym)
	}
	if b, err := sonic.Marshal(snapshot); err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, b)
	}

	ch := make(chan []byte, 32)
	h.mu.Lock()
	h.conns[conn] = ch
	h.mu.Unlock()

	go h.writeLoop(conn, ch)
	go h.readLoop(conn)
}

func (h *Hub) writeLoop(conn *websocket.Conn, ch chan []byte) {
	for payload := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(conn)
			return
		}
	}
}

// readLoop нужен только чтобы заметить закрытие со стороны клиента.
func (h *Hub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		close(ch)
	}
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.conns {
		close(ch)
		_ = conn.Close()
		delete(h.conns, conn)
	}
}
