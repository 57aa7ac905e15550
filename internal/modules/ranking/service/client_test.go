package service

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prokazin/telegram-trading/internal/models"
)

func TestClientRanking(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ranking", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		_, _ = w.Write([]byte(`{"success":true,"ranking":[{"rank":1,"username":"alice","total_profit":500}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	rows, err := c.Ranking(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].Username)
	assert.Equal(t, 500.0, rows[0].TotalProfit)
}

func TestClientPlayerNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"игрок не найден"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	player, err := c.Player(context.Background(), "404")
	require.NoError(t, err)
	assert.Nil(t, player)
}

func TestClientSubmitTrade(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/trade", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		var res models.TradeResult
		require.NoError(t, sonic.Unmarshal(body, &res))
		assert.Equal(t, "42", res.TelegramID)
		assert.Equal(t, "BTC", res.Details.Coin)
		assert.Equal(t, "LONG", res.Details.Type)

		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.SubmitTrade(context.Background(), models.TradeResult{
		TelegramID: "42",
		Username:   "alice",
		Profit:     12.5,
		Details: models.TradeDetails{
			Coin: "BTC",
			Type: "LONG",
		},
	})
	require.NoError(t, err)
}

func TestClientSubmitTradeServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"внутренняя ошибка сервера"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.SubmitTrade(context.Background(), models.TradeResult{TelegramID: "1"})
	assert.Error(t, err)
}
