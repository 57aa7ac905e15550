package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/prokazin/telegram-trading/internal/models"
)

// Client — HTTP-клиент рейтинг-сервиса. Все вызовы best-effort,
// блокировать игровую логику им нельзя — это забота реконсилера.
type Client struct {
	http *http.Client
	base string
}

func NewClient(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		base: base,
	}
}

type rankingResponse struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error,omitempty"`
	Ranking []models.PlayerStats `json:"ranking"`
}

type playerResponse struct {
	Success bool                `json:"success"`
	Error   string              `json:"error,omitempty"`
	Player  *models.PlayerStats `json:"player"`
}

type tradeResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
	Player  *models.PlayerStats `json:"player"`
}

// Ranking — GET /api/ranking?limit=N&offset=M.
func (c *Client) Ranking(ctx context.Context, limit, offset int) (rows []models.PlayerStats, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "ranking.Client.Ranking")
		}
	}()

	url := fmt.Sprintf("%s/api/ranking?limit=%d&offset=%d", c.base, limit, offset)
	var resp rankingResponse
	if err = c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("service error: %s", resp.Error)
	}
	return resp.Ranking, nil
}

// Player — GET /api/player/:id. Отсутствие игрока — не ошибка, (nil, nil).
func (c *Client) Player(ctx context.Context, telegramID string) (player *models.PlayerStats, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "ranking.Client.Player")
		}
	}()

	url := fmt.Sprintf("%s/api/player/%s", c.base, telegramID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	rb, _ := io.ReadAll(res.Body)
	if res.StatusCode/100 != 2 {
		return nil, fmt.Errorf("http %d: %s", res.StatusCode, string(rb))
	}
	var resp playerResponse
	if err = sonic.Unmarshal(rb, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("service error: %s", resp.Error)
	}
	return resp.Player, nil
}

// SubmitTrade — POST /api/trade с результатом закрытой сделки.
func (c *Client) SubmitTrade(ctx context.Context, res models.TradeResult) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "ranking.Client.SubmitTrade")
		}
	}()

	body, err := sonic.Marshal(res)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/trade", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	httpRes, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer httpRes.Body.Close()

	rb, _ := io.ReadAll(httpRes.Body)
	if httpRes.StatusCode/100 != 2 {
		return fmt.Errorf("http %d: %s", httpRes.StatusCode, string(rb))
	}
	var resp tradeResponse
	if err = sonic.Unmarshal(rb, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("service error: %s", resp.Error)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	rb, _ := io.ReadAll(res.Body)
	if res.StatusCode/100 != 2 {
		return fmt.Errorf("http %d: %s", res.StatusCode, string(rb))
	}
	return sonic.Unmarshal(rb, out)
}
