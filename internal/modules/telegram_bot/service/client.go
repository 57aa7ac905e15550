package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/prokazin/telegram-trading/internal/models"
	"github.com/prokazin/telegram-trading/internal/modules/config"
	ranksvc "github.com/prokazin/telegram-trading/internal/modules/ranking/service"
	storesvc "github.com/prokazin/telegram-trading/internal/modules/store/service"
	"github.com/prokazin/telegram-trading/internal/session"
	"github.com/prokazin/telegram-trading/pkg/logger"
)

type pending struct {
	ch     chan bool
	msgID  int
	prompt string
}

// Telegram — интерфейс игры в мессенджере: онбординг, команды,
// уведомления об авто-закрытиях.
type Telegram struct {
	bot      *tgbot.BotAPI
	cfg      *config.Config
	accounts *storesvc.Accounts
	manager  *session.Manager
	rank     *ranksvc.Reconciler

	mu       sync.Mutex
	pendings map[string]*pending
}

func NewTelegram(
	cfg *config.Config,
	accounts *storesvc.Accounts,
	manager *session.Manager,
	rank *ranksvc.Reconciler,
) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}

	return &Telegram{
		bot:      b,
		cfg:      cfg,
		accounts: accounts,
		manager:  manager,
		rank:     rank,
		pendings: make(map[string]*pending),
	}, nil
}

func (t *Telegram) Send(ctx context.Context, chatID int64, msg string) (tgbot.Message, error) {
	return t.bot.Send(tgbot.NewMessage(chatID, msg))
}

func (t *Telegram) SendF(ctx context.Context, chatID int64, format string, args ...any) (tgbot.Message, error) {
	return t.Send(ctx, chatID, fmt.Sprintf(format, args...))
}

// TradeClosed — пуш игроку об авто-закрытии (SL/TP/ликвидация).
func (t *Telegram) TradeClosed(ctx context.Context, userID int64, rec *models.TradeRecord) {
	_, _ = t.Send(ctx, userID, formatClosed(rec))
}

// Start: long-polling для messages + callback_query.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "callback_query"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd := <-updates:
				if upd.CallbackQuery != nil {
					t.handleCallback(ctx, upd.CallbackQuery)
				}
				if upd.Message != nil && upd.Message.Chat != nil && upd.Message.IsCommand() {
					t.handleCommand(ctx, upd.Message)
				}
			}
		}
	}()
}

func (t *Telegram) Stop() {
	t.bot.StopReceivingUpdates()
}

func (t *Telegram) handleCommand(ctx context.Context, msg *tgbot.Message) {
	userID := msg.Chat.ID

	// всё кроме /start требует живой сессии
	if msg.Command() != "start" {
		if _, ok := t.manager.Session(userID); !ok {
			if err := t.startSession(ctx, msg); err != nil {
				logger.Error("start session for %d: %v", userID, err)
				_, _ = t.Send(ctx, userID, "❗️ Не удалось загрузить аккаунт, попробуйте /start")
				return
			}
		}
	}

	switch msg.Command() {
	case "start":
		t.handleStart(ctx, msg)
	case "balance":
		t.handleBalance(ctx, userID)
	case "long":
		t.handleOpen(ctx, userID, models.Long, msg.CommandArguments())
	case "short":
		t.handleOpen(ctx, userID, models.Short, msg.CommandArguments())
	case "positions":
		t.handlePositions(ctx, userID)
	case "history":
		t.handleHistory(ctx, userID)
	case "rating":
		t.handleRating(ctx, userID)
	case "deposit":
		t.handleDeposit(ctx, userID, msg.CommandArguments())
	case "withdraw":
		// ждёт подтверждения кнопкой, поэтому не блокируем цикл апдейтов
		go t.handleWithdraw(ctx, userID, msg.CommandArguments())
	case "reset":
		go t.handleReset(ctx, userID)
	}
}

func (t *Telegram) startSession(ctx context.Context, msg *tgbot.Message) error {
	userID := msg.Chat.ID
	name := msg.From.UserName
	if name == "" {
		name = fmt.Sprintf("Player_%d", userID)
	}

	acc, err := t.accounts.Onboard(ctx, userID, name, t.cfg.Trading)
	if err != nil {
		return err
	}

	// на новом устройстве подтягиваем баланс из рейтинг-сервиса, если
	// локальной истории ещё нет
	if len(acc.History) == 0 && len(acc.Positions) == 0 {
		if stats, err := t.rank.RemoteBalance(ctx, userID); err == nil && stats != nil && stats.Balance > 0 {
			acc.Balance = stats.Balance
			if err := t.accounts.Save(ctx, acc); err != nil {
				return err
			}
		}
	}

	_, err = t.manager.StartForPlayer(ctx, acc, t)
	return err
}

func (t *Telegram) handleStart(ctx context.Context, msg *tgbot.Message) {
	if err := t.startSession(ctx, msg); err != nil {
		logger.Error("onboard %d: %v", msg.Chat.ID, err)
		_, _ = t.Send(ctx, msg.Chat.ID, "❗️ Ошибка создания аккаунта")
		return
	}
	s, _ := t.manager.Session(msg.Chat.ID)
	_, _ = t.SendF(ctx, msg.Chat.ID,
		"🎮 Добро пожаловать в симулятор трейдинга!\n"+
			"💰 Баланс: $%.2f\n\n"+
			"Команды:\n"+
			"/long <монета> <сумма> <плечо> [SL%%] [TP%%]\n"+
			"/short — то же для шорта\n"+
			"/positions — открытые позиции\n"+
			"/history — история сделок\n"+
			"/rating — рейтинг игроков\n"+
			"/balance, /deposit, /withdraw, /reset",
		s.Balance(),
	)
}

func (t *Telegram) handleBalance(ctx context.Context, userID int64) {
	s, ok := t.manager.Session(userID)
	if !ok {
		return
	}
	_, _ = t.SendF(ctx, userID, "💰 Баланс: $%.2f", s.Balance())
}

// Confirm — сообщение с кнопками и ожиданием callback.
func (t *Telegram) Confirm(ctx context.Context, chatID int64, prompt string, timeout time.Duration) bool {
	token := fmt.Sprintf("%d", time.Now().UnixNano())
	p := &pending{
		ch:     make(chan bool, 1),
		prompt: prompt,
	}

	t.mu.Lock()
	t.pendings[token] = p
	t.mu.Unlock()

	btnYes := tgbot.NewInlineKeyboardButtonData("✅ Да", "CONF::"+token)
	btnNo := tgbot.NewInlineKeyboardButtonData("❌ Нет", "REJ::"+token)
	kb := tgbot.NewInlineKeyboardMarkup(tgbot.NewInlineKeyboardRow(btnYes, btnNo))

	msg := tgbot.NewMessage(chatID, prompt)
	msg.ReplyMarkup = kb

	sent, _ := t.bot.Send(msg)
	p.msgID = sent.MessageID

	tmr := time.NewTimer(timeout)
	defer tmr.Stop()

	select {
	case ok := <-p.ch:
		return ok
	case <-tmr.C:
		_ = t.editReplyMarkupRemove(chatID, p.msgID)
		_ = t.editText(chatID, p.msgID, fmt.Sprintf("%s\n\n⏳ Таймаут", prompt))
		t.mu.Lock()
		delete(t.pendings, token)
		t.mu.Unlock()
		return false
	case <-ctx.Done():
		t.mu.Lock()
		delete(t.pendings, token)
		t.mu.Unlock()
		return false
	}
}

func (t *Telegram) editReplyMarkupRemove(chatID int64, msgID int) error {
	rm := tgbot.InlineKeyboardMarkup{InlineKeyboard: [][]tgbot.InlineKeyboardButton{}}
	edit := tgbot.NewEditMessageReplyMarkup(chatID, msgID, rm)
	_, err := t.bot.Request(edit)
	return err
}

func (t *Telegram) editText(chatID int64, msgID int, text string) error {
	edit := tgbot.NewEditMessageText(chatID, msgID, text)
	_, err := t.bot.Request(edit)
	return err
}
