package telegram

import (
	"context"

	"go.uber.org/fx"

	"github.com/prokazin/telegram-trading/internal/modules/telegram_bot/service"
	"github.com/prokazin/telegram-trading/internal/session"
)

func Module() fx.Option {
	return fx.Module("telegram",
		// Сервис Telegram как *service.Telegram
		fx.Provide(
			service.NewTelegram,
		),

		// Адаптер: *service.Telegram -> session.Notifier
		fx.Provide(
			func(t *service.Telegram) session.Notifier {
				return t
			},
		),

		// Запуск long-polling через Lifecycle
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						t.Start(ctx)
						return nil
					},
					OnStop: func(ctx context.Context) error {
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
