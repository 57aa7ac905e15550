package ranking

import (
	"context"

	"go.uber.org/fx"

	"github.com/prokazin/telegram-trading/internal/modules/config"
	ledgersvc "github.com/prokazin/telegram-trading/internal/modules/ledger/service"
	"github.com/prokazin/telegram-trading/internal/modules/ranking/service"
	storesvc "github.com/prokazin/telegram-trading/internal/modules/store/service"
)

func Module() fx.Option {
	return fx.Module("ranking",
		fx.Provide(
			func(cfg *config.Config) *service.Client {
				return service.NewClient(cfg.Ranking.BaseURL, cfg.Ranking.Timeout)
			},
			func(cfg *config.Config, c *service.Client, accounts *storesvc.Accounts) *service.Reconciler {
				return service.NewReconciler(c, accounts, cfg.Ranking.TopN)
			},
			// реконсилер как приёмник закрытий журнала
			func(r *service.Reconciler) ledgersvc.Reconciler {
				return r
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, ctx context.Context, r *service.Reconciler) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					r.Restore(ctx)
					// первичная подгрузка топа, ошибка не фатальна
					go func() { _ = r.Refresh(ctx) }()
					return nil
				},
			})
		}),
	)
}
