package ledger

import (
	"go.uber.org/fx"

	"github.com/prokazin/telegram-trading/internal/modules/config"
	"github.com/prokazin/telegram-trading/internal/modules/ledger/service"
	marketsvc "github.com/prokazin/telegram-trading/internal/modules/market/service"
)

func Module() fx.Option {
	return fx.Module("ledger",
		fx.Provide(
			func(
				cfg *config.Config,
				store service.AccountStore,
				sim *marketsvc.Simulator,
				rank service.Reconciler,
			) *service.Ledger {
				// симулятор — источник цен для журнала
				return service.NewLedger(cfg.Trading.MaxLeverage, store, sim, rank)
			},
		),
	)
}
