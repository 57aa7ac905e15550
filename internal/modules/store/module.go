package store

import (
	"go.uber.org/fx"

	"github.com/prokazin/telegram-trading/internal/modules/config"
	ledgersvc "github.com/prokazin/telegram-trading/internal/modules/ledger/service"
	"github.com/prokazin/telegram-trading/internal/modules/store/service"
)

func Module() fx.Option {
	return fx.Module("store",
		fx.Provide(
			func(cfg *config.Config) *service.Accounts {
				return service.NewAccounts(cfg.StorePath)
			},
			// стор в роли персиста для журнала позиций
			func(a *service.Accounts) ledgersvc.AccountStore {
				return a
			},
		),
	)
}
