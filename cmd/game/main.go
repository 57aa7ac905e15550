package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"github.com/prokazin/telegram-trading/internal/modules/config"
	"github.com/prokazin/telegram-trading/internal/modules/health"
	"github.com/prokazin/telegram-trading/internal/modules/ledger"
	"github.com/prokazin/telegram-trading/internal/modules/market"
	"github.com/prokazin/telegram-trading/internal/modules/ranking"
	"github.com/prokazin/telegram-trading/internal/modules/store"
	telegram "github.com/prokazin/telegram-trading/internal/modules/telegram_bot"
	"github.com/prokazin/telegram-trading/internal/session"
	"github.com/prokazin/telegram-trading/pkg/logger"
)

func main() {
	logger.MustInit("game")

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		health.Module(),
		market.Module(),
		store.Module(),
		ledger.Module(),
		ranking.Module(),
		session.Module(),
		telegram.Module(),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	<-app.Done()
	if err := app.Stop(context.Background()); err != nil {
		log.Fatal(err)
	}
}
