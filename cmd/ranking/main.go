package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"github.com/prokazin/telegram-trading/internal/modules/rankingsrv"
	"github.com/prokazin/telegram-trading/pkg/logger"
)

func main() {
	logger.MustInit("ranking")

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		rankingsrv.Module(),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	<-app.Done()
	if err := app.Stop(context.Background()); err != nil {
		log.Fatal(err)
	}
}
