package session

import (
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("session",
		fx.Provide(
			NewManager,
		),
	)
}
