package market

import (
	"context"
	"net/http"

	"go.uber.org/fx"

	"github.com/prokazin/telegram-trading/internal/modules/config"
	hsvc "github.com/prokazin/telegram-trading/internal/modules/health/service"
	"github.com/prokazin/telegram-trading/internal/modules/market/service"
)

func Module() fx.Option {
	return fx.Module("market",
		fx.Provide(
			service.NewSimulator,
			service.NewHub,
			func(cfg *config.Config, sim *service.Simulator, state *hsvc.State) *service.Scheduler {
				return service.NewScheduler(cfg.Market.TickInterval, func() {
					ticks := sim.Tick()
					if len(ticks) > 0 {
						state.TouchTick(ticks[0].At)
					}
				})
			},
		),
		fx.Invoke(func(mux *http.ServeMux, hub *service.Hub) {
			mux.HandleFunc("/ws/prices", hub.HandleWS)
		}),
		fx.Invoke(func(
			lc fx.Lifecycle,
			ctx context.Context,
			sched *service.Scheduler,
			hub *service.Hub,
			state *hsvc.State,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go hub.Run(ctx)
					sched.Start(ctx)
					state.SetReady(true)
					return nil
				},
				OnStop: func(_ context.Context) error {
					sched.Stop()
					return nil
				},
			})
		}),
	)
}
