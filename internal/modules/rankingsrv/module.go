package rankingsrv

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"github.com/prokazin/telegram-trading/internal/modules/rankingsrv/service"
	"github.com/prokazin/telegram-trading/internal/modules/rankingsrv/service/pg"
	"github.com/prokazin/telegram-trading/pkg/db"
	"github.com/prokazin/telegram-trading/pkg/tracing"
)

func Module() fx.Option {
	return fx.Module("rankingsrv",
		fx.Provide(
			NewConfig,
			func(ctx context.Context, cfg *Config) (*db.PgTxManager, error) {
				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}
				if err = poolMaster.Ping(ctx); err != nil {
					return nil, err
				}
				return db.NewPgTxManager(poolMaster), nil
			},
			pg.New,
			func(p *pg.Players) service.Store { return p },
			func(cfg *Config, store service.Store) *service.Server {
				return service.NewServer(store, cfg.AdminKey)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *Config, players *pg.Players, srv *service.Server, tx *db.PgTxManager) {
			httpSrv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           srv.Mux(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			var closeTracer func()
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					_, closer, err := tracing.InitTracer(tracing.Config{
						ServiceName: "ranking",
						Host:        cfg.Jaeger.Host,
						Port:        cfg.Jaeger.Port,
					})
					if err != nil {
						return err
					}
					closeTracer = closer

					if err := players.Init(ctx); err != nil {
						return err
					}

					ln, err := net.Listen("tcp", cfg.Addr)
					if err != nil {
						return err
					}
					go func() { _ = httpSrv.Serve(ln) }()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					if closeTracer != nil {
						closeTracer()
					}
					tx.Close()
					return httpSrv.Shutdown(ctx)
				},
			})
		}),
	)
}
