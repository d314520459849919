package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/iota-uz/scheduling/modules/scheduling"
	"github.com/iota-uz/scheduling/modules/scheduling/services"
	"github.com/iota-uz/scheduling/pkg/composables"
	"github.com/iota-uz/scheduling/pkg/configuration"
	"github.com/iota-uz/scheduling/pkg/eventbus"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	if err := applySchema(ctx, pool); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	module := scheduling.NewModule(
		eventbus.NewEventPublisher(logger),
		clockwork.NewRealClock(),
		services.SweeperOptions{
			Enabled:  conf.Sweep.Enabled,
			Interval: conf.Sweep.Interval,
			Logger:   logger.WithField("component", "sweeper"),
		},
	)

	r := mux.NewRouter()
	r.Use(providePool(pool))
	module.Register(r)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweepCtx := composables.WithPool(runCtx, pool)
	go func() {
		if err := module.Sweeper().Run(sweepCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("expiration sweeper stopped")
		}
	}()

	srv := &http.Server{
		Addr:         conf.SocketAddress,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-runCtx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Listening on: %s\n", conf.SocketAddress)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("failed to start server: %v", err)
	}
}

func applySchema(ctx context.Context, pool *pgxpool.Pool) error {
	sql, err := scheduling.SchemaSQL()
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, sql)
	return err
}

func providePool(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}
