package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"go-sse-broadcast/internal/infrastructure/auth"
	"go-sse-broadcast/internal/infrastructure/config"
	"go-sse-broadcast/internal/infrastructure/logger"
	"go-sse-broadcast/internal/infrastructure/registry"
	"go-sse-broadcast/internal/infrastructure/server"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogrusLogger(cfg.LoggerConfig())

	ctx := context.Background()
	sctx := WithSignal(ctx)

	reg := registry.New(registry.Config{
		MaxConnections:    cfg.Registry.MaxConnections,
		HeartbeatInterval: cfg.Registry.HeartbeatInterval,
		ClientTimeout:     cfg.Registry.ClientTimeout,
		WelcomeDelay:      cfg.Registry.WelcomeDelay,
		WriteTimeout:      cfg.Registry.WriteTimeout,
	}, log)
	sender := registry.NewSender(reg, log)
	resolver := auth.NewResolver(cfg.Auth.JWTSecret, log)

	router := InitRouter(cfg, reg, sender, resolver, log)
	httpSrv := server.NewHTTPServer(cfg.Server, router)

	app := newApplication(log, httpSrv, reg)
	if err := app.Run(sctx); err != nil {
		log.Errorf("failed to run application: %v", err)
	}
}

type Application struct {
	logger   logger.Logger
	httpSrv  server.Server
	registry *registry.Registry
}

func newApplication(
	log logger.Logger,
	httpSrv *server.HTTPServer,
	reg *registry.Registry,
) *Application {
	return &Application{
		logger:   log.WithField("app", "sse-broadcast"),
		httpSrv:  httpSrv,
		registry: reg,
	}
}

func (app *Application) Run(ctx context.Context) error {
	eg := errgroup.Group{}

	eg.Go(func() error {
		return app.httpSrv.Start(ctx)
	})

	eg.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			5*time.Second,
		)
		defer cancel()

		// Announce shutdown to listeners before closing the listener itself.
		app.registry.Drain()

		return app.httpSrv.Stop(shutdownCtx)
	})

	return eg.Wait()
}

func WithSignal(pctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(pctx)

	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

		<-sigc

		cancel()
	}()

	return ctx
}
