package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"agromarket/internal/auth"
	"agromarket/internal/config"
	"agromarket/internal/controller"
	"agromarket/internal/logger"
	"agromarket/internal/repository"
	"agromarket/internal/router"
	"agromarket/internal/service"
	"agromarket/internal/storage"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type App struct {
	store      storage.Store
	service    *service.Service
	controller *controller.Controller
	tokens     *auth.Tokens
	log        zerolog.Logger
	stopSig    chan os.Signal
	cfg        *config.Config

	mu   sync.Mutex
	addr string

	Ready chan struct{}
	Done  chan struct{}
}

type option func(*App)

func WithConfig(cfg *config.Config) option {
	return func(app *App) {
		app.cfg = cfg
	}
}

// WithStore replaces the Postgres repository, e.g. with memory.NewMemory().
func WithStore(store storage.Store) option {
	return func(app *App) {
		app.store = store
	}
}

func NewApp(opts ...option) (*App, error) {
	var err error

	app := &App{
		stopSig: make(chan os.Signal, 2),
		Ready:   make(chan struct{}),
		Done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.cfg == nil {
		cfg, err := config.NewConfig()
		if err != nil {
			return nil, err
		}
		app.cfg = cfg
	}

	app.log = logger.New(app.cfg.LogLevel, app.cfg.Environment)

	if app.store == nil {
		app.store, err = repository.NewRepository(nil, &app.cfg.PostgresConfig, app.log)
		if err != nil {
			return nil, err
		}
	}

	app.tokens = auth.NewTokens(app.cfg.AuthConfig)
	app.service = service.NewService(app.store)
	app.controller = controller.NewController(app.service, app.log)

	return app, nil
}

// Addr is the address the server listens on, known once Ready is closed.
func (app *App) Addr() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.addr
}

func (app *App) Run() {
	defer close(app.Done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signal.Notify(app.stopSig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(app.stopSig)

	go func() {
		select {
		case sig := <-app.stopSig:
			app.log.Info().Str("signal", sig.String()).Msg("received signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	server := &http.Server{
		Handler: router.NewRouter(app.controller, router.Options{
			CORSOrigins: app.cfg.CORSOrigins,
			Tokens:      app.tokens,
			Log:         app.log,
		}),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	listener, err := net.Listen("tcp", app.cfg.ServerAddress)
	if err != nil {
		app.log.Error().Err(err).Str("address", app.cfg.ServerAddress).Msg("could not listen")
		app.closeStore()
		return
	}

	app.mu.Lock()
	app.addr = listener.Addr().String()
	app.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		timeout, tcancel := context.WithTimeout(context.Background(), time.Second*10)
		defer tcancel()
		app.log.Info().Msg("shutting down http server")
		return server.Shutdown(timeout)
	})

	app.log.Info().Str("address", app.Addr()).Msg("server started, listening for connections")
	close(app.Ready)

	if err = g.Wait(); err != nil {
		app.log.Error().Err(err).Msg("http server error")
	}

	app.closeStore()
	app.log.Info().Msg("exiting app")
}

func (app *App) closeStore() {
	app.log.Info().Msg("closing store")
	err := app.store.Close()
	if err != nil {
		app.log.Error().Err(err).Msg("store closing error")
	}
}
