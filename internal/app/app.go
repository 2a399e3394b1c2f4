package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/botvine/huddle/internal/db"
	"github.com/botvine/huddle/internal/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Clients  Clients
	Repos    Repos
	Services Services
}

func New(ctx context.Context) (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	dbs, err := db.New(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := dbs.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("db automigrate: %w", err)
	}
	theDB := dbs.DB()

	clientset, err := wireClients(ctx, log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(log, clientset, reposet)
	if err != nil {
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset)
	router := wireRouter(handlerset)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Clients:  clientset,
		Repos:    reposet,
		Services: serviceset,
	}, nil
}

// Run drives both halves of the bot until ctx is canceled: the socket
// mode loop toward Slack and the HTTP server for OAuth callbacks and
// health checks. The first one to fail takes the other down with it.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return errors.New("app not initialized")
	}

	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Cfg.HTTPPort),
		Handler: a.Router,
	}

	g.Go(func() error {
		a.Log.Info("http server listening", "port", a.Cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		a.Log.Info("starting slack socket mode loop")
		err := a.Clients.Slack.Run(gctx, a.Services.Assistant.Handle)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("slack socket loop: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Clients.Dedupe != nil {
		_ = a.Clients.Dedupe.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
