package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cchai186/commodity-price-tracker/internal/api"
	"github.com/cchai186/commodity-price-tracker/internal/auth"
	"github.com/cchai186/commodity-price-tracker/internal/config"
	"github.com/cchai186/commodity-price-tracker/internal/logging"
	"github.com/cchai186/commodity-price-tracker/internal/models"
	"github.com/cchai186/commodity-price-tracker/internal/pipeline"
	"github.com/cchai186/commodity-price-tracker/internal/quotes"
	"github.com/cchai186/commodity-price-tracker/internal/scheduler"
	"github.com/cchai186/commodity-price-tracker/internal/store"
	"github.com/cchai186/commodity-price-tracker/internal/version"
	"github.com/cchai186/commodity-price-tracker/internal/websocket"
)

const drainTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to the config file")
	once := flag.Bool("once", false, "execute a single run and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		info := version.Get()
		fmt.Printf("trackerd %s (%s, built %s)\n", info.Version, info.Commit, info.BuildDate)
		return
	}

	// .env is optional, real environment variables win either way.
	envFileLoaded := godotenv.Load() == nil

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		FilePath: cfg.Logging.File,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if !envFileLoaded {
		log.Debugf("no .env file found, using process environment")
	}

	env, err := config.ParseEnv()
	if err != nil {
		log.Fatalf("failed to parse environment: %v", err)
	}

	var st store.Store
	if cfg.Database.DSN != "" {
		gormLog := gormlogger.New(
			stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
			gormlogger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		)
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{Logger: gormLog})
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		if err := models.Migrate(db); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		st = store.NewPostgres(db)
		log.Infof("run history persisted to postgres")
	} else {
		st = store.NewMemory()
		log.Infof("no database configured, run history kept in memory")
	}

	hub := websocket.NewHub(log)
	go hub.Run()

	client := quotes.NewClient(cfg.Market.BaseURL, time.Duration(cfg.Market.RequestIntervalMS)*time.Millisecond)
	snapshot := quotes.NewSnapshot(time.Duration(cfg.Market.QuoteTTLSeconds) * time.Second)
	defer snapshot.Stop()

	pipe := pipeline.New(pipeline.Options{
		Config:     cfg,
		Env:        env,
		Categories: categoriesFromConfig(cfg),
		Client:     client,
		Snapshot:   snapshot,
		Store:      st,
		Events:     hub,
		Logger:     log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		run, err := pipe.RunOnce(ctx)
		if err != nil {
			log.Fatalf("run failed to start: %v", err)
		}
		if run.Status != models.RunStatusSucceeded {
			log.Errorf("run %s failed: %s", run.ID, run.ErrorMessage)
			os.Exit(1)
		}
		log.Infof("run %s completed successfully", run.ID)
		return
	}

	// The daemon surface is protected, both secrets are mandatory.
	if env.JWTSecret == "" {
		log.Fatalf("TRACKER_JWT_SECRET must be set")
	}
	if env.AdminPassword == "" {
		log.Fatalf("TRACKER_ADMIN_PASSWORD must be set")
	}
	authManager, err := auth.NewManager(env.JWTSecret, cfg.Auth.AdminUser, env.AdminPassword, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	if err != nil {
		log.Fatalf("failed to initialize auth: %v", err)
	}

	var sched *scheduler.Scheduler
	if cfg.Schedule.Enabled {
		sched, err = scheduler.New(cfg.Schedule.Cron, pipe, log)
		if err != nil {
			log.Fatalf("failed to parse schedule: %v", err)
		}
		go sched.Run(ctx)
	} else {
		log.Warnf("cron schedule disabled, runs must be dispatched manually")
	}

	apiOpts := api.Options{
		Store:      st,
		Dispatcher: pipe,
		Snapshot:   snapshot,
		Auth:       authManager,
		Hub:        hub,
		Logger:     log,
	}
	if sched != nil {
		apiOpts.Schedule = sched
	}

	gin.SetMode(gin.ReleaseMode)
	server := api.NewServer(apiOpts)

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: server,
	}

	go func() {
		log.Infof("listening on %s", cfg.Server.Address)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("http server failed: %v", err)
			stop()
		}
	}()

	log.Infof("trackerd %s started", version.Get().Version)
	<-ctx.Done()
	log.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("failed to shut down http server: %v", err)
	}

	if !pipe.Drain(drainTimeout) {
		log.Warnf("active run did not finish within %s, aborting it", drainTimeout)
		pipe.Shutdown()
		pipe.Drain(5 * time.Second)
	}
}

func categoriesFromConfig(cfg *config.Config) []quotes.Category {
	if len(cfg.Market.Categories) == 0 {
		return quotes.DefaultCategories()
	}
	out := make([]quotes.Category, 0, len(cfg.Market.Categories))
	for _, c := range cfg.Market.Categories {
		cat := quotes.Category{Name: c.Name}
		for _, s := range c.Symbols {
			cat.Symbols = append(cat.Symbols, quotes.Symbol{Ticker: s.Ticker, Label: s.Label})
		}
		out = append(out, cat)
	}
	return out
}
