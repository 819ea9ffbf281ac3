package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weeklychef/internal/account"
	"weeklychef/internal/audit"
	"weeklychef/internal/auth"
	"weeklychef/internal/config"
	"weeklychef/internal/eventbus"
	"weeklychef/internal/httpapi"
	"weeklychef/internal/metrics"
	"weeklychef/internal/permission"
	"weeklychef/internal/store"
	"weeklychef/pkg/logger"
	"weeklychef/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	// resource payloads carry row ids; keep them exact instead of float64
	binding.EnableDecoderUseNumber = true

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		if err := store.Migrate(rootCtx, log, db); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}
	rows := store.NewPostgres(db)

	var rdb *redis.Client
	if addr := cfg.RedisAddr(); addr != "" {
		rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
	}

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	m := metrics.New(reg)

	codec, err := auth.NewCodec(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}
	sessions, err := auth.NewSessionIssuer(codec, rows, cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}
	resolver := auth.NewResolver(sessions, log, m)

	policies := permission.DefaultPolicies()
	engine := permission.NewEngine(policies, permission.NewOwnershipResolver(rows, policies), m)

	opts := account.Options{Observer: m, Logger: log}
	if rdb != nil {
		opts.Throttle = account.NewRedisThrottle(rdb, cfg.Login.MaxFailures, cfg.Login.FailureWindow)
	} else {
		log.Warn("redis not configured; login throttling is per process")
		opts.Throttle = account.NewMemoryThrottle(cfg.Login.MaxFailures, cfg.Login.FailureWindow)
	}
	if cfg.RabbitMQ.Enabled() {
		kind, err := eventbus.ParseExchangeType(cfg.RabbitMQ.ExchangeType)
		if err != nil {
			log.Error("rabbitmq init failed", "err", err)
			os.Exit(1)
		}
		bus, err := eventbus.NewRabbitMQ(cfg.RabbitMQ.URI(), cfg.RabbitMQ.Exchange, kind)
		if err != nil {
			log.Error("rabbitmq init failed", "err", err)
			os.Exit(1)
		}
		defer bus.Close()
		opts.Events = bus
	}
	accounts := account.NewService(rows, sessions, account.NewArgon2Hasher(account.DefaultArgon2Params), opts)

	h := httpapi.Handlers{
		Accounts: accounts,
		Gate:     engine,
		Store:    rows,
		Audit:    audit.NewService(audit.NewPostgresRepo(db)),
		Policies: policies,
	}

	// Gin router
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(m.Middleware())

	registerPublicRoutes(r, db, rdb, m)
	registerAPIRoutes(r, auth.ResolveIdentity(resolver), h)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
