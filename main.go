package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apirest "github.com/PokemonFusion/Fusion2-sub001/api/rest"
	apiws "github.com/PokemonFusion/Fusion2-sub001/api/ws"
	"github.com/PokemonFusion/Fusion2-sub001/audit"
	"github.com/PokemonFusion/Fusion2-sub001/cache"
	"github.com/PokemonFusion/Fusion2-sub001/config"
	dbadapter "github.com/PokemonFusion/Fusion2-sub001/db"
	"github.com/PokemonFusion/Fusion2-sub001/game/battle"
	"github.com/PokemonFusion/Fusion2-sub001/game/session"
	mw "github.com/PokemonFusion/Fusion2-sub001/middleware"
	"github.com/PokemonFusion/Fusion2-sub001/model"
	"github.com/PokemonFusion/Fusion2-sub001/plugin/hook"
	"github.com/PokemonFusion/Fusion2-sub001/scheduler"
	"github.com/PokemonFusion/Fusion2-sub001/storage"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		cfgPath = ""
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Security.JWTSecret == "" {
		logger.Fatal("security.jwt_secret is not set")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	if err := model.AutoMigrate(db); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Cache ----
	c, err := cache.NewCache(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		logger.Fatal("cache", zap.Error(err))
	}
	defer c.Close()
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Static data ----
	dex := battle.DefaultDex()
	if cfg.Battle.DexPath != "" {
		if err := dex.LoadFile(cfg.Battle.DexPath); err != nil {
			logger.Fatal("dex", zap.String("path", cfg.Battle.DexPath), zap.Error(err))
		}
		logger.Info("dex loaded", zap.String("path", cfg.Battle.DexPath))
	}

	// ---- Battle storage ----
	var (
		rooms    session.RoomResolver
		regStore session.RegistryStore
	)
	switch cfg.Battle.Store {
	case "db":
		rooms = storage.GormRooms(db)
		regStore = storage.NewGormRegistryStore(db)
	case "cache", "":
		rooms = storage.CacheRooms(c, 0)
		regStore = storage.NewCacheRegistryStore(c)
	default:
		logger.Fatal("unknown battle.store", zap.String("store", cfg.Battle.Store))
	}
	creatures := storage.NewCreatureStore(db)

	// ---- Audit / log tail ----
	auditSvc := audit.New(db, logger, audit.Options{
		BatchSize:     cfg.Audit.BatchSize,
		FlushInterval: cfg.Audit.FlushInterval,
	})
	tail := storage.NewLogTail(c, cfg.Battle.LogTail, 24*time.Hour, logger)

	// ---- Hooks ----
	hooks := hook.NewCenter(logger)
	hooks.Register(hook.BattleEnd, 100, "log", func(_ context.Context, _ string, data interface{}) (interface{}, error) {
		if evt, ok := data.(*session.EndEvent); ok {
			logger.Info("battle finished",
				zap.String("battle_id", evt.ID),
				zap.Int("turn", evt.Turn),
				zap.String("winner", evt.Winner))
		}
		return data, nil
	})

	// ---- Sessions ----
	registry := session.NewRegistry(regStore, logger)
	hub := apiws.NewHub(registry, cfg.Security, logger)

	var battles int64
	sessCfg := session.Config{
		Battle: battle.Config{
			Dex:             dex,
			Logger:          logger,
			CritDenominator: cfg.Battle.CritDenominator,
			ExpShare:        cfg.Battle.ExpShare,
		},
		Directory: hub,
		Creatures: creatures,
		Hooks:     hooks,
		Recorder:  storage.Recorders{tail, auditSvc},
		Registry:  registry,
		Logger:    logger,
		Tier:      cfg.Battle.Tier,
		Debug:     cfg.Server.Debug,
		NewRNG: func() *rand.Rand {
			n := atomic.AddInt64(&battles, 1)
			if cfg.Battle.Seed != 0 {
				return rand.New(rand.NewSource(cfg.Battle.Seed + n))
			}
			return rand.New(rand.NewSource(time.Now().UnixNano() + n))
		},
	}

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	restored, err := registry.Restore(bootCtx, rooms, sessCfg)
	cancelBoot()
	if err != nil {
		logger.Error("registry restore", zap.Error(err))
	}
	logger.Info("battles restored", zap.Int("count", restored))

	// ---- Scheduler ----
	sched := scheduler.New(logger, 0)
	defer sched.Stop()
	if cfg.Scheduler.RegistryAutosave > 0 {
		sched.AddTicker("registry.autosave", cfg.Scheduler.RegistryAutosave, registry.Save)
	}
	// Give clients time to reconnect before re-attaching them.
	sched.AddDelay("registry.rebuild", 30*time.Second, func(context.Context) error {
		registry.Rebuild(hub)
		return nil
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "battles": registry.Count(), "clients": hub.Count()})
	})

	limit := mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)
	auth := mw.Auth(cfg.Security, c)

	battleH := apirest.NewBattleHandler(registry, rooms, sessCfg, creatures, tail, auditSvc, logger)
	battleH.Register(r.Group("/api", auth, limit))

	guard, err := mw.AdminOnly(cfg.Security.AdminCIDRs)
	if err != nil {
		logger.Fatal("admin guard", zap.Error(err))
	}
	adminH := apirest.NewAdminHandler(registry, hub, sched, cfg.Security, c, logger)
	adminH.Register(r.Group("/admin", guard))

	r.GET("/ws", auth, hub.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()
	<-ctx.Done()

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	hub.CloseAll()
	if err := registry.Save(shutdownCtx); err != nil {
		logger.Error("registry save", zap.Error(err))
	}
	auditSvc.Stop(shutdownCtx)
}
