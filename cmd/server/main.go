package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wiki-race/internal/config"
	"wiki-race/internal/db"
	"wiki-race/internal/game"
	"wiki-race/internal/generator"
	"wiki-race/internal/server"
	"wiki-race/internal/wiki"

	"github.com/redis/go-redis/v9"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("dotenv load failed: %v", err)
	}
	cfg := config.Load()

	var store game.Store
	var seeds generator.SeedSource
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		if cfg.DBAutoMigrate {
			if err := db.Migrate(conn); err != nil {
				log.Fatalf("db migrate failed: %v", err)
			}
		}
		store = db.NewStore(conn)
		seeds = db.NewSeedPool(conn)
		log.Printf("using postgres store")
	} else {
		store = game.NewMemoryStore()
		log.Printf("DATABASE_URL not set; using in-memory store")
	}

	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := cache.Ping(context.Background()).Err(); err != nil {
			log.Printf("redis ping failed addr=%s error=%v", cfg.RedisAddr, err)
		}
		defer cache.Close()
	}

	graph := wiki.NewCachedGraph(wiki.NewClient(cfg.WikiAPIURL, cfg.WikiUserAgent, cfg.WikiTimeout()), cache, cfg.LinkCacheTTL())
	gen := generator.New(generator.NewWalker(graph, nil), graph, seeds, generator.Options{
		SeedSteps:     cfg.SeedSteps,
		SolutionSteps: cfg.SolutionSteps,
		Attempts:      cfg.RoundGenerationAttempts,
	})
	engine := game.New(store, gen, graph, game.Options{
		TimeLimitMin:     cfg.TimeLimitMinSeconds,
		TimeLimitMax:     cfg.TimeLimitMaxSeconds,
		PointsForSolving: cfg.PointsForSolving,
	})
	srv := server.New(engine, graph, cfg)

	restored, err := srv.RestoreRunningRounds(context.Background())
	if err != nil {
		log.Printf("restore running rounds failed: %v", err)
	} else {
		log.Printf("restored running rounds count=%d", restored)
	}
	sweeper, err := srv.StartSweeper()
	if err != nil {
		log.Fatalf("sweeper start failed: %v", err)
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Handler(),
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("wiki-race server listening on %s", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	srv.Stop()
	if err := sweeper.Shutdown(); err != nil {
		log.Printf("sweeper shutdown failed: %v", err)
	}
}
