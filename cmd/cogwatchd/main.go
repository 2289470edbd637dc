package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cogwatch/cogwatch/internal/api"
	"github.com/cogwatch/cogwatch/internal/capture"
	"github.com/cogwatch/cogwatch/internal/cognitive"
	"github.com/cogwatch/cogwatch/internal/config"
	"github.com/cogwatch/cogwatch/internal/syncstore"
	"github.com/cogwatch/cogwatch/internal/tabsync"
	"github.com/cogwatch/cogwatch/internal/wellness"
)

func main() {
	// check for argument to determine config location
	argPath := "/etc/cogwatch/config.toml"
	if len(os.Args) > 1 {
		argPath = os.Args[1]
	}
	log.Println("Using config file at:", argPath)
	cfg, err := config.LoadConfigFromFile(argPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	store := connectStore(cfg)
	defer store.Close()

	cog := cognitive.NewEngine()
	cog.SetIntervals(cfg.ScoreInterval.Duration(), cfg.FocusInterval.Duration())
	well := wellness.NewEngine(cfg.Wellness)
	well.SetIntervals(cfg.FocusInterval.Duration(), 0)

	cogSync := tabsync.NewSyncer(store, "cognitive-state", cog)
	cogSync.SetInterval(cfg.SyncInterval.Duration())
	wellSync := tabsync.NewSyncer(store, "wellness-state", well)
	wellSync.SetInterval(cfg.SyncInterval.Duration())
	cog.SetSaver(cogSync)
	well.SetSaver(wellSync)

	// Adopt any state a previous instance left behind before scoring starts.
	cogSync.Pull(ctx)
	wellSync.Pull(ctx)

	cog.StartMonitoring()
	well.StartMonitoring()
	defer well.StopMonitoring()
	defer cog.StopMonitoring()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := cogSync.Run(ctx); err != nil {
			log.Println("cognitive sync error:", err)
		}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := wellSync.Run(ctx); err != nil {
			log.Println("wellness sync error:", err)
		}
	}()

	// Host presence watcher (system D-Bus). Failure degrades the source,
	// the scorers keep running on ingested events alone.
	wg.Add(1)
	go func() {
		defer wg.Done()
		sink := capture.SinkFunc(func(visible bool) {
			now := time.Now()
			cog.SetVisible(visible, now)
			if !visible {
				well.HandleBlur(now)
			}
			cogSync.SetVisible(ctx, visible)
			wellSync.SetVisible(ctx, visible)
		})
		if err := capture.Watch(ctx, sink); err != nil {
			log.Println("logind watcher unavailable:", err)
		}
	}()

	server := api.NewServer(cog, well, func(visible bool) {
		cogSync.SetVisible(ctx, visible)
		wellSync.SetVisible(ctx, visible)
	})
	defer server.Close()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Run(ctx, cfg.Listen); err != nil {
			log.Println("api server error:", err)
			cancel()
		}
	}()

	wg.Wait()
	fmt.Println("Shutdown complete")
}

// connectStore prefers the shared redis store and falls back to an
// in-process one so a missing broker never stops local scoring.
func connectStore(cfg *config.Config) syncstore.Store {
	if cfg.RedisAddr == "" {
		log.Println("No redis_addr configured, state stays process-local")
		return syncstore.NewMemoryStore()
	}
	store, err := syncstore.NewRedisStore(cfg.RedisAddr, cfg.StorePrefix)
	if err != nil {
		log.Printf("Redis at %s unreachable (%v), state stays process-local", cfg.RedisAddr, err)
		return syncstore.NewMemoryStore()
	}
	log.Println("Sharing state through redis at", cfg.RedisAddr)
	return store
}
