// strided serves the analysis engine over HTTP for backfill jobs and ad-hoc
// reprocessing. Results are cached in Redis and metrics exported to
// Prometheus at /metrics.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stride-engine/config"
	"stride-engine/service"
)

func main() {
	log.Println("starting strided...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ttl := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second

	var cache *service.ResultCache
	for i := 0; i < 5; i++ {
		cache, err = service.NewResultCache(cfg.Server.RedisAddr, ttl)
		if err == nil {
			log.Printf("connected to redis at %s", cfg.Server.RedisAddr)
			break
		}
		log.Printf("redis connection attempt %d failed: %v", i+1, err)
		if i < 4 {
			time.Sleep(time.Duration(i+1) * time.Second)
		}
	}
	if err != nil {
		log.Printf("running without result cache: %v", err)
		cache = nil
	}
	if cache != nil {
		defer cache.Close()
	}

	budget := time.Duration(cfg.Pipeline.BudgetMillis) * time.Millisecond
	handler := service.NewHandler(cache, budget)

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("listening on %s", cfg.Server.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("strided stopped")
}
