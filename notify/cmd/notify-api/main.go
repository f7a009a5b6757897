package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/compass-ms/usernotify/notify/internal/consumer"
	"github.com/compass-ms/usernotify/notify/internal/storage/pg"
	"github.com/compass-ms/usernotify/shared/config"
	"github.com/compass-ms/usernotify/shared/logger"
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "notify/config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	storage, err := pg.New(cfg)
	if err != nil {
		logger.Log.Error("failed to connect to db", "error", err)
		return
	}
	defer storage.Cleanup()

	conn, err := amqp.Dial(cfg.Private.AmqpURL)
	if err != nil {
		logger.Log.Error("failed to connect to broker", "error", err)
		return
	}
	defer conn.Close()

	ch, deliveries, err := consumer.Subscribe(conn, cfg.Public.Queue)
	if err != nil {
		logger.Log.Error("failed to subscribe to queue", "error", err)
		return
	}
	defer ch.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := consumer.New(storage)
	go func() {
		logger.Log.Info("consuming messages", "queue", cfg.Public.Queue)
		c.Run(ctx, deliveries)
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := storage.Ping(pingCtx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := cfg.Public.NotifyPort
	if port == "" {
		port = "8081"
	}
	server := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Log.Info("notify service listening", "port", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Error("server stopped", "error", err)
	}
}
