package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"supplier-chat/internal/auth"
	"supplier-chat/internal/config"
	"supplier-chat/internal/db"
	"supplier-chat/internal/logger"
	"supplier-chat/internal/observability"
	"supplier-chat/internal/presence"
	"supplier-chat/internal/rabbitmq"
	"supplier-chat/internal/relay"
	"supplier-chat/internal/repositories"
	"supplier-chat/internal/telemetry"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the development chat relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRelay(cmd.Context())
	},
}

func runRelay(ctx context.Context) error {
	cfg, err := config.LoadRelay()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, "supplier-chat-relay", log)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	} else {
		defer shutdownTracing(context.Background())
	}

	var (
		threads  repositories.ThreadRepository
		messages repositories.MessageRepository
	)
	if cfg.DBDSN != "" {
		database, err := db.Connect(ctx, cfg.DBDSN, log)
		if err != nil {
			return err
		}
		defer database.Close()
		threads = repositories.NewThreadRepo(database)
		messages = repositories.NewMessageRepo(database)
	} else {
		log.Info("DB_DSN not set, keeping threads in memory")
		memory := repositories.NewMemory()
		threads, messages = memory, memory
	}

	var online presence.Set = presence.NewMemory()
	if cfg.RedisAddr != "" {
		redisSet, err := presence.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer redisSet.Close()
		online = redisSet
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.Info("event publisher ready",
		zap.String("mode", rabbitmq.PublisherMode(publisher)),
		zap.String("noop_reason", rabbitmq.PublisherNoopReason(publisher)),
	)
	audit := telemetry.NewAuditEmitter(publisher, observability.RoutingKeyAudit, "supplier-chat-relay", cfg.Environment, log)

	if cfg.Environment != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	relayLog := log.Named("relay")
	hub := relay.NewHub(relayLog)
	router := relay.NewRouter(relay.Deps{
		Issuer:   auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Threads:  threads,
		Messages: messages,
		Presence: online,
		Hub:      hub,
		Audit:    audit,
		Logger:   relayLog,
		Debug:    cfg.Environment == "dev",
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("relay listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down relay")
	case err := <-errCh:
		return fmt.Errorf("relay server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.CloseAll()
	return srv.Shutdown(shutdownCtx)
}
