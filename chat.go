package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"supplier-chat/internal/config"
	"supplier-chat/internal/conversation"
	"supplier-chat/internal/history"
	"supplier-chat/internal/logger"
	"supplier-chat/internal/models"
	"supplier-chat/internal/observability"
	"supplier-chat/internal/session"
	"supplier-chat/internal/store"
	"supplier-chat/internal/ws"
)

var threadID int64

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open an interactive conversation on the chat socket",
	Long: `Opens one thread, prints inbound messages and sends every line read
from stdin. "/typing" and "/idle" toggle the typing indicator, "/quit" exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	chatCmd.Flags().Int64Var(&threadID, "thread", 0, "thread id to open (defaults to the most recent thread)")
}

func runChat(ctx context.Context, in io.Reader, out io.Writer) error {
	cfg, err := config.LoadClient()
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

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, "supplier-chat-client", log)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	} else {
		defer shutdownTracing(context.Background())
	}

	tokens, err := session.New(cfg.SessionToken, cfg.SessionFile)
	if err != nil {
		return err
	}
	token, err := tokens.Token(ctx)
	if err != nil {
		return err
	}
	userID, err := session.UserID(token)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, log)
	}

	historyClient, err := history.NewClient(cfg.APIURL, tokens, nil)
	if err != nil {
		return err
	}
	thread, err := pickThread(ctx, historyClient, threadID)
	if err != nil {
		return err
	}

	chatStore := store.New()
	wsLog := log.Named("ws")
	dispatcher := ws.NewDispatcher(chatStore, wsLog)
	client, err := ws.NewClient(ws.Options{
		URL:                  cfg.WSURL,
		Tokens:               tokens,
		Dispatcher:           dispatcher,
		Logger:               wsLog,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		ReconnectDelay:       cfg.ReconnectDelay,
		PingInterval:         cfg.PingInterval,
	})
	if err != nil {
		return err
	}
	defer client.Shutdown()

	view := conversation.New(conversation.Config{
		UserID:   userID,
		Socket:   client,
		Messages: dispatcher,
		History:  historyClient,
		Store:    chatStore,
		Logger:   log.Named("conversation"),
	})

	printed := 0
	unsubscribe := chatStore.Subscribe(func(s store.Snapshot) {
		for _, m := range s.Messages[min(printed, len(s.Messages)):] {
			printMessage(out, userID, m)
		}
		printed = len(s.Messages)
	})
	defer unsubscribe()

	if err := view.Open(ctx, thread); err != nil {
		return err
	}
	defer view.Close()
	fmt.Fprintf(out, "-- %s (thread %d) --\n", thread.ListingTitle, thread.ThreadID)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch strings.TrimSpace(line) {
			case "/quit":
				return nil
			case "/typing":
				view.Typing(true)
			case "/idle":
				view.Typing(false)
			case "/online":
				fmt.Fprintf(out, "peer online: %t\n", view.PeerOnline())
			default:
				view.Send(line)
			}
		}
	}
}

// pickThread returns the requested thread, or the most recent one when id is 0.
func pickThread(ctx context.Context, client *history.Client, id int64) (models.Thread, error) {
	threads, err := client.Threads(ctx)
	if err != nil {
		return models.Thread{}, fmt.Errorf("load threads: %w", err)
	}
	if len(threads) == 0 {
		return models.Thread{}, errors.New("no conversations yet")
	}
	if id == 0 {
		return threads[0], nil
	}
	for _, t := range threads {
		if t.ThreadID == id {
			return t, nil
		}
	}
	return models.Thread{}, fmt.Errorf("thread %d not found", id)
}

func printMessage(out io.Writer, userID int64, m models.Message) {
	who := "them"
	if m.SenderID == userID {
		who = "me"
	}
	fmt.Fprintf(out, "[%s] %s\n", who, m.Content)
}

func serveMetrics(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("metrics listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("metrics server error", zap.Error(err))
	}
}
