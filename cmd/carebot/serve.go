package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dialysiscare/carebot/internal/analysis/responder"
	"github.com/dialysiscare/carebot/internal/config"
	"github.com/dialysiscare/carebot/internal/handler"
	"github.com/dialysiscare/carebot/internal/model/persona"
	"github.com/dialysiscare/carebot/internal/scheduler"
	"github.com/dialysiscare/carebot/internal/service/chat"
	"github.com/dialysiscare/carebot/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web chat, JSON API and optional Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func newChatService(cfg *config.Config, personas persona.Store, log *zap.Logger) *chat.Service {
	return chat.NewService(personas, chat.ResponderFunc(responder.Respond), chat.Options{
		ReplyDelay:       cfg.Chat.ReplyDelay,
		MaxMessageLength: cfg.Chat.MaxMessageLength,
	}, log)
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	personaStore := persona.NewMemoryStore(persona.Seed())
	chatService := newChatService(cfg, personaStore, log)
	defer chatService.Close()

	router, err := handler.NewRouter(personaStore, chatService, cfg.Server.AllowedOrigins, log)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		log.Info("DialysisCareBot listening", zap.String("addr", cfg.Server.Addr))
		return runServer(gctx, srv)
	})

	sweeper := scheduler.New(chatService, cfg.Chat.SweepSchedule, cfg.Chat.SessionIdleTTL, log)
	g.Go(func() error { return sweeper.Run(gctx) })

	if cfg.Telegram.Enabled() {
		bot, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.Debug, chatService, log)
		if err != nil {
			log.Warn("telegram disabled", zap.Error(err))
		} else {
			g.Go(func() error { return bot.Run(gctx) })
		}
	} else {
		log.Info("TELEGRAM_BOT_TOKEN not set, skipping telegram transport")
	}

	return g.Wait()
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
