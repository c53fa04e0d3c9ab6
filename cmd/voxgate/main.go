package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/voxgate-go/voxgate/internal/dotenv"
	"github.com/voxgate-go/voxgate/pkg/core/turn"
	"github.com/voxgate-go/voxgate/pkg/gateway/config"
	"github.com/voxgate-go/voxgate/pkg/gateway/metrics"
	gatewayserver "github.com/voxgate-go/voxgate/pkg/gateway/server"
	"github.com/voxgate-go/voxgate/pkg/gateway/upstream"
)

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func run(ctx context.Context, stderr io.Writer) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))

	generator, err := upstream.NewGenerator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("chat provider: %w", err)
	}
	recognizer, err := upstream.NewRecognizer(cfg)
	if err != nil {
		return fmt.Errorf("stt provider: %w", err)
	}
	synthesizer, err := upstream.NewSynthesizer(cfg)
	if err != nil {
		return fmt.Errorf("tts provider: %w", err)
	}

	srv := gatewayserver.New(gatewayserver.Dependencies{
		Logger:      logger,
		Config:      cfg,
		Registry:    turn.NewRegistry(),
		Recognizer:  recognizer,
		Generator:   generator,
		Synthesizer: synthesizer,
		PromReg:     metrics.NewRegistry(),
	})

	logger.Info("starting voxgate",
		"addr", cfg.Addr,
		"chat_provider", cfg.ChatProvider,
		"tts_provider", cfg.TTSProvider,
	)

	listenErrCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("voxgate stopped")
	return nil
}

func main() {
	if err := dotenv.LoadFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "voxgate: %v\n", err)
		os.Exit(1)
	}
	if err := run(context.Background(), os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "voxgate: %v\n", err)
		os.Exit(1)
	}
}
