package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/app"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/config"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/lang"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logutils.Log.WithError(err).Fatal("Failed to initialize configuration")
	}

	logutils.InitLogger(cfg.LogLevel)
	logutils.Log.WithFields(map[string]any{
		"version":    Version,
		"build_time": BuildTime,
	}).Info("Starting Telegram lecture bot")

	lang.SetupLang(cfg.Lang)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logutils.Log.Infof("Received signal %v, shutting down", sig)
		cancel()
	}()

	application, err := app.New(ctx, cfg)
	if err != nil {
		logutils.Log.WithError(err).Fatal("Failed to initialize application")
	}

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logutils.Log.WithError(err).Fatal("Bot stopped with error")
	}
}
