package app

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	tlbbot "github.com/lectory-fpmi/telegram-lecture-bot/internal/bot"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/catalog"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/config"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/delivery"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/extractor"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/fetch"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/handlers"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/session"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/storage"
)

const updateTimeoutSeconds = 30

// App wires the catalog, the fetch pipeline and the Telegram transport
// together and runs the update loop.
type App struct {
	cfg     *config.Config
	bot     *tlbbot.Bot
	handler *handlers.Handler
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	resolutions, err := catalog.LoadResolutionCache(cfg.ResolutionCachePath)
	if err != nil {
		return nil, err
	}

	botInstance, err := tlbbot.InitBot(cfg.BotToken)
	if err != nil {
		return nil, err
	}

	var uploader storage.Uploader
	if cfg.DeliverySettings.OverflowPolicy == config.OverflowUpload {
		s3Uploader, err := storage.NewS3Uploader(ctx, cfg.CloudSettings)
		if err != nil {
			return nil, err
		}
		uploader = s3Uploader
	}

	prober := extractor.NewYTDLPProber(cfg.DownloadSettings.YtdlpPath)
	enumerator := extractor.NewEnumerator(prober, cfg.EnumerationSettings)
	engine := fetch.NewEngine(cfg.DownloadSettings, cfg.DownloadDir)
	router := delivery.NewRouter(botInstance, uploader, cfg.DeliverySettings)
	sessions := session.NewStore()

	handler := handlers.New(botInstance, cfg, cat, resolutions, sessions, enumerator, engine, router)

	return &App{
		cfg:     cfg,
		bot:     botInstance,
		handler: handler,
	}, nil
}

// Run consumes updates until the context is canceled. Each update gets its
// own goroutine: handlers for different users run concurrently, and a user's
// in-flight download never starves anyone's interaction.
func (a *App) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = updateTimeoutSeconds
	updates := a.bot.Api.GetUpdatesChan(updateConfig)

	logutils.Log.Info("Telegram lecture bot is running")

	for {
		select {
		case <-ctx.Done():
			a.bot.Api.StopReceivingUpdates()
			logutils.Log.Info("Update loop stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go a.handler.HandleUpdate(ctx, update)
		}
	}
}
