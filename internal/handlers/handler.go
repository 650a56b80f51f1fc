package handlers

import (
	"context"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/catalog"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/config"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/delivery"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/fetch"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/models"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/session"
)

// Gateway is the messaging vocabulary the handlers speak. *bot.Bot is the
// production implementation; tests use a recording fake.
type Gateway interface {
	SendMessage(chatID int64, text string, markup interface{}) (int, error)
	SendErrorMessage(chatID int64, text string)
	EditMessageText(chatID int64, messageID int, text string)
	DeleteMessage(chatID int64, messageID int)
	AnswerCallback(callbackID, text string)
	SendVideoFile(chatID int64, path, caption string) error
	SendDocumentFile(chatID int64, path, caption string) error
}

// Enumerator lists the offerable renditions of a source URL.
type Enumerator interface {
	Enumerate(ctx context.Context, url string) []models.EncodingOption
}

// Fetcher materializes one rendition under a size limit.
type Fetcher interface {
	Fetch(ctx context.Context, url string, sel fetch.Selection, sizeLimitBytes int64, sink fetch.Sink) (*models.FetchResult, error)
}

// Handler owns the interaction state machine: selection keyboards, the
// per-user pending selection, and the fetch-and-deliver sequence behind the
// resolution buttons. All collaborators are injected so each piece tests in
// isolation.
type Handler struct {
	gw          Gateway
	cfg         *config.Config
	catalog     *catalog.Catalog
	resolutions *catalog.ResolutionCache
	sessions    *session.Store
	enumerator  Enumerator
	engine      Fetcher
	router      *delivery.Router
}

func New(
	gw Gateway,
	cfg *config.Config,
	cat *catalog.Catalog,
	resolutions *catalog.ResolutionCache,
	sessions *session.Store,
	enumerator Enumerator,
	engine Fetcher,
	router *delivery.Router,
) *Handler {
	return &Handler{
		gw:          gw,
		cfg:         cfg,
		catalog:     cat,
		resolutions: resolutions,
		sessions:    sessions,
		enumerator:  enumerator,
		engine:      engine,
		router:      router,
	}
}
