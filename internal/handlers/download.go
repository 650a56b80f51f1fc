package handlers

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/delivery"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/fetch"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/lang"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/models"
)

const bytesPerMB = 1024 * 1024

// handleResolutionCallback runs the whole download-and-relay sequence for
// one button press: session lookup, fetch with throttled progress edits,
// size-tiered delivery, and status-message cleanup. Every failure ends in
// exactly one user-visible message and the state machine back at idle.
func (h *Handler) handleResolutionCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Telegram omits the originating message on callbacks older than 48h,
	// so a press on a stale resolution button arrives without one.
	if cb.Message == nil {
		h.gw.AnswerCallback(cb.ID, lang.GetMessage(lang.SessionExpiredMsgID))
		return
	}
	chatID := cb.Message.Chat.ID

	resolution, err := strconv.Atoi(strings.TrimPrefix(cb.Data, downloadCallbackPrefix))
	if err != nil {
		logutils.Log.Warnf("Malformed resolution callback: %s", cb.Data)
		h.gw.AnswerCallback(cb.ID, lang.GetMessage(lang.InternalErrorMsgID))
		return
	}

	selection, ok := h.sessions.Take(cb.From.ID)
	if !ok {
		h.gw.AnswerCallback(cb.ID, lang.GetMessage(lang.SessionExpiredMsgID))
		return
	}
	path := selection.Path()

	// A rendition already uploaded to object storage is served as a link
	// without re-fetching.
	if cachedURL, found := h.resolutions.RemoteURL(path, resolution); found {
		h.gw.AnswerCallback(cb.ID, "")
		if _, err := h.gw.SendMessage(chatID, lang.GetMessage(lang.CloudLinkMsgID, cachedURL), nil); err != nil {
			logutils.Log.WithError(err).Warn("Failed to send cached cloud link")
		}
		return
	}

	h.gw.AnswerCallback(cb.ID, lang.GetMessage(lang.DownloadStartedMsgID))

	progressID, err := h.gw.SendMessage(chatID, lang.GetMessage(lang.ProgressInitialMsgID), nil)
	if err != nil {
		logutils.Log.WithError(err).Error("Failed to send progress message")
		return
	}

	sink := func(p fetch.Progress) {
		h.gw.EditMessageText(chatID, progressID, lang.GetMessage(lang.ProgressMsgID,
			p.Percent(),
			float64(p.Downloaded)/bytesPerMB,
			float64(p.Total)/bytesPerMB,
			p.Speed/bytesPerMB,
			p.ETA,
		))
	}

	sizeLimit := h.cfg.DownloadSettings.SizeLimitMB * bytesPerMB
	result, err := h.engine.Fetch(ctx, selection.URL, h.renditionFor(path, resolution), sizeLimit, sink)
	if err != nil {
		logutils.Log.WithError(err).WithFields(map[string]any{
			"url":        selection.URL,
			"resolution": resolution,
		}).Error("Fetch failed")
		h.gw.EditMessageText(chatID, progressID,
			lang.GetMessage(lang.DownloadFailedMsgID, fetchErrorText(err)))
		return
	}

	h.gw.EditMessageText(chatID, progressID, lang.GetMessage(lang.UploadingMsgID))

	caption := lang.GetMessage(lang.VideoCaptionMsgID, selection.Topic, resolution)
	// Re-read the remote URL: a concurrent request for the same rendition
	// may have finished its upload while this fetch was running.
	cachedURL, _ := h.resolutions.RemoteURL(path, resolution)
	outcome := h.router.Deliver(ctx, *result, chatID, caption, delivery.Options{
		CachedURL: cachedURL,
		RememberURL: func(url string) error {
			return h.resolutions.SetRemoteURL(path, resolution, url)
		},
	})

	switch outcome.Kind {
	case delivery.Sent, delivery.SentAsDocument:
		h.gw.DeleteMessage(chatID, progressID)
	case delivery.UploadedToCloud:
		h.gw.EditMessageText(chatID, progressID, lang.GetMessage(lang.CloudLinkMsgID, outcome.URL))
	case delivery.RejectedTooLarge:
		h.gw.EditMessageText(chatID, progressID,
			lang.GetMessage(lang.TooLargeMsgID, h.cfg.DeliverySettings.MaxDocumentMB))
	case delivery.Failed:
		h.gw.EditMessageText(chatID, progressID,
			lang.GetMessage(lang.DeliveryFailedMsgID, outcome.Reason))
	}

	logutils.Log.WithFields(map[string]any{
		"topic":      selection.Topic,
		"resolution": resolution,
		"outcome":    outcome.Kind.String(),
	}).Info("Delivery finished")
}

// renditionFor builds the fetch selection for a resolution pick, carrying
// the enumerated stream ids when the resolution cache still has them.
func (h *Handler) renditionFor(path models.SelectionPath, resolution int) fetch.Selection {
	sel := fetch.Selection{Resolution: resolution}
	options, ok := h.resolutions.Options(path)
	if !ok {
		return sel
	}
	for _, opt := range options {
		if opt.Resolution == resolution {
			sel.VideoFormatID = opt.VideoFormatID
			sel.AudioFormatID = opt.AudioFormatID
			break
		}
	}
	return sel
}

// fetchErrorText maps a fetch failure to its localized user-facing message.
func fetchErrorText(err error) string {
	kind, ok := fetch.KindOf(err)
	if !ok {
		return lang.GetMessage(lang.InternalErrorMsgID)
	}
	switch kind {
	case fetch.SizeLimitExceeded:
		return lang.GetMessage(lang.SizeLimitExceededMsgID)
	case fetch.NetworkTimeout:
		return lang.GetMessage(lang.NetworkTimeoutMsgID)
	case fetch.NoMatchingFormat:
		return lang.GetMessage(lang.NoMatchingFormatMsgID)
	case fetch.ExtractionFailed:
		return lang.GetMessage(lang.ExtractionFailedMsgID)
	default:
		return lang.GetMessage(lang.InternalErrorMsgID)
	}
}
