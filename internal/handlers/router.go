package handlers

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/catalog"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/lang"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
)

// downloadCallbackPrefix marks resolution-pick buttons; the payload is the
// vertical resolution, e.g. "dl_720".
const downloadCallbackPrefix = "dl_"

// HandleUpdate routes one incoming update. It is called on its own goroutine
// per update, so a long download never blocks other users' interactions.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	msg := update.Message
	if msg == nil {
		return
	}

	logutils.Log.WithFields(map[string]any{
		"user": msg.From.UserName,
		"chat": msg.Chat.ID,
	}).Debugf("Message: %s", msg.Text)

	if msg.IsCommand() {
		switch strings.ToLower(msg.Command()) {
		case "start":
			if _, err := h.gw.SendMessage(msg.Chat.ID, lang.GetMessage(lang.WelcomeMsgID), nil); err != nil {
				logutils.Log.WithError(err).Warn("Failed to send welcome")
			}
		case "lecture":
			h.handleLectureCommand(msg)
		default:
			h.gw.SendErrorMessage(msg.Chat.ID, lang.GetMessage(lang.UnknownCommandMsgID))
		}
		return
	}

	h.handleSelectionText(ctx, msg)
}

// handleSelectionText advances the selection state machine from free text by
// resolving it against the catalog's reverse index. Text that matches no
// label is ignored unless strict selection is configured.
func (h *Handler) handleSelectionText(ctx context.Context, msg *tgbotapi.Message) {
	match, ok := h.catalog.Resolve(msg.Text)
	if !ok {
		if h.cfg.StrictSelection {
			h.gw.SendErrorMessage(msg.Chat.ID, lang.GetMessage(lang.UseKeyboardMsgID))
		}
		return
	}

	switch match.Level {
	case catalog.LevelCourse:
		h.handleCourseChosen(msg.Chat.ID, match)
	case catalog.LevelTerm:
		h.handleTermChosen(msg.Chat.ID, match)
	case catalog.LevelSubject:
		h.handleSubjectChosen(msg.Chat.ID, match)
	case catalog.LevelTopic:
		h.handleTopicChosen(ctx, msg.Chat.ID, msg.From.ID, match)
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if strings.HasPrefix(cb.Data, downloadCallbackPrefix) {
		h.handleResolutionCallback(ctx, cb)
		return
	}
	logutils.Log.Warnf("Unknown callback data: %s", cb.Data)
	h.gw.AnswerCallback(cb.ID, lang.GetMessage(lang.UnknownCommandMsgID))
}
