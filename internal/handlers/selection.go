package handlers

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/catalog"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/handlers/ui"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/lang"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/models"
)

func (h *Handler) handleLectureCommand(msg *tgbotapi.Message) {
	courses := h.catalog.Courses()
	h.send(msg.Chat.ID, lang.GetMessage(lang.ChooseCourseMsgID), ui.SelectionKeyboard(courses))
}

func (h *Handler) handleCourseChosen(chatID int64, match catalog.Match) {
	terms := h.catalog.Terms(match.Course)
	h.send(chatID, lang.GetMessage(lang.ChooseTermMsgID, match.Course), ui.SelectionKeyboard(terms))
}

func (h *Handler) handleTermChosen(chatID int64, match catalog.Match) {
	subjects := h.catalog.Subjects(match.Course, match.Term)
	h.send(chatID,
		lang.GetMessage(lang.ChooseSubjectMsgID, match.Course, match.Term),
		ui.SelectionKeyboard(subjects))
}

func (h *Handler) handleSubjectChosen(chatID int64, match catalog.Match) {
	topics := h.catalog.Topics(match.Course, match.Term, match.Subject)
	h.send(chatID,
		lang.GetMessage(lang.ChooseTopicMsgID, match.Course, match.Term, match.Subject),
		ui.SelectionKeyboard(topics))
}

// handleTopicChosen resolves the topic to its source URL, records the
// pending selection for the user and offers the available resolutions as an
// inline keyboard. An empty enumeration is reported as "nothing offerable",
// not as a fault.
func (h *Handler) handleTopicChosen(ctx context.Context, chatID, userID int64, match catalog.Match) {
	path := models.SelectionPath{
		Course:  match.Course,
		Term:    match.Term,
		Subject: match.Subject,
		Topic:   match.Topic,
	}

	url, err := h.catalog.Lookup(path)
	if err != nil {
		logutils.Log.WithError(err).Warn("Topic resolved by index but lookup failed")
		h.gw.SendErrorMessage(chatID, lang.GetMessage(lang.LectureNotFoundMsgID))
		return
	}

	options := h.encodingOptions(ctx, path, url)
	if len(options) == 0 {
		h.gw.SendErrorMessage(chatID, lang.GetMessage(lang.NoEncodingsMsgID))
		return
	}

	h.sessions.Put(userID, models.PendingSelection{
		URL:     url,
		Course:  match.Course,
		Term:    match.Term,
		Subject: match.Subject,
		Topic:   match.Topic,
	})

	h.send(chatID,
		lang.GetMessage(lang.TopicOfferMsgID, match.Topic),
		ui.ResolutionKeyboard(options, downloadCallbackPrefix))
}

// encodingOptions serves cached renditions when the resolution cache has
// them and enumerates (then caches) otherwise.
func (h *Handler) encodingOptions(ctx context.Context, path models.SelectionPath, url string) []models.EncodingOption {
	if cached, ok := h.resolutions.Options(path); ok {
		return cached
	}

	options := h.enumerator.Enumerate(ctx, url)
	if len(options) > 0 {
		if err := h.resolutions.SetOptions(path, options); err != nil {
			logutils.Log.WithError(err).Warn("Failed to cache enumerated options")
		}
	}
	return options
}

func (h *Handler) send(chatID int64, text string, markup interface{}) {
	if _, err := h.gw.SendMessage(chatID, text, markup); err != nil {
		logutils.Log.WithError(err).WithField("chat", chatID).Warn("Failed to send selection message")
	}
}
