package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
)

// Bot wraps the Telegram API with the small send/edit/delete vocabulary the
// rest of the system uses. Transport errors are logged here and surfaced as
// plain errors; nothing above this layer sees tgbotapi types except for
// keyboard markup.
type Bot struct {
	Api *tgbotapi.BotAPI
}

func InitBot(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	logutils.Log.Infof("Authorized on account %s", api.Self.UserName)
	return &Bot{Api: api}, nil
}

// SendMessage sends text with optional keyboard markup and returns the sent
// message's ID so callers can edit or delete it later.
func (b *Bot) SendMessage(chatID int64, text string, markup interface{}) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := b.Api.Send(msg)
	if err != nil {
		logutils.Log.WithError(err).Errorf("Message (%s) not sent", text)
		return 0, err
	}
	return sent.MessageID, nil
}

func (b *Bot) SendErrorMessage(chatID int64, text string) {
	logutils.Log.Error(text)
	if _, err := b.Api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logutils.Log.WithError(err).Errorf("Error message (%s) not sent", text)
	}
}

func (b *Bot) EditMessageText(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.Api.Send(edit); err != nil {
		logutils.Log.WithError(err).Debug("Failed to edit message")
	}
}

func (b *Bot) DeleteMessage(chatID int64, messageID int) {
	if _, err := b.Api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		logutils.Log.WithError(err).Debug("Failed to delete message")
	}
}

func (b *Bot) AnswerCallback(callbackID, text string) {
	if _, err := b.Api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		logutils.Log.WithError(err).Debug("Failed to answer callback query")
	}
}

func (b *Bot) SendVideoFile(chatID int64, path, caption string) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path))
	video.Caption = caption
	if _, err := b.Api.Send(video); err != nil {
		return fmt.Errorf("send video: %w", err)
	}
	return nil
}

func (b *Bot) SendDocumentFile(chatID int64, path, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	if _, err := b.Api.Send(doc); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}
