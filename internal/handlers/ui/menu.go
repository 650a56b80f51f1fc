package ui

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/lang"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/models"
)

// SelectionKeyboard builds a one-time reply keyboard with one label per row,
// the way the original presented courses, terms, subjects and topics.
func SelectionKeyboard(labels []string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(label)))
	}
	return tgbotapi.ReplyKeyboardMarkup{
		Keyboard:        rows,
		ResizeKeyboard:  true,
		OneTimeKeyboard: true,
	}
}

// ResolutionKeyboard builds the inline keyboard of offered renditions. The
// callback payload carries only the resolution; everything else comes from
// the pending selection.
func ResolutionKeyboard(options []models.EncodingOption, callbackPrefix string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, opt := range options {
		label := lang.GetMessage(lang.ResolutionNoSizeMsgID, opt.Resolution)
		if opt.SizeMB > 0 {
			label = lang.GetMessage(lang.ResolutionLabelMsgID, opt.Resolution, opt.SizeMB)
		}
		button := tgbotapi.NewInlineKeyboardButtonData(label, callbackPrefix+strconv.Itoa(opt.Resolution))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
