package lang

import (
	"fmt"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
)

type MessageID string

const (
	WelcomeMsgID            MessageID = "welcome"
	ChooseCourseMsgID       MessageID = "choose_course"
	ChooseTermMsgID         MessageID = "choose_term"
	ChooseSubjectMsgID      MessageID = "choose_subject"
	ChooseTopicMsgID        MessageID = "choose_topic"
	TopicOfferMsgID         MessageID = "topic_offer"
	ResolutionLabelMsgID    MessageID = "resolution_label"
	ResolutionNoSizeMsgID   MessageID = "resolution_no_size"
	NoEncodingsMsgID        MessageID = "no_encodings"
	SessionExpiredMsgID     MessageID = "session_expired"
	DownloadStartedMsgID    MessageID = "download_started"
	ProgressInitialMsgID    MessageID = "progress_initial"
	ProgressMsgID           MessageID = "progress"
	UploadingMsgID          MessageID = "uploading"
	VideoCaptionMsgID       MessageID = "video_caption"
	DownloadFailedMsgID     MessageID = "download_failed"
	DeliveryFailedMsgID     MessageID = "delivery_failed"
	TooLargeMsgID           MessageID = "too_large"
	CloudLinkMsgID          MessageID = "cloud_link"
	LectureNotFoundMsgID    MessageID = "lecture_not_found"
	UnknownCommandMsgID     MessageID = "unknown_command"
	UseKeyboardMsgID        MessageID = "use_keyboard"
	SizeLimitExceededMsgID  MessageID = "size_limit_exceeded"
	NetworkTimeoutMsgID     MessageID = "network_timeout"
	NoMatchingFormatMsgID   MessageID = "no_matching_format"
	ExtractionFailedMsgID   MessageID = "extraction_failed"
	InternalErrorMsgID      MessageID = "internal_error"
)

var lang = "en"

func SetupLang(language string) {
	if language != "" {
		lang = language
	}
}

var messages = map[MessageID]map[string]string{
	WelcomeMsgID: {
		"en": "Welcome! The bot is ready to present you relevant lecture.",
		"ru": "Привет! Бот готов подобрать для вас нужную лекцию.",
	},
	ChooseCourseMsgID: {
		"en": "Select a course:",
		"ru": "Выберите курс:",
	},
	ChooseTermMsgID: {
		"en": "Selected: %s\nChoose term:",
		"ru": "Выбрано: %s\nВыберите семестр:",
	},
	ChooseSubjectMsgID: {
		"en": "Selected: %s - %s\nChoose subject:",
		"ru": "Выбрано: %s - %s\nВыберите предмет:",
	},
	ChooseTopicMsgID: {
		"en": "Selected: %s - %s - %s\nChoose topic:",
		"ru": "Выбрано: %s - %s - %s\nВыберите лекцию:",
	},
	TopicOfferMsgID: {
		"en": "📹 %s",
		"ru": "📹 %s",
	},
	ResolutionLabelMsgID: {
		"en": "%dp (%.1f MB)",
		"ru": "%dp (%.1f МБ)",
	},
	ResolutionNoSizeMsgID: {
		"en": "%dp (Size unknown)",
		"ru": "%dp (размер неизвестен)",
	},
	NoEncodingsMsgID: {
		"en": "No downloadable versions were found for this lecture",
		"ru": "Для этой лекции не нашлось доступных версий",
	},
	SessionExpiredMsgID: {
		"en": "Session expired!",
		"ru": "Сессия истекла!",
	},
	DownloadStartedMsgID: {
		"en": "⏳ Downloading video...",
		"ru": "⏳ Загружаю видео...",
	},
	ProgressInitialMsgID: {
		"en": "⌛ Download progress: 0%",
		"ru": "⌛ Прогресс загрузки: 0%",
	},
	ProgressMsgID: {
		"en": "⌛ Download progress: %.1f%%\n📊 %.1fMB / %.1fMB\n⚡ Speed: %.1fMB/s\n⏱ ETA: %ds",
		"ru": "⌛ Прогресс загрузки: %.1f%%\n📊 %.1fМБ / %.1fМБ\n⚡ Скорость: %.1fМБ/с\n⏱ Осталось: %dс",
	},
	UploadingMsgID: {
		"en": "📤 Uploading to Telegram...",
		"ru": "📤 Отправляю в Telegram...",
	},
	VideoCaptionMsgID: {
		"en": "📹 %s (%dp)",
		"ru": "📹 %s (%dp)",
	},
	DownloadFailedMsgID: {
		"en": "❌ Download failed: %s",
		"ru": "❌ Не удалось загрузить видео: %s",
	},
	DeliveryFailedMsgID: {
		"en": "❌ %s",
		"ru": "❌ %s",
	},
	TooLargeMsgID: {
		"en": "❌ The video is too large to send (over %d MB)",
		"ru": "❌ Видео слишком большое для отправки (больше %d МБ)",
	},
	CloudLinkMsgID: {
		"en": "☁️ The video is too large for Telegram, download it here: %s",
		"ru": "☁️ Видео слишком большое для Telegram, скачать можно здесь: %s",
	},
	LectureNotFoundMsgID: {
		"en": "Lecture not found",
		"ru": "Лекция не найдена",
	},
	UnknownCommandMsgID: {
		"en": "Unknown command. Use /lecture to browse the catalog",
		"ru": "Неизвестная команда. Используйте /lecture, чтобы открыть каталог",
	},
	UseKeyboardMsgID: {
		"en": "Please use the keyboard to make a choice",
		"ru": "Пожалуйста, выберите вариант с клавиатуры",
	},
	SizeLimitExceededMsgID: {
		"en": "The video exceeds the size limit, try a lower resolution",
		"ru": "Видео превышает лимит размера, попробуйте меньшее разрешение",
	},
	NetworkTimeoutMsgID: {
		"en": "The download timed out, please try again later",
		"ru": "Время загрузки истекло, попробуйте позже",
	},
	NoMatchingFormatMsgID: {
		"en": "The requested resolution is not available anymore",
		"ru": "Запрошенное разрешение больше недоступно",
	},
	ExtractionFailedMsgID: {
		"en": "Could not reach the video host, please try again later",
		"ru": "Не удалось связаться с видеохостингом, попробуйте позже",
	},
	InternalErrorMsgID: {
		"en": "Something went wrong, please try again",
		"ru": "Что-то пошло не так, попробуйте ещё раз",
	},
}

func GetMessage(id MessageID, args ...any) string {
	if m, ok := messages[id]; ok {
		if msg, ok := m[lang]; ok {
			return fmt.Sprintf(msg, args...)
		}
		if msg, ok := m["en"]; ok {
			return fmt.Sprintf(msg, args...)
		}
	}
	logutils.Log.Warnf("Message not found for ID: %s", id)
	return "Message not found"
}
