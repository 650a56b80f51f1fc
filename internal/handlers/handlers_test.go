package handlers_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/catalog"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/config"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/delivery"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/fetch"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/handlers"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/lang"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/models"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/session"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/storage"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/testutils"
)

type fakeEnumerator struct {
	options []models.EncodingOption
	calls   int
}

func (e *fakeEnumerator) Enumerate(_ context.Context, _ string) []models.EncodingOption {
	e.calls++
	return e.options
}

type fixture struct {
	cfg          *config.Config
	gateway      *testutils.FakeGateway
	handler      *handlers.Handler
	sessions     *session.Store
	resolutions  *catalog.ResolutionCache
	enumerator   *fakeEnumerator
	materializer *testutils.FakeMaterializer
	uploader     *testutils.FakeUploader
	dir          string
}

func testCatalogDoc() map[string]map[string]map[string]map[string]string {
	return map[string]map[string]map[string]map[string]string{
		"1 курс": {
			"осень 2023": {
				"Математика(Иванов Иван)": {
					"Лекция 1": "https://example.com/v1",
				},
			},
		},
	}
}

func newFixture(t *testing.T, mutate func(*fixture)) *fixture {
	t.Helper()
	lang.SetupLang("en")

	dir := t.TempDir()
	f := &fixture{
		cfg:     testutils.TestConfig(dir),
		gateway: testutils.NewFakeGateway(),
		enumerator: &fakeEnumerator{options: []models.EncodingOption{
			{Resolution: 1080, SizeMB: 210.5, VideoFormatID: "137", AudioFormatID: "140"},
			{Resolution: 720, SizeMB: 120.2, VideoFormatID: "136", AudioFormatID: "140"},
			{Resolution: 480, SizeMB: 60.1},
		}},
		materializer: &testutils.FakeMaterializer{OutputSize: 45_000_000},
		dir:          dir,
	}
	if mutate != nil {
		mutate(f)
	}

	cat, err := catalog.Load(testutils.WriteCatalogFile(t, dir, testCatalogDoc()))
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	f.resolutions, err = catalog.LoadResolutionCache(f.cfg.ResolutionCachePath)
	if err != nil {
		t.Fatalf("LoadResolutionCache: %v", err)
	}
	f.sessions = session.NewStore()

	engine := fetch.NewEngineWithMaterializer(f.cfg.DownloadSettings, dir, f.materializer)
	var uploader storage.Uploader
	if f.uploader != nil {
		uploader = f.uploader
	}
	router := delivery.NewRouter(f.gateway, uploader, f.cfg.DeliverySettings)

	f.handler = handlers.New(f.gateway, f.cfg, cat, f.resolutions, f.sessions, f.enumerator, engine, router)
	return f
}

func textUpdate(userID, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: userID, UserName: "student"},
	}}
}

func commandUpdate(userID, chatID int64, command string) tgbotapi.Update {
	update := textUpdate(userID, chatID, "/"+command)
	update.Message.Entities = []tgbotapi.MessageEntity{
		{Type: "bot_command", Offset: 0, Length: len(command) + 1},
	}
	return update
}

func callbackUpdate(userID, chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		Data: data,
		From: &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{
			MessageID: 99,
			Chat:      &tgbotapi.Chat{ID: chatID},
		},
	}}
}

func lastMessage(t *testing.T, g *testutils.FakeGateway) testutils.SentMessage {
	t.Helper()
	if len(g.Messages) == 0 {
		t.Fatal("no messages sent")
	}
	return g.Messages[len(g.Messages)-1]
}

func residualDownloads(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "fetch-*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}

func TestStartCommand(t *testing.T) {
	f := newFixture(t, nil)
	f.handler.HandleUpdate(context.Background(), commandUpdate(1, 10, "start"))

	msg := lastMessage(t, f.gateway)
	if msg.Text != lang.GetMessage(lang.WelcomeMsgID) {
		t.Errorf("unexpected welcome text %q", msg.Text)
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t, nil)
	f.handler.HandleUpdate(context.Background(), commandUpdate(1, 10, "frobnicate"))

	if len(f.gateway.Errors) != 1 {
		t.Fatalf("expected one error message, got %d", len(f.gateway.Errors))
	}
	if f.gateway.Errors[0].Text != lang.GetMessage(lang.UnknownCommandMsgID) {
		t.Errorf("unexpected text %q", f.gateway.Errors[0].Text)
	}
}

func TestSelectionWalk(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, commandUpdate(1, 10, "lecture"))
	if msg := lastMessage(t, f.gateway); msg.Text != lang.GetMessage(lang.ChooseCourseMsgID) {
		t.Errorf("course prompt: %q", msg.Text)
	}

	f.handler.HandleUpdate(ctx, textUpdate(1, 10, "1 курс"))
	if msg := lastMessage(t, f.gateway); !strings.Contains(msg.Text, "1 курс") {
		t.Errorf("term prompt must echo the course: %q", msg.Text)
	}

	f.handler.HandleUpdate(ctx, textUpdate(1, 10, "осень 2023"))
	f.handler.HandleUpdate(ctx, textUpdate(1, 10, "Математика(Иванов Иван)"))
	if msg := lastMessage(t, f.gateway); !strings.Contains(msg.Text, "Математика") {
		t.Errorf("topic prompt: %q", msg.Text)
	}

	f.handler.HandleUpdate(ctx, textUpdate(1, 10, "Лекция 1"))
	msg := lastMessage(t, f.gateway)
	if msg.Text != lang.GetMessage(lang.TopicOfferMsgID, "Лекция 1") {
		t.Errorf("offer text: %q", msg.Text)
	}
	if _, ok := msg.Markup.(tgbotapi.InlineKeyboardMarkup); !ok {
		t.Errorf("resolution offer must carry an inline keyboard, got %T", msg.Markup)
	}
	if f.enumerator.calls != 1 {
		t.Errorf("enumerator calls = %d, want 1", f.enumerator.calls)
	}

	if _, ok := f.sessions.Take(1); !ok {
		t.Error("topic pick must record a pending selection")
	}
}

func TestTopicUsesCachedResolutions(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, textUpdate(1, 10, "Лекция 1"))
	f.handler.HandleUpdate(ctx, textUpdate(1, 10, "Лекция 1"))

	if f.enumerator.calls != 1 {
		t.Errorf("second pick must hit the resolution cache, enumerator calls = %d", f.enumerator.calls)
	}
}

func TestTopicWithNoEncodings(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		f.enumerator.options = nil
	})
	f.handler.HandleUpdate(context.Background(), textUpdate(1, 10, "Лекция 1"))

	if len(f.gateway.Errors) != 1 || f.gateway.Errors[0].Text != lang.GetMessage(lang.NoEncodingsMsgID) {
		t.Errorf("expected a no-encodings notice, got %+v", f.gateway.Errors)
	}
	if _, ok := f.sessions.Take(1); ok {
		t.Error("no selection must be recorded when nothing is offerable")
	}
}

func TestUnrecognizedTextIgnoredByDefault(t *testing.T) {
	f := newFixture(t, nil)
	f.handler.HandleUpdate(context.Background(), textUpdate(1, 10, "ничего похожего"))

	if len(f.gateway.Messages)+len(f.gateway.Errors) != 0 {
		t.Error("unrecognized text must be silently ignored by default")
	}
}

func TestUnrecognizedTextStrictMode(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		f.cfg.StrictSelection = true
	})
	f.handler.HandleUpdate(context.Background(), textUpdate(1, 10, "ничего похожего"))

	if len(f.gateway.Errors) != 1 || f.gateway.Errors[0].Text != lang.GetMessage(lang.UseKeyboardMsgID) {
		t.Errorf("expected a use-keyboard notice, got %+v", f.gateway.Errors)
	}
}

func TestDownloadHappyPath(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, textUpdate(1, 10, "Лекция 1"))
	f.handler.HandleUpdate(ctx, callbackUpdate(1, 10, "dl_720"))

	// 45MB fits the inline tier.
	if len(f.gateway.Videos) != 1 {
		t.Fatalf("expected one video send, got %+v", f.gateway.Videos)
	}
	wantCaption := lang.GetMessage(lang.VideoCaptionMsgID, "Лекция 1", 720)
	if f.gateway.Videos[0].Caption != wantCaption {
		t.Errorf("caption = %q, want %q", f.gateway.Videos[0].Caption, wantCaption)
	}

	if len(f.gateway.Deleted) != 1 {
		t.Errorf("progress message must be deleted after a successful send, deleted = %v", f.gateway.Deleted)
	}
	if len(f.materializer.Selectors) != 1 || !strings.Contains(f.materializer.Selectors[0], "height<=720") {
		t.Errorf("selector = %v", f.materializer.Selectors)
	}
	// The enumerated stream ids lead the selector; the height cap is the
	// fallback.
	if !strings.HasPrefix(f.materializer.Selectors[0], "136+140/") {
		t.Errorf("selector must request the cached streams first: %q", f.materializer.Selectors[0])
	}
	if files := residualDownloads(t, f.dir); len(files) != 0 {
		t.Errorf("temporary download must be gone after delivery, found %v", files)
	}

	// The selection survives so another resolution can be picked.
	f.handler.HandleUpdate(ctx, callbackUpdate(1, 10, "dl_480"))
	if len(f.gateway.Videos) != 2 {
		t.Errorf("second pick should work without reselecting, videos = %d", len(f.gateway.Videos))
	}
}

func TestDownloadProgressEditsStatusMessage(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		f.materializer.Progress = []fetch.Progress{
			{Downloaded: 10 << 20, Total: 100 << 20, Speed: 2 << 20, ETA: 45},
		}
	})
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, textUpdate(1, 10, "Лекция 1"))
	f.handler.HandleUpdate(ctx, callbackUpdate(1, 10, "dl_720"))

	var progressSeen bool
	for _, e := range f.gateway.Edits {
		if strings.Contains(e.Text, "10.0%") {
			progressSeen = true
		}
	}
	if !progressSeen {
		t.Errorf("expected a progress edit, edits: %+v", f.gateway.Edits)
	}
}

func TestSessionExpired(t *testing.T) {
	f := newFixture(t, nil)
	f.handler.HandleUpdate(context.Background(), callbackUpdate(1, 10, "dl_720"))

	if len(f.gateway.Callbacks) != 1 {
		t.Fatalf("expected exactly one callback answer, got %d", len(f.gateway.Callbacks))
	}
	if f.gateway.Callbacks[0].Text != lang.GetMessage(lang.SessionExpiredMsgID) {
		t.Errorf("answer = %q", f.gateway.Callbacks[0].Text)
	}
	if f.materializer.Calls != 0 {
		t.Error("no download may start without a pending selection")
	}
	if len(f.gateway.Messages) != 0 {
		t.Errorf("no chat message expected, got %+v", f.gateway.Messages)
	}
}

func TestStaleCallbackWithoutMessage(t *testing.T) {
	f := newFixture(t, nil)

	// Telegram drops the originating message from callbacks older than 48h.
	update := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-stale",
		Data: "dl_720",
		From: &tgbotapi.User{ID: 1},
	}}
	f.handler.HandleUpdate(context.Background(), update)

	if len(f.gateway.Callbacks) != 1 {
		t.Fatalf("expected exactly one callback answer, got %d", len(f.gateway.Callbacks))
	}
	if f.gateway.Callbacks[0].Text != lang.GetMessage(lang.SessionExpiredMsgID) {
		t.Errorf("answer = %q", f.gateway.Callbacks[0].Text)
	}
	if f.materializer.Calls != 0 {
		t.Error("a stale callback must not start a download")
	}
}

func TestMalformedCallbackData(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, textUpdate(1, 10, "Лекция 1"))
	f.handler.HandleUpdate(ctx, callbackUpdate(1, 10, "dl_abc"))

	if f.materializer.Calls != 0 {
		t.Error("malformed data must not start a download")
	}
	last := f.gateway.Callbacks[len(f.gateway.Callbacks)-1]
	if last.Text != lang.GetMessage(lang.InternalErrorMsgID) {
		t.Errorf("answer = %q", last.Text)
	}
}

func TestDownloadFailureEditsStatus(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		f.materializer.Err = errors.New("yt-dlp: Requested format is not available")
	})
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, textUpdate(1, 10, "Лекция 1"))
	f.handler.HandleUpdate(ctx, callbackUpdate(1, 10, "dl_720"))

	edit, ok := f.gateway.LastEdit()
	if !ok {
		t.Fatal("expected a status edit")
	}
	want := lang.GetMessage(lang.DownloadFailedMsgID, lang.GetMessage(lang.NoMatchingFormatMsgID))
	if edit.Text != want {
		t.Errorf("edit = %q, want %q", edit.Text, want)
	}
	if len(f.gateway.Videos)+len(f.gateway.Documents) != 0 {
		t.Error("nothing may be sent after a failed fetch")
	}
}

func TestOversizedDownloadRejected(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		// Above the document tier but under the fetch size limit.
		f.materializer.OutputSize = 2100 << 20
		f.cfg.DownloadSettings.SizeLimitMB = 4000
	})
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, textUpdate(1, 10, "Лекция 1"))
	f.handler.HandleUpdate(ctx, callbackUpdate(1, 10, "dl_1080"))

	edit, ok := f.gateway.LastEdit()
	if !ok {
		t.Fatal("expected a status edit")
	}
	want := lang.GetMessage(lang.TooLargeMsgID, f.cfg.DeliverySettings.MaxDocumentMB)
	if edit.Text != want {
		t.Errorf("edit = %q, want %q", edit.Text, want)
	}
	if files := residualDownloads(t, f.dir); len(files) != 0 {
		t.Errorf("rejected file must be deleted, found %v", files)
	}
}

func TestOversizedDownloadUploadedToCloud(t *testing.T) {
	f := newFixture(t, func(f *fixture) {
		f.materializer.OutputSize = 2100 << 20
		f.cfg.DownloadSettings.SizeLimitMB = 4000
		f.cfg.DeliverySettings.OverflowPolicy = config.OverflowUpload
		f.uploader = &testutils.FakeUploader{URL: "https://storage.yandexcloud.net/lectures/v1-1080.mp4"}
	})
	ctx := context.Background()

	f.handler.HandleUpdate(ctx, textUpdate(1, 10, "Лекция 1"))
	f.handler.HandleUpdate(ctx, callbackUpdate(1, 10, "dl_1080"))

	edit, ok := f.gateway.LastEdit()
	if !ok {
		t.Fatal("expected a status edit")
	}
	if !strings.Contains(edit.Text, f.uploader.URL) {
		t.Errorf("edit must carry the cloud link: %q", edit.Text)
	}
	if f.uploader.Calls != 1 {
		t.Errorf("upload calls = %d", f.uploader.Calls)
	}

	// The URL is persisted; the next pick serves the link without a fetch.
	materializerCalls := f.materializer.Calls
	f.handler.HandleUpdate(ctx, callbackUpdate(1, 10, "dl_1080"))
	if f.materializer.Calls != materializerCalls {
		t.Error("cached cloud URL must short-circuit the fetch")
	}
	msg := lastMessage(t, f.gateway)
	if !strings.Contains(msg.Text, f.uploader.URL) {
		t.Errorf("expected the cached link, got %q", msg.Text)
	}
	if f.uploader.Calls != 1 {
		t.Errorf("no second upload expected, calls = %d", f.uploader.Calls)
	}
}

func TestUnknownCallbackAnswered(t *testing.T) {
	f := newFixture(t, nil)
	f.handler.HandleUpdate(context.Background(), callbackUpdate(1, 10, "mystery"))

	if len(f.gateway.Callbacks) != 1 {
		t.Fatalf("expected one answer, got %d", len(f.gateway.Callbacks))
	}
}
