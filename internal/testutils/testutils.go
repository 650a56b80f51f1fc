package testutils

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/config"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/fetch"
)

// TestConfig creates a configuration suitable for testing.
func TestConfig(tempDir string) *config.Config {
	return &config.Config{
		BotToken:            "test-bot-token",
		Lang:                "en",
		LogLevel:            "debug",
		CatalogPath:         filepath.Join(tempDir, "playlists_data.json"),
		ResolutionCachePath: filepath.Join(tempDir, "video_resolutions.json"),
		DownloadDir:         tempDir,

		DownloadSettings: config.DownloadConfig{
			YtdlpPath:              "yt-dlp",
			SizeLimitMB:            1900,
			DownloadTimeout:        30 * time.Second,
			SocketTimeout:          5 * time.Second,
			ProgressUpdateInterval: time.Millisecond,
		},
		EnumerationSettings: config.EnumerationConfig{
			TargetLadder: []int{144, 360, 480, 720, 1080},
		},
		DeliverySettings: config.DeliveryConfig{
			MaxInlineMB:    50,
			MaxDocumentMB:  2000,
			OverflowPolicy: config.OverflowReject,
		},
	}
}

// WriteCatalogFile writes a catalog document for tests and returns its path.
func WriteCatalogFile(t *testing.T, dir string, doc map[string]map[string]map[string]map[string]string) string {
	t.Helper()
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal catalog: %v", err)
	}
	path := filepath.Join(dir, "playlists_data.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

// SentMessage records one SendMessage call on the fake gateway.
type SentMessage struct {
	ChatID int64
	Text   string
	Markup interface{}
}

// FileSend records one video/document send.
type FileSend struct {
	ChatID  int64
	Path    string
	Caption string
}

// Edit records one message edit.
type Edit struct {
	ChatID    int64
	MessageID int
	Text      string
}

// Callback records one answered callback query.
type Callback struct {
	ID   string
	Text string
}

// FakeGateway records every transport call; progress edits arrive from
// download goroutines, so all state is mutex-guarded.
type FakeGateway struct {
	mu sync.Mutex

	Messages  []SentMessage
	Errors    []SentMessage
	Edits     []Edit
	Deleted   []int
	Callbacks []Callback
	Videos    []FileSend
	Documents []FileSend

	VideoErr    error
	DocumentErr error

	nextMessageID int
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{}
}

func (g *FakeGateway) SendMessage(chatID int64, text string, markup interface{}) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextMessageID++
	g.Messages = append(g.Messages, SentMessage{ChatID: chatID, Text: text, Markup: markup})
	return g.nextMessageID, nil
}

func (g *FakeGateway) SendErrorMessage(chatID int64, text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Errors = append(g.Errors, SentMessage{ChatID: chatID, Text: text})
}

func (g *FakeGateway) EditMessageText(chatID int64, messageID int, text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Edits = append(g.Edits, Edit{ChatID: chatID, MessageID: messageID, Text: text})
}

func (g *FakeGateway) DeleteMessage(_ int64, messageID int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Deleted = append(g.Deleted, messageID)
}

func (g *FakeGateway) AnswerCallback(callbackID, text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Callbacks = append(g.Callbacks, Callback{ID: callbackID, Text: text})
}

func (g *FakeGateway) SendVideoFile(chatID int64, path, caption string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.VideoErr != nil {
		return g.VideoErr
	}
	g.Videos = append(g.Videos, FileSend{ChatID: chatID, Path: path, Caption: caption})
	return nil
}

func (g *FakeGateway) SendDocumentFile(chatID int64, path, caption string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.DocumentErr != nil {
		return g.DocumentErr
	}
	g.Documents = append(g.Documents, FileSend{ChatID: chatID, Path: path, Caption: caption})
	return nil
}

// LastEdit returns the most recent edit, if any.
func (g *FakeGateway) LastEdit() (Edit, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.Edits) == 0 {
		return Edit{}, false
	}
	return g.Edits[len(g.Edits)-1], true
}

// FakeMaterializer pretends to be the external downloader: it writes
// OutputSize bytes at the output template's location (with Ext substituted)
// and replays the configured progress snapshots, unless Err is set.
type FakeMaterializer struct {
	mu sync.Mutex

	OutputSize int64
	Ext        string
	Err        error
	Progress   []fetch.Progress
	// PartialOnErr also writes the file before failing, to exercise
	// partial-artifact cleanup.
	PartialOnErr bool

	Calls     int
	Selectors []string
}

func (m *FakeMaterializer) Materialize(_ context.Context, _, selector, outputTemplate string, progress func(fetch.Progress)) error {
	m.mu.Lock()
	m.Calls++
	m.Selectors = append(m.Selectors, selector)
	m.mu.Unlock()

	ext := m.Ext
	if ext == "" {
		ext = "mp4"
	}
	path := strings.Replace(outputTemplate, "%(ext)s", ext, 1)

	if m.Err != nil {
		if m.PartialOnErr {
			writeBytes(path+".part", m.OutputSize)
		}
		return m.Err
	}

	for _, p := range m.Progress {
		progress(p)
	}
	writeBytes(path, m.OutputSize)
	return nil
}

// writeBytes creates a sparse file of the given size so multi-gigabyte
// scenarios stay cheap.
func writeBytes(path string, size int64) {
	f, err := os.Create(path)
	if err != nil {
		return
	}
	_ = f.Truncate(size)
	_ = f.Close()
}

// FakeUploader counts uploads and hands out a fixed URL.
type FakeUploader struct {
	mu    sync.Mutex
	URL   string
	Err   error
	Calls int
}

func (u *FakeUploader) Upload(_ context.Context, _ string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.Calls++
	if u.Err != nil {
		return "", u.Err
	}
	return u.URL, nil
}
