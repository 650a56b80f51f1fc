package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/config"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/models"
)

// Engine materializes a chosen rendition to a uniquely-named temporary file,
// enforcing the size limit as a hard post-condition. Failures never leave a
// partial artifact behind; the produced file is owned by the caller, who
// must remove it once delivery concludes.
type Engine struct {
	downloadDir  string
	settings     config.DownloadConfig
	materializer Materializer
}

func NewEngine(settings config.DownloadConfig, downloadDir string) *Engine {
	return &Engine{
		downloadDir:  downloadDir,
		settings:     settings,
		materializer: newYTDLPMaterializer(settings.YtdlpPath, settings.SocketTimeout),
	}
}

// NewEngineWithMaterializer wires a custom downloader; used by tests.
func NewEngineWithMaterializer(settings config.DownloadConfig, downloadDir string, m Materializer) *Engine {
	return &Engine{
		downloadDir:  downloadDir,
		settings:     settings,
		materializer: m,
	}
}

// Selection names the rendition to materialize. When the stream ids from a
// prior enumeration are known the exact streams are requested; the
// height-capped expression stays as a fallback for hosts that have rotated
// their format ids since the enumeration was cached.
type Selection struct {
	Resolution    int
	VideoFormatID string
	AudioFormatID string
}

func (s Selection) selector() string {
	fallback := fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", s.Resolution, s.Resolution)
	if s.VideoFormatID == "" {
		return fallback
	}
	exact := s.VideoFormatID
	if s.AudioFormatID != "" {
		exact += "+" + s.AudioFormatID
	}
	return exact + "/" + fallback
}

// Fetch downloads the selected rendition into a fresh temporary location.
// Progress snapshots go through sink, throttled to one per configured
// interval. On any failure, and when the finished file exceeds
// sizeLimitBytes, the artifact is deleted before the error is returned so no
// file ever outlives a failed attempt.
func (e *Engine) Fetch(
	ctx context.Context,
	url string,
	sel Selection,
	sizeLimitBytes int64,
	sink Sink,
) (*models.FetchResult, error) {
	if err := os.MkdirAll(e.downloadDir, 0o755); err != nil {
		return nil, newError(FilesystemError, err)
	}

	// Unique prefix per call: two concurrent fetches, even for the same
	// arguments, never touch the same paths.
	prefix := "fetch-" + uuid.NewString()
	outputTemplate := filepath.Join(e.downloadDir, prefix+".%(ext)s")
	cleanup := func() { e.removeArtifacts(prefix) }

	if e.settings.DownloadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.settings.DownloadTimeout)
		defer cancel()
	}

	selector := sel.selector()

	throttle := NewThrottle(e.settings.ProgressUpdateInterval)
	progressFn := func(p Progress) { throttle.Forward(sink, p) }

	logutils.Log.WithFields(map[string]any{
		"url":        url,
		"resolution": sel.Resolution,
	}).Info("Starting download")

	if err := e.materializer.Materialize(ctx, url, selector, outputTemplate, progressFn); err != nil {
		cleanup()
		return nil, classify(ctx, err)
	}

	path, err := e.findArtifact(prefix)
	if err != nil {
		cleanup()
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		cleanup()
		return nil, newError(FilesystemError, err)
	}

	if info.Size() > sizeLimitBytes {
		// The limit is a post-condition, not a download hint: the artifact
		// goes away before anyone is told about the failure.
		cleanup()
		return nil, newError(SizeLimitExceeded,
			fmt.Errorf("downloaded %d bytes, limit %d", info.Size(), sizeLimitBytes))
	}

	return &models.FetchResult{Path: path, Size: info.Size()}, nil
}

// findArtifact locates the file yt-dlp produced for this call's prefix. The
// extension is whatever the merge step decided, so match by prefix.
func (e *Engine) findArtifact(prefix string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(e.downloadDir, prefix+".*"))
	if err != nil {
		return "", newError(FilesystemError, err)
	}
	if len(matches) == 0 {
		return "", newError(ExtractionFailed, fmt.Errorf("downloader produced no output"))
	}
	// Merged output plus leftovers (e.g. .part): take the largest file.
	best := matches[0]
	var bestSize int64 = -1
	for _, m := range matches {
		if info, statErr := os.Stat(m); statErr == nil && info.Size() > bestSize {
			best = m
			bestSize = info.Size()
		}
	}
	return best, nil
}

// removeArtifacts deletes everything this call wrote, including partial
// downloads and un-merged intermediate streams.
func (e *Engine) removeArtifacts(prefix string) {
	matches, err := filepath.Glob(filepath.Join(e.downloadDir, prefix+"*"))
	if err != nil {
		logutils.Log.WithError(err).Warn("Failed to list download artifacts for cleanup")
		return
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			logutils.Log.WithError(err).Warnf("Failed to remove artifact %s", m)
		}
	}
}
