package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
)

const probeTimeout = 30 * time.Second

// Format is one stream reported by the extraction service. Height is 0 for
// audio-only streams; Filesize is 0 when the host does not report it.
type Format struct {
	FormatID string  `json:"format_id"`
	Height   int     `json:"height"`
	Vcodec   string  `json:"vcodec"`
	Acodec   string  `json:"acodec"`
	Filesize float64 `json:"filesize"`
	Ext      string  `json:"ext"`
}

// HasVideo reports whether the stream carries a video track.
func (f Format) HasVideo() bool { return f.Vcodec != "" && f.Vcodec != "none" }

// HasAudio reports whether the stream carries an audio track.
func (f Format) HasAudio() bool { return f.Acodec != "" && f.Acodec != "none" }

// Prober queries the extraction service for all stream metadata of a URL.
type Prober interface {
	Probe(ctx context.Context, url string) ([]Format, error)
}

// YTDLPProber shells out to yt-dlp for stream metadata, the same way the
// downloader side does for the actual fetch.
type YTDLPProber struct {
	BinPath string
}

func NewYTDLPProber(binPath string) *YTDLPProber {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &YTDLPProber{BinPath: binPath}
}

func (p *YTDLPProber) Probe(ctx context.Context, url string) ([]Format, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	args := []string{"-J", "--no-download", "--no-warnings", "--no-playlist", url}
	cmd := exec.CommandContext(ctx, p.BinPath, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp -J %s: %w", url, err)
	}

	var info struct {
		Formats []Format `json:"formats"`
	}
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, fmt.Errorf("parse yt-dlp json for %s: %w", url, err)
	}

	logutils.Log.WithField("url", url).Debugf("Probe returned %d formats", len(info.Formats))
	return info.Formats, nil
}
