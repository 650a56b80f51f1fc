package fetch

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
)

// Materializer downloads the rendition selected by a format selector into
// the output template's location, streaming raw progress as it goes. The
// yt-dlp implementation below is the production one; tests substitute fakes.
type Materializer interface {
	Materialize(ctx context.Context, url, selector, outputTemplate string, progress func(Progress)) error
}

type ytdlpMaterializer struct {
	binPath       string
	socketTimeout time.Duration
}

func newYTDLPMaterializer(binPath string, socketTimeout time.Duration) *ytdlpMaterializer {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &ytdlpMaterializer{binPath: binPath, socketTimeout: socketTimeout}
}

var (
	// [download]  45.2% of  105.50MiB at    2.50MiB/s ETA 00:42
	progressRe = regexp.MustCompile(`\[download\]\s+([\d.]+)%\s+of\s+~?\s*([\d.]+\w+)(?:\s+at\s+([\d.]+\w+)/s)?(?:\s+ETA\s+([\d:]+))?`)
	ytdlpErrRe = regexp.MustCompile(`(?i)ERROR[:\s]+(.+?)(?:\n|$)`)
)

func (m *ytdlpMaterializer) Materialize(
	ctx context.Context,
	url, selector, outputTemplate string,
	progress func(Progress),
) error {
	args := []string{
		"--newline",
		"--no-warnings",
		"--no-playlist",
		"--socket-timeout", strconv.Itoa(int(m.socketTimeout.Seconds())),
		"-f", selector,
		"--merge-output-format", "mp4",
		"-o", outputTemplate,
		url,
	}

	cmd := exec.CommandContext(ctx, m.binPath, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", m.binPath, err)
	}

	stderrOut := make(chan string, 1)
	go func() {
		defer close(stderrOut)
		var sb strings.Builder
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			sb.WriteString(scanner.Text() + "\n")
		}
		stderrOut <- sb.String()
	}()

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if p, ok := parseProgressLine(scanner.Text()); ok && progress != nil {
			progress(p)
		}
	}

	errOutput := <-stderrOut
	if err := cmd.Wait(); err != nil {
		if msg := extractYtdlpError(errOutput); msg != "" {
			return fmt.Errorf("%s: %s", m.binPath, msg)
		}
		return fmt.Errorf("%s: %w", m.binPath, err)
	}
	logutils.Log.WithField("url", url).Debug("yt-dlp finished")
	return nil
}

// parseProgressLine extracts a progress snapshot from one yt-dlp stdout line.
func parseProgressLine(line string) (Progress, bool) {
	match := progressRe.FindStringSubmatch(line)
	if match == nil {
		return Progress{}, false
	}

	percent, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return Progress{}, false
	}
	total := parseByteSize(match[2])

	p := Progress{
		Total:      int64(total),
		Downloaded: int64(total * percent / 100),
	}
	if match[3] != "" {
		p.Speed = parseByteSize(match[3])
	}
	if match[4] != "" {
		p.ETA = parseClock(match[4])
	}
	return p, true
}

// parseByteSize converts yt-dlp's human sizes ("105.50MiB") to bytes.
// Longer unit suffixes must be tried first so "MiB" is not consumed as "B".
func parseByteSize(s string) float64 {
	units := []struct {
		suffix string
		mult   float64
	}{
		{"GiB", 1 << 30},
		{"MiB", 1 << 20},
		{"KiB", 1 << 10},
		{"GB", 1000 * 1000 * 1000},
		{"MB", 1000 * 1000},
		{"KB", 1000},
		{"B", 1},
	}
	for _, u := range units {
		if strings.HasSuffix(s, u.suffix) {
			value, err := strconv.ParseFloat(strings.TrimSuffix(s, u.suffix), 64)
			if err != nil {
				return 0
			}
			return value * u.mult
		}
	}
	return 0
}

// parseClock converts "MM:SS" or "HH:MM:SS" to seconds.
func parseClock(s string) int {
	parts := strings.Split(s, ":")
	seconds := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0
		}
		seconds = seconds*60 + n
	}
	return seconds
}

func extractYtdlpError(stderr string) string {
	if m := ytdlpErrRe.FindStringSubmatch(stderr); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}
