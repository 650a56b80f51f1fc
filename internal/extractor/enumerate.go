package extractor

import (
	"context"
	"sort"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/config"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/models"
)

const bytesPerMB = 1024 * 1024

// Enumerator turns raw stream metadata into the ordered list of encoding
// options offered to the user.
type Enumerator struct {
	prober Prober
	policy config.EnumerationConfig
}

func NewEnumerator(prober Prober, policy config.EnumerationConfig) *Enumerator {
	return &Enumerator{prober: prober, policy: policy}
}

// Enumerate probes the URL once and returns the offerable renditions, sorted
// by resolution descending with no duplicate resolutions. A failed probe or
// a video with no usable formats yields an empty slice: "nothing offerable"
// is a valid result the caller presents as such, not a fault.
func (e *Enumerator) Enumerate(ctx context.Context, url string) []models.EncodingOption {
	formats, err := e.prober.Probe(ctx, url)
	if err != nil {
		logutils.Log.WithError(err).WithField("url", url).Warn("Probe failed, nothing to offer")
		return nil
	}
	if len(formats) == 0 {
		return nil
	}

	// Best audio stream is chosen once, independently of the video height.
	audio, hasAudio := bestAudio(formats)

	var options []models.EncodingOption
	for _, height := range e.targetHeights(formats) {
		video, ok := bestVideoAt(formats, height)
		if !ok {
			continue
		}

		opt := models.EncodingOption{
			Resolution:    height,
			VideoFormatID: video.FormatID,
			Ext:           video.Ext,
		}
		size := video.Filesize
		if hasAudio && !video.HasAudio() {
			opt.AudioFormatID = audio.FormatID
			size += audio.Filesize
		}
		if size > 0 {
			opt.SizeMB = size / bytesPerMB
		}
		options = append(options, opt)
	}

	sort.Slice(options, func(i, j int) bool {
		return options[i].Resolution > options[j].Resolution
	})
	return options
}

// targetHeights returns the candidate resolutions under the configured
// policy: the fixed ladder when one is set, otherwise every distinct height
// at or above the floor. Either way each height appears once, so a repeated
// ladder entry cannot produce duplicate options.
func (e *Enumerator) targetHeights(formats []Format) []int {
	seen := make(map[int]bool)
	var heights []int

	if len(e.policy.TargetLadder) > 0 {
		for _, h := range e.policy.TargetLadder {
			if !seen[h] {
				seen[h] = true
				heights = append(heights, h)
			}
		}
		return heights
	}

	for _, f := range formats {
		if f.HasVideo() && f.Height >= e.policy.MinHeight && !seen[f.Height] {
			seen[f.Height] = true
			heights = append(heights, f.Height)
		}
	}
	sort.Ints(heights)
	return heights
}

// bestVideoAt picks the video stream at exactly the given height, preferring
// the one with the largest reported size (the host's highest bitrate).
func bestVideoAt(formats []Format, height int) (Format, bool) {
	var best Format
	found := false
	for _, f := range formats {
		if !f.HasVideo() || f.Height != height {
			continue
		}
		if !found || f.Filesize > best.Filesize {
			best = f
			found = true
		}
	}
	return best, found
}

// bestAudio picks the audio-only stream with the largest reported size,
// falling back to any stream carrying audio.
func bestAudio(formats []Format) (Format, bool) {
	var best Format
	found := false
	for _, f := range formats {
		if !f.HasAudio() || f.HasVideo() {
			continue
		}
		if !found || f.Filesize > best.Filesize {
			best = f
			found = true
		}
	}
	if found {
		return best, true
	}
	for _, f := range formats {
		if f.HasAudio() {
			return f, true
		}
	}
	return Format{}, false
}
