package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/models"
)

const resolutionCacheFileMode = 0o644

// resolutionDocument mirrors the catalog nesting with an ordered option list
// per topic: course -> term -> subject -> topic -> []EncodingOption.
type resolutionDocument map[string]map[string]map[string]map[string][]models.EncodingOption

// ResolutionCache stores enumerated encoding options per catalog entry and,
// once a rendition has been uploaded to object storage, its public URL.
// Every mutation rewrites the whole document atomically, matching the
// flat-file contract of the catalog documents.
type ResolutionCache struct {
	path string
	mu   sync.Mutex
	doc  resolutionDocument
}

// LoadResolutionCache reads the cache document. A missing file is not an
// error: the cache starts empty and is created on first write.
func LoadResolutionCache(path string) (*ResolutionCache, error) {
	cache := &ResolutionCache{
		path: path,
		doc:  make(resolutionDocument),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logutils.Log.Infof("Resolution cache %s does not exist yet, starting empty", path)
		return cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read resolution cache %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &cache.doc); err != nil {
		return nil, fmt.Errorf("parse resolution cache %s: %w", path, err)
	}
	return cache, nil
}

// Options returns the cached encoding options for one topic.
func (rc *ResolutionCache) Options(path models.SelectionPath) ([]models.EncodingOption, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	opts, ok := rc.doc[path.Course][path.Term][path.Subject][path.Topic]
	if !ok || len(opts) == 0 {
		return nil, false
	}
	out := make([]models.EncodingOption, len(opts))
	copy(out, opts)
	return out, true
}

// SetOptions replaces the cached options for one topic and persists the
// document.
func (rc *ResolutionCache) SetOptions(path models.SelectionPath, opts []models.EncodingOption) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.doc[path.Course] == nil {
		rc.doc[path.Course] = make(map[string]map[string]map[string][]models.EncodingOption)
	}
	if rc.doc[path.Course][path.Term] == nil {
		rc.doc[path.Course][path.Term] = make(map[string]map[string][]models.EncodingOption)
	}
	if rc.doc[path.Course][path.Term][path.Subject] == nil {
		rc.doc[path.Course][path.Term][path.Subject] = make(map[string][]models.EncodingOption)
	}
	rc.doc[path.Course][path.Term][path.Subject][path.Topic] = opts

	return rc.save()
}

// SetRemoteURL attaches the uploaded copy's public URL to the option with the
// given resolution. Writing the same URL twice is a no-op, so repeat uploads
// are wasteful but never incorrect.
func (rc *ResolutionCache) SetRemoteURL(path models.SelectionPath, resolution int, url string) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	opts, ok := rc.doc[path.Course][path.Term][path.Subject][path.Topic]
	if !ok {
		return fmt.Errorf("no cached options for %q: %w", path.Topic, ErrNotFound)
	}
	for i := range opts {
		if opts[i].Resolution == resolution {
			if opts[i].RemoteURL == url {
				return nil
			}
			opts[i].RemoteURL = url
			return rc.save()
		}
	}
	return fmt.Errorf("no cached option at %dp for %q: %w", resolution, path.Topic, ErrNotFound)
}

// RemoteURL returns the stored public URL for one rendition, if any.
func (rc *ResolutionCache) RemoteURL(path models.SelectionPath, resolution int) (string, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	for _, opt := range rc.doc[path.Course][path.Term][path.Subject][path.Topic] {
		if opt.Resolution == resolution && opt.RemoteURL != "" {
			return opt.RemoteURL, true
		}
	}
	return "", false
}

// save rewrites the whole document through a rename so readers of the file
// never observe a partial write. Caller must hold rc.mu.
func (rc *ResolutionCache) save() error {
	raw, err := json.MarshalIndent(rc.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode resolution cache: %w", err)
	}
	if err := renameio.WriteFile(rc.path, raw, resolutionCacheFileMode); err != nil {
		return fmt.Errorf("write resolution cache %s: %w", rc.path, err)
	}
	return nil
}
