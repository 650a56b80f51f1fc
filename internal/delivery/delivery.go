package delivery

import (
	"context"
	"os"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/config"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/models"
	"github.com/lectory-fpmi/telegram-lecture-bot/internal/storage"
)

const bytesPerMB = 1024 * 1024

// OutcomeKind enumerates how a delivery attempt ended.
type OutcomeKind int

const (
	Sent OutcomeKind = iota
	SentAsDocument
	RejectedTooLarge
	UploadedToCloud
	Failed
)

func (k OutcomeKind) String() string {
	switch k {
	case Sent:
		return "sent"
	case SentAsDocument:
		return "sent_as_document"
	case RejectedTooLarge:
		return "rejected_too_large"
	case UploadedToCloud:
		return "uploaded_to_cloud"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one delivery attempt. URL is set for
// UploadedToCloud; Reason carries the cause for Failed.
type Outcome struct {
	Kind   OutcomeKind
	URL    string
	Reason string
}

// Tier is the size bucket a file falls into.
type Tier int

const (
	TierInline Tier = iota
	TierDocument
	TierOverflow
)

// Gateway is the slice of the messaging transport the router needs.
type Gateway interface {
	SendVideoFile(chatID int64, path, caption string) error
	SendDocumentFile(chatID int64, path, caption string) error
}

// Options carries the per-rendition upload cache hooks. CachedURL short-
// circuits the overflow upload; RememberURL persists a fresh upload's URL
// back onto the originating encoding option.
type Options struct {
	CachedURL   string
	RememberURL func(url string) error
}

// Router picks a transport tier by file size and executes it. Whatever
// happens, the local file is gone by the time Deliver returns.
type Router struct {
	gateway  Gateway
	uploader storage.Uploader
	policy   config.DeliveryConfig
}

func NewRouter(gateway Gateway, uploader storage.Uploader, policy config.DeliveryConfig) *Router {
	return &Router{
		gateway:  gateway,
		uploader: uploader,
		policy:   policy,
	}
}

// TierFor is the pure size-to-tier policy.
func (r *Router) TierFor(sizeBytes int64) Tier {
	switch {
	case sizeBytes <= r.policy.MaxInlineMB*bytesPerMB:
		return TierInline
	case sizeBytes <= r.policy.MaxDocumentMB*bytesPerMB:
		return TierDocument
	default:
		return TierOverflow
	}
}

func (r *Router) Deliver(ctx context.Context, file models.FetchResult, chatID int64, caption string, opts Options) Outcome {
	defer r.discard(file.Path)

	switch r.TierFor(file.Size) {
	case TierInline:
		if err := r.gateway.SendVideoFile(chatID, file.Path, caption); err != nil {
			logutils.Log.WithError(err).Error("Inline video send failed")
			return Outcome{Kind: Failed, Reason: err.Error()}
		}
		return Outcome{Kind: Sent}

	case TierDocument:
		if err := r.gateway.SendDocumentFile(chatID, file.Path, caption); err != nil {
			logutils.Log.WithError(err).Error("Document send failed")
			return Outcome{Kind: Failed, Reason: err.Error()}
		}
		return Outcome{Kind: SentAsDocument}

	default:
		return r.overflow(ctx, file, opts)
	}
}

// overflow handles files above the document tier: reject, or upload to
// object storage and hand back a link. An already-uploaded rendition is a
// cache hit and does not touch the object store again.
func (r *Router) overflow(ctx context.Context, file models.FetchResult, opts Options) Outcome {
	if r.policy.OverflowPolicy != config.OverflowUpload || r.uploader == nil {
		return Outcome{Kind: RejectedTooLarge}
	}

	if opts.CachedURL != "" {
		logutils.Log.WithField("url", opts.CachedURL).Info("Rendition already in object storage, reusing link")
		return Outcome{Kind: UploadedToCloud, URL: opts.CachedURL}
	}

	url, err := r.uploader.Upload(ctx, file.Path)
	if err != nil {
		logutils.Log.WithError(err).Error("Object storage upload failed")
		return Outcome{Kind: Failed, Reason: err.Error()}
	}

	if opts.RememberURL != nil {
		// Best effort: a lost write-back only costs a redundant upload later.
		if err := opts.RememberURL(url); err != nil {
			logutils.Log.WithError(err).Warn("Failed to persist uploaded URL")
		}
	}
	return Outcome{Kind: UploadedToCloud, URL: url}
}

func (r *Router) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logutils.Log.WithError(err).Warnf("Failed to remove delivered file %s", path)
	}
}
