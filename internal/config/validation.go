package config

import (
	"fmt"
	"sort"
)

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.CatalogPath == "" {
		return fmt.Errorf("CATALOG_PATH must not be empty")
	}
	if c.DownloadSettings.SizeLimitMB <= 0 {
		return fmt.Errorf("SIZE_LIMIT_MB must be positive, got %d", c.DownloadSettings.SizeLimitMB)
	}
	if c.DownloadSettings.ProgressUpdateInterval <= 0 {
		return fmt.Errorf("PROGRESS_UPDATE_INTERVAL must be positive")
	}
	if c.DeliverySettings.MaxInlineMB <= 0 || c.DeliverySettings.MaxDocumentMB < c.DeliverySettings.MaxInlineMB {
		return fmt.Errorf("delivery tiers must satisfy 0 < MAX_INLINE_MB <= MAX_DOCUMENT_MB")
	}

	switch c.DeliverySettings.OverflowPolicy {
	case OverflowReject:
	case OverflowUpload:
		if !c.CloudSettings.Configured() {
			return fmt.Errorf("OVERFLOW_POLICY=upload requires S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY")
		}
	default:
		return fmt.Errorf("unknown OVERFLOW_POLICY %q (want reject or upload)", c.DeliverySettings.OverflowPolicy)
	}

	ladder := c.EnumerationSettings.TargetLadder
	if len(ladder) == 0 && c.EnumerationSettings.MinHeight <= 0 {
		return fmt.Errorf("either TARGET_LADDER or MIN_HEIGHT must be set")
	}
	for _, h := range ladder {
		if h <= 0 {
			return fmt.Errorf("TARGET_LADDER entries must be positive, got %d", h)
		}
	}
	if len(ladder) > 0 {
		sort.Ints(ladder)
		deduped := ladder[:0]
		for _, h := range ladder {
			if len(deduped) == 0 || deduped[len(deduped)-1] != h {
				deduped = append(deduped, h)
			}
		}
		c.EnumerationSettings.TargetLadder = deduped
	}

	return nil
}
