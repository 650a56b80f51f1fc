package config

import (
	"reflect"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "test-token")
}

func TestNewConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.Lang != "ru" {
		t.Errorf("Lang = %q, want ru", cfg.Lang)
	}
	if cfg.DownloadSettings.SizeLimitMB != DefaultSizeLimitMB {
		t.Errorf("SizeLimitMB = %d", cfg.DownloadSettings.SizeLimitMB)
	}
	if cfg.DownloadSettings.ProgressUpdateInterval != DefaultProgressUpdateInterval {
		t.Errorf("ProgressUpdateInterval = %v", cfg.DownloadSettings.ProgressUpdateInterval)
	}
	if cfg.DeliverySettings.MaxInlineMB != DefaultMaxInlineMB || cfg.DeliverySettings.MaxDocumentMB != DefaultMaxDocumentMB {
		t.Errorf("tiers = %d/%d", cfg.DeliverySettings.MaxInlineMB, cfg.DeliverySettings.MaxDocumentMB)
	}
	if cfg.DeliverySettings.OverflowPolicy != OverflowReject {
		t.Errorf("OverflowPolicy = %q, want reject", cfg.DeliverySettings.OverflowPolicy)
	}
	if want := []int{144, 360, 480, 720, 1080}; !reflect.DeepEqual(cfg.EnumerationSettings.TargetLadder, want) {
		t.Errorf("TargetLadder = %v", cfg.EnumerationSettings.TargetLadder)
	}
	if cfg.StrictSelection {
		t.Error("StrictSelection must default to false")
	}
}

func TestNewConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LANGUAGE", "en")
	t.Setenv("SIZE_LIMIT_MB", "500")
	t.Setenv("MAX_INLINE_MB", "20")
	t.Setenv("MAX_DOCUMENT_MB", "1000")
	t.Setenv("DOWNLOAD_TIMEOUT", "10m")
	t.Setenv("TARGET_LADDER", "360, 720")
	t.Setenv("STRICT_SELECTION", "true")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	if cfg.Lang != "en" {
		t.Errorf("Lang = %q", cfg.Lang)
	}
	if cfg.DownloadSettings.SizeLimitMB != 500 {
		t.Errorf("SizeLimitMB = %d", cfg.DownloadSettings.SizeLimitMB)
	}
	if cfg.DeliverySettings.MaxInlineMB != 20 || cfg.DeliverySettings.MaxDocumentMB != 1000 {
		t.Errorf("tiers = %d/%d", cfg.DeliverySettings.MaxInlineMB, cfg.DeliverySettings.MaxDocumentMB)
	}
	if cfg.DownloadSettings.DownloadTimeout != 10*time.Minute {
		t.Errorf("DownloadTimeout = %v", cfg.DownloadSettings.DownloadTimeout)
	}
	if want := []int{360, 720}; !reflect.DeepEqual(cfg.EnumerationSettings.TargetLadder, want) {
		t.Errorf("TargetLadder = %v", cfg.EnumerationSettings.TargetLadder)
	}
	if !cfg.StrictSelection {
		t.Error("StrictSelection not applied")
	}
}

func TestNewConfigInvalidValuesFallBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SIZE_LIMIT_MB", "not-a-number")
	t.Setenv("STRICT_SELECTION", "maybe")
	t.Setenv("TARGET_LADDER", "360,abc")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.DownloadSettings.SizeLimitMB != DefaultSizeLimitMB {
		t.Errorf("invalid SIZE_LIMIT_MB must fall back, got %d", cfg.DownloadSettings.SizeLimitMB)
	}
	if cfg.StrictSelection {
		t.Error("invalid STRICT_SELECTION must fall back to false")
	}
	if want := []int{144, 360, 480, 720, 1080}; !reflect.DeepEqual(cfg.EnumerationSettings.TargetLadder, want) {
		t.Errorf("invalid TARGET_LADDER must fall back, got %v", cfg.EnumerationSettings.TargetLadder)
	}
}

func TestNewConfigRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	if _, err := NewConfig(); err == nil {
		t.Error("expected an error without BOT_TOKEN")
	}
}

func TestValidateTierOrdering(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_INLINE_MB", "100")
	t.Setenv("MAX_DOCUMENT_MB", "50")
	if _, err := NewConfig(); err == nil {
		t.Error("expected an error when the inline tier exceeds the document tier")
	}
}

func TestValidateUnknownOverflowPolicy(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OVERFLOW_POLICY", "discard")
	if _, err := NewConfig(); err == nil {
		t.Error("expected an error for an unknown policy")
	}
}

func TestValidateUploadPolicyNeedsCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OVERFLOW_POLICY", "upload")
	if _, err := NewConfig(); err == nil {
		t.Error("upload policy without S3 credentials must fail validation")
	}

	t.Setenv("S3_BUCKET", "lectures")
	t.Setenv("S3_ACCESS_KEY", "key")
	t.Setenv("S3_SECRET_KEY", "secret")
	if _, err := NewConfig(); err != nil {
		t.Errorf("upload policy with credentials should validate: %v", err)
	}
}

func TestValidateSortsLadder(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TARGET_LADDER", "1080,360,720")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if want := []int{360, 720, 1080}; !reflect.DeepEqual(cfg.EnumerationSettings.TargetLadder, want) {
		t.Errorf("ladder not sorted: %v", cfg.EnumerationSettings.TargetLadder)
	}
}

func TestValidateDedupesLadder(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TARGET_LADDER", "720,360,720")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if want := []int{360, 720}; !reflect.DeepEqual(cfg.EnumerationSettings.TargetLadder, want) {
		t.Errorf("ladder not deduplicated: %v", cfg.EnumerationSettings.TargetLadder)
	}
}
