package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/lectory-fpmi/telegram-lecture-bot/internal/logutils"
)

const (
	DefaultSizeLimitMB            = 1900
	DefaultMaxInlineMB            = 50
	DefaultMaxDocumentMB          = 2000
	DefaultDownloadTimeout        = 30 * time.Minute
	DefaultSocketTimeout          = 30 * time.Second
	DefaultProgressUpdateInterval = time.Second
)

// OverflowPolicy decides what happens to files above the document tier.
type OverflowPolicy string

const (
	OverflowReject OverflowPolicy = "reject"
	OverflowUpload OverflowPolicy = "upload"
)

type Config struct {
	BotToken            string
	Lang                string
	LogLevel            string
	CatalogPath         string
	ResolutionCachePath string
	DownloadDir         string

	// StrictSelection controls whether free-text that matches nothing in the
	// catalog gets a "use the keyboard" notice or is silently ignored.
	StrictSelection bool

	DownloadSettings    DownloadConfig
	EnumerationSettings EnumerationConfig
	DeliverySettings    DeliveryConfig
	CloudSettings       CloudConfig
}

type DownloadConfig struct {
	YtdlpPath              string
	SizeLimitMB            int64
	DownloadTimeout        time.Duration
	SocketTimeout          time.Duration
	ProgressUpdateInterval time.Duration
}

type EnumerationConfig struct {
	// MinHeight drops every format below the floor; 0 disables the floor.
	MinHeight int
	// TargetLadder is the fixed set of offered vertical resolutions.
	TargetLadder []int
}

type DeliveryConfig struct {
	MaxInlineMB    int64
	MaxDocumentMB  int64
	OverflowPolicy OverflowPolicy
}

type CloudConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// Configured reports whether the object-storage settings are usable.
func (c CloudConfig) Configured() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		logutils.Log.Debug("Loaded environment from .env")
	}

	cfg := &Config{
		BotToken:            getEnv("BOT_TOKEN", ""),
		Lang:                getEnv("LANGUAGE", "ru"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		CatalogPath:         getEnv("CATALOG_PATH", "playlists_data.json"),
		ResolutionCachePath: getEnv("RESOLUTION_CACHE_PATH", "video_resolutions.json"),
		DownloadDir:         getEnv("DOWNLOAD_DIR", os.TempDir()),
		StrictSelection:     getEnvBool("STRICT_SELECTION", false),

		DownloadSettings: DownloadConfig{
			YtdlpPath:              getEnv("YTDLP_PATH", "yt-dlp"),
			SizeLimitMB:            getEnvInt64("SIZE_LIMIT_MB", DefaultSizeLimitMB),
			DownloadTimeout:        getEnvDuration("DOWNLOAD_TIMEOUT", DefaultDownloadTimeout),
			SocketTimeout:          getEnvDuration("SOCKET_TIMEOUT", DefaultSocketTimeout),
			ProgressUpdateInterval: getEnvDuration("PROGRESS_UPDATE_INTERVAL", DefaultProgressUpdateInterval),
		},

		EnumerationSettings: EnumerationConfig{
			MinHeight:    getEnvInt("MIN_HEIGHT", 0),
			TargetLadder: getEnvIntList("TARGET_LADDER", []int{144, 360, 480, 720, 1080}),
		},

		DeliverySettings: DeliveryConfig{
			MaxInlineMB:    getEnvInt64("MAX_INLINE_MB", DefaultMaxInlineMB),
			MaxDocumentMB:  getEnvInt64("MAX_DOCUMENT_MB", DefaultMaxDocumentMB),
			OverflowPolicy: OverflowPolicy(getEnv("OVERFLOW_POLICY", string(OverflowReject))),
		},

		CloudSettings: CloudConfig{
			Endpoint:  getEnv("S3_ENDPOINT", "https://storage.yandexcloud.net"),
			Region:    getEnv("S3_REGION", "ru-central1"),
			Bucket:    getEnv("S3_BUCKET", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logutils.Log.Warnf("Invalid integer for %s: %q, using default", key, value)
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		logutils.Log.Warnf("Invalid integer for %s: %q, using default", key, value)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		logutils.Log.Warnf("Invalid boolean for %s: %q, using default", key, value)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		logutils.Log.Warnf("Invalid duration for %s: %q, using default", key, value)
	}
	return defaultValue
}

// getEnvIntList parses a comma-separated list like "144,360,480,720,1080".
func getEnvIntList(key string, defaultValue []int) []int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var result []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			logutils.Log.Warnf("Invalid entry in %s: %q, using default list", key, part)
			return defaultValue
		}
		result = append(result, n)
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
