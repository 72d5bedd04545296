package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config carries everything the gallery client and the dev backend read from
// the environment.
type Config struct {
	API    APIConfig
	Upload UploadConfig
	Server ServerConfig
}

// APIConfig points the client at the gallery backend and the asset origin.
type APIConfig struct {
	// BaseURL is the gallery API origin.
	BaseURL string `envconfig:"VG_API_BASE_URL" default:"http://localhost:8080"`
	// AssetBaseURL, when set, is the origin that serves manifests and
	// thumbnails. Empty means assets are served by the API origin.
	AssetBaseURL string `envconfig:"VG_ASSET_BASE_URL" default:""`
	// Timeout bounds presign, notify, listing and detail requests.
	Timeout time.Duration `envconfig:"VG_HTTP_TIMEOUT" default:"30s"`
	// TransferTimeout bounds the direct byte transfer, which legitimately
	// runs for minutes on large files.
	TransferTimeout time.Duration `envconfig:"VG_TRANSFER_TIMEOUT" default:"30m"`
}

// UploadConfig names the polling policy so the processing timeout budget is
// explicit configuration rather than an inline constant.
type UploadConfig struct {
	PollInterval    time.Duration `envconfig:"VG_POLL_INTERVAL" default:"5s"`
	PollMaxAttempts int           `envconfig:"VG_POLL_MAX_ATTEMPTS" default:"60"`
}

// ServerConfig configures the development backend.
type ServerConfig struct {
	Addr string `envconfig:"VG_SERVER_ADDR" default:":8080"`
	// ContentDir is where uploads, manifests and thumbnails are kept.
	ContentDir string `envconfig:"VG_CONTENT_DIR" default:"./data"`
	// ProcessingDelay simulates server-side transcoding latency.
	ProcessingDelay time.Duration `envconfig:"VG_PROCESSING_DELAY" default:"3s"`
	// PostgresDSN switches video metadata from in-memory to Postgres.
	PostgresDSN string `envconfig:"VG_POSTGRES_DSN" default:""`
	S3          S3Config
}

// S3Config, when Bucket is set, makes the dev backend issue real S3 presigned
// PUT URLs instead of loopback upload targets.
type S3Config struct {
	Endpoint   string        `envconfig:"VG_S3_ENDPOINT" default:""`
	Bucket     string        `envconfig:"VG_S3_BUCKET" default:""`
	Region     string        `envconfig:"VG_S3_REGION" default:"us-east-1"`
	AccessKey  string        `envconfig:"VG_S3_ACCESS_KEY" default:""`
	SecretKey  string        `envconfig:"VG_S3_SECRET_KEY" default:""`
	PresignTTL time.Duration `envconfig:"VG_S3_PRESIGN_TTL" default:"15m"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.API.BaseURL = normalizeOrigin(cfg.API.BaseURL)
	cfg.API.AssetBaseURL = normalizeOrigin(cfg.API.AssetBaseURL)

	return &cfg, nil
}

// normalizeOrigin makes sure a configured origin carries a scheme and no
// trailing slash. An origin set without a protocol is a recurring deployment
// mistake, so it is repaired rather than rejected.
func normalizeOrigin(raw string) string {
	origin := strings.TrimRight(raw, "/")
	if origin == "" {
		return origin
	}
	if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
		slog.Warn("origin is missing a protocol scheme, assuming http", "origin", origin)
		origin = "http://" + origin
	}
	return origin
}
