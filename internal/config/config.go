package config

import (
	"flag"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	StoreSQLite = "sqlite"
	StoreFS     = "fs"

	UploadS3    = "s3"
	UploadMinio = "minio"
)

type Config struct {
	// Local store
	StoreDriver string `env:"STORE_DRIVER"`
	StorePath   string `env:"STORE_PATH"`

	// Remote sheet
	SheetsAPIKey        string        `env:"SHEETS_API_KEY"`
	SheetsSpreadsheetID string        `env:"SHEETS_SPREADSHEET_ID"`
	SheetsSheetName     string        `env:"SHEETS_SHEET_NAME"`
	SheetsBaseURL       string        `env:"SHEETS_BASE_URL"`
	SheetsAccessToken   string        `env:"SHEETS_ACCESS_TOKEN"`
	SheetsGID           int64         `env:"SHEETS_GID"`
	HTTPTimeout         time.Duration `env:"HTTP_TIMEOUT"`

	// Reports and photos
	ReportsDir string `env:"REPORTS_DIR"`
	PhotosDir  string `env:"PHOTOS_DIR"`

	// Report upload
	UploadDriver    string        `env:"UPLOAD_DRIVER"`
	S3Bucket        string        `env:"S3_BUCKET"`
	S3Region        string        `env:"S3_REGION"`
	S3Endpoint      string        `env:"S3_ENDPOINT"`
	S3AccessKey     string        `env:"S3_ACCESS_KEY"`
	S3SecretKey     string        `env:"S3_SECRET_KEY"`
	S3Prefix        string        `env:"S3_PREFIX"`
	S3PublicBaseURL string        `env:"S3_PUBLIC_BASE_URL"`
	S3PathStyle     bool          `env:"S3_PATH_STYLE"`
	LinkTTL         time.Duration `env:"LINK_TTL"`

	// Notifications
	NATSURL     string `env:"NATS_URL"`
	NATSSubject string `env:"NATS_SUBJECT"`
	AdminEmail  string `env:"ADMIN_EMAIL"`

	// HTTP server
	BaseURL        string `env:"BASE_URL"`
	AuthSecret     string `env:"AUTH_SECRET"`
	AccessCodeHash string `env:"ACCESS_CODE_HASH"`

	Version bool `env:"-"` // show version and exit (flag only)
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// flags работают ТОЛЬКО если переменные из env не заданы
	flag.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "local store driver: sqlite or fs")
	flag.StringVar(&cfg.StorePath, "store-path", cfg.StorePath, "path to the local store (sqlite file or json file)")
	flag.StringVar(&cfg.SheetsSpreadsheetID, "sheet", cfg.SheetsSpreadsheetID, "spreadsheet id of the remote sheet")
	flag.StringVar(&cfg.SheetsAPIKey, "sheets-key", cfg.SheetsAPIKey, "API key of the remote sheet")
	flag.StringVar(&cfg.ReportsDir, "reports-dir", cfg.ReportsDir, "directory for PDF reports")
	flag.StringVar(&cfg.PhotosDir, "photos-dir", cfg.PhotosDir, "directory for container photos")
	flag.StringVar(&cfg.UploadDriver, "upload", cfg.UploadDriver, "report upload driver: s3 or minio")
	flag.StringVar(&cfg.NATSURL, "nats", cfg.NATSURL, "NATS server url for discrepancy notifications")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "listen address of the HTTP API (host:port)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи JWT")
	flag.BoolVar(&cfg.Version, "version", cfg.Version, "Show version and exit")

	flag.Parse()

	cfg.fillDefaults()
	return cfg
}

// fillDefaults дозаполняет пустые поля после env и флагов.
func (cfg *Config) fillDefaults() {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".warehouse")

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if cfg.StoreDriver != StoreFS {
		cfg.StoreDriver = StoreSQLite
	}
	if cfg.StorePath == "" {
		if cfg.StoreDriver == StoreFS {
			cfg.StorePath = filepath.Join(dataDir, "containers.json")
		} else {
			cfg.StorePath = filepath.Join(dataDir, "warehouse.db")
		}
	}
	if cfg.SheetsSheetName == "" {
		cfg.SheetsSheetName = "Sheet1"
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.ReportsDir == "" {
		cfg.ReportsDir = filepath.Join(dataDir, "reports")
	}
	if cfg.PhotosDir == "" {
		cfg.PhotosDir = filepath.Join(dataDir, "photos")
	}
	cfg.UploadDriver = strings.ToLower(strings.TrimSpace(cfg.UploadDriver))
	if cfg.S3Region == "" {
		cfg.S3Region = "us-east-1"
	}
	if cfg.S3Prefix == "" {
		cfg.S3Prefix = "reports/"
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = 7 * 24 * time.Hour
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	// BaseURL: только "address:port" (без схемы и пути), иначе значение по умолчанию.
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]*:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8081"
	}
}

// RemoteEnabled reports whether a remote sheet is configured.
func (cfg *Config) RemoteEnabled() bool {
	return cfg.SheetsSpreadsheetID != "" && (cfg.SheetsAPIKey != "" || cfg.SheetsAccessToken != "")
}
