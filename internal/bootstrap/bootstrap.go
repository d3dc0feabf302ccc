// Package bootstrap собирает координатор и его зависимости из конфигурации.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"WarehouseApp/internal/config"
	"WarehouseApp/internal/notify"
	"WarehouseApp/internal/photos"
	"WarehouseApp/internal/report"
	"WarehouseApp/internal/repo"
	fsrepo "WarehouseApp/internal/repo/fs"
	reposqlite "WarehouseApp/internal/repo/sqlite"
	"WarehouseApp/internal/service"
	"WarehouseApp/internal/sheets"
	"WarehouseApp/internal/upload"
)

// App собирает зависимости обоих бинарников.
type App struct {
	Config      *config.Config
	Logger      *zap.SugaredLogger
	Coordinator *service.Coordinator
	Operators   *service.OperatorService
	Photos      *photos.Library

	closers []func() error
}

// Build wires every collaborator and loads the local collection.
// Close must be called when the app is done.
func Build(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	app := &App{Config: cfg, Logger: logger}

	store, closeStore, err := OpenStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeStore)

	remote, err := NewRemote(ctx, cfg, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	uploader, err := NewUploader(ctx, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	notifier, closeNotifier, err := NewNotifier(cfg, logger)
	if err != nil {
		// уведомления не обязательны для работы: откатываемся на лог
		logger.Warnw("nats unavailable, discrepancy notifications go to the log", "error", err)
		notifier, closeNotifier = notify.LogNotifier{Logger: logger, AdminEmail: cfg.AdminEmail}, nil
	}
	if closeNotifier != nil {
		app.closers = append(app.closers, closeNotifier)
	}

	collab := service.Collaborators{
		Reports:  report.NewGenerator(cfg.ReportsDir),
		Uploader: uploader,
		Notifier: notifier,
	}
	var rs service.RemoteStore
	if remote != nil {
		rs = remote
	}

	app.Coordinator = service.NewCoordinator(store, rs, collab, logger)
	app.Operators = service.NewOperatorService(cfg.AccessCodeHash)
	app.Photos = photos.NewDirLibrary(cfg.PhotosDir)

	if err := app.Coordinator.Load(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// Close releases the store and the NATS connection.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenStore открывает локальное хранилище, выбранное в конфигурации,
// и возвращает (store, cleanup, error).
func OpenStore(cfg *config.Config, logger *zap.SugaredLogger) (repo.ContainerStore, func() error, error) {
	switch cfg.StoreDriver {
	case config.StoreFS:
		dir, name := filepath.Split(cfg.StorePath)
		if dir == "" {
			dir = "."
		}
		s := fsrepo.NewContainerFSStore(osfs.New(dir), name, logger)
		return s, func() error { return nil }, nil
	default:
		s, err := reposqlite.Open(cfg.StorePath, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open local store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("migrate local store: %w", err)
		}
		return s, s.Close, nil
	}
}

// NewRemote returns nil when no sheet is configured.
func NewRemote(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*sheets.Client, error) {
	if !cfg.RemoteEnabled() {
		logger.Infow("remote sheet is not configured, working local only")
		return nil, nil
	}
	client := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.SheetsAccessToken != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.SheetsAccessToken,
			TokenType:   "Bearer",
		}))
		client.Timeout = cfg.HTTPTimeout
	}
	return sheets.New(sheets.Config{
		BaseURL:            cfg.SheetsBaseURL,
		SpreadsheetID:      cfg.SheetsSpreadsheetID,
		APIKey:             cfg.SheetsAPIKey,
		SheetName:          cfg.SheetsSheetName,
		SheetGID:           cfg.SheetsGID,
		HighlightCompleted: cfg.SheetsAccessToken != "",
		HTTPClient:         client,
		Logger:             logger,
	})
}

// NewUploader returns nil when no upload driver is configured.
func NewUploader(ctx context.Context, cfg *config.Config) (service.Uploader, error) {
	switch cfg.UploadDriver {
	case "":
		return nil, nil
	case config.UploadS3:
		u, err := upload.NewS3(ctx, upload.S3Config{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PathStyle:     cfg.S3PathStyle,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.S3PublicBaseURL,
			LinkTTL:       cfg.LinkTTL,
		})
		if err != nil {
			return nil, err
		}
		return u, nil
	case config.UploadMinio:
		endpoint, secure := minioEndpoint(cfg.S3Endpoint)
		u, err := upload.NewMinio(upload.MinioConfig{
			Endpoint:      endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Secure:        secure,
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			PublicBaseURL: cfg.S3PublicBaseURL,
			LinkTTL:       cfg.LinkTTL,
		})
		if err != nil {
			return nil, err
		}
		return u, nil
	default:
		return nil, fmt.Errorf("unknown upload driver %q", cfg.UploadDriver)
	}
}

// minioEndpoint strips the scheme: minio-go wants host:port and a Secure flag.
func minioEndpoint(raw string) (string, bool) {
	switch {
	case strings.HasPrefix(raw, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(raw, "https://"), "/"), true
	case strings.HasPrefix(raw, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(raw, "http://"), "/"), false
	default:
		return raw, true
	}
}

// NewNotifier dials NATS when NATS_URL is set and falls back to the log otherwise.
func NewNotifier(cfg *config.Config, logger *zap.SugaredLogger) (service.Notifier, func() error, error) {
	if cfg.NATSURL == "" {
		return notify.LogNotifier{Logger: logger, AdminEmail: cfg.AdminEmail}, nil, nil
	}
	n, err := notify.DialNATS(cfg.NATSURL, cfg.NATSSubject, cfg.AdminEmail)
	if err != nil {
		return nil, nil, err
	}
	return n, n.Close, nil
}
