package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"WarehouseApp/internal/model"
	"WarehouseApp/internal/repo"
)

// ContainerStoreSQLite: локальное хранилище контейнеров в таблице kv (SQLite).
// Вся коллекция лежит одним JSON под ключом repo.StorageKey.
type ContainerStoreSQLite struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

var _ repo.ContainerStore = (*ContainerStoreSQLite)(nil)

// Open открывает (и создаёт при необходимости) файл БД по указанному пути.
func Open(path string, logger *zap.SugaredLogger) (*ContainerStoreSQLite, error) {
	if path == "" {
		return nil, errors.New("empty sqlite path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// один писатель на процесс
	db.SetMaxOpenConns(1)
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ContainerStoreSQLite{db: db, logger: logger}, nil
}

// Close закрывает соединение с БД.
func (s *ContainerStoreSQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate гарантирует наличие таблицы kv.
func (s *ContainerStoreSQLite) Migrate() error {
	_, err := s.db.Exec(initialDDL())
	return err
}

// Load читает blob контейнеров. Отсутствие ключа даёт пустую коллекцию.
func (s *ContainerStoreSQLite) Load(ctx context.Context) ([]model.Container, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, repo.StorageKey).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []model.Container{}, nil
		}
		return nil, fmt.Errorf("load %s: %w", repo.StorageKey, err)
	}
	return repo.DecodeContainers([]byte(value), s.logger), nil
}

// SaveAll перезаписывает blob одной командой INSERT ... ON CONFLICT.
func (s *ContainerStoreSQLite) SaveAll(ctx context.Context, containers []model.Container) error {
	b, err := repo.EncodeContainers(containers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv(key, value, updated_at) VALUES(?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		repo.StorageKey, string(b), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", repo.StorageKey, err)
	}
	return nil
}
