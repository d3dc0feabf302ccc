package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"WarehouseApp/internal/model"
	"WarehouseApp/internal/repo"
)

// ContainerFSStore: файловое хранилище коллекции контейнеров (один JSON-файл).
type ContainerFSStore struct {
	fs     billy.Filesystem
	name   string
	logger *zap.SugaredLogger
}

var _ repo.ContainerStore = (*ContainerFSStore)(nil)

// NewContainerFSStore stores the blob in file name inside fs.
func NewContainerFSStore(fs billy.Filesystem, name string, logger *zap.SugaredLogger) *ContainerFSStore {
	if name == "" {
		name = "containers.json"
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ContainerFSStore{fs: fs, name: name, logger: logger}
}

// Load читает файл; отсутствие файла даёт пустую коллекцию.
func (s *ContainerFSStore) Load(ctx context.Context) ([]model.Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := s.fs.Open(s.name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Container{}, nil
		}
		return nil, fmt.Errorf("open %s: %w", s.name, err)
	}
	defer f.Close()
	b, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.name, err)
	}
	return repo.DecodeContainers(b, s.logger), nil
}

// SaveAll пишет во временный файл и переименовывает его поверх основного,
// так что читатель видит либо старую, либо новую коллекцию целиком.
func (s *ContainerFSStore) SaveAll(ctx context.Context, containers []model.Container) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := repo.EncodeContainers(containers)
	if err != nil {
		return err
	}
	if dir := path.Dir(s.name); dir != "." && dir != "/" {
		if err := s.fs.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	tmp := s.name + ".tmp"
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.name); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
