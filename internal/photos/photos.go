// Package photos keeps container photos in a local directory.
package photos

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// Library копирует снимки в свой каталог и удаляет их оттуда.
type Library struct {
	src billy.Filesystem
	dst billy.Filesystem
	Now func() time.Time
}

// NewLibrary stores photos in dst. Sources are opened through src,
// which is normally the OS root so that absolute paths work.
func NewLibrary(src, dst billy.Filesystem) *Library {
	return &Library{src: src, dst: dst, Now: time.Now}
}

// NewDirLibrary is NewLibrary for a directory on disk.
func NewDirLibrary(dir string) *Library {
	return NewLibrary(osfs.New("/"), osfs.New(dir))
}

// Import copies src into the library as photo_<millis>.jpg and returns the stored path.
func (l *Library) Import(src string) (string, error) {
	in, err := l.src.Open(src)
	if err != nil {
		return "", fmt.Errorf("open photo %s: %w", src, err)
	}
	defer in.Close()

	name := l.uniqueName()
	out, err := l.dst.Create(name)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = l.dst.Remove(name)
		return "", fmt.Errorf("copy photo: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return l.dst.Join(l.dst.Root(), name), nil
}

// Remove deletes a stored photo. A missing file is not an error.
func (l *Library) Remove(p string) error {
	name := path.Base(p)
	if err := l.dst.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove photo %s: %w", name, err)
	}
	return nil
}

func (l *Library) uniqueName() string {
	ms := l.Now().UnixMilli()
	for {
		name := "photo_" + strconv.FormatInt(ms, 10) + ".jpg"
		if _, err := l.dst.Stat(name); errors.Is(err, os.ErrNotExist) {
			return name
		}
		ms++
	}
}
