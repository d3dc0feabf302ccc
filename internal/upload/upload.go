// Package upload puts report files into object storage and hands back a shareable link.
package upload

import (
	"context"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Uploader stores a local file and returns a URL the report can be shared with.
type Uploader interface {
	Upload(ctx context.Context, path, nameHint string) (string, error)
}

// DefaultLinkTTL: срок жизни подписанной ссылки, если не задан в конфиге.
// Семь суток: максимум для SigV4.
const DefaultLinkTTL = 7 * 24 * time.Hour

// ObjectKey builds <prefix><nameHint>_<millis><ext>; ext is taken from path and defaults to .pdf.
func ObjectKey(prefix, path, nameHint string, now time.Time) string {
	ext := filepath.Ext(path)
	if ext == "" {
		ext = ".pdf"
	}
	hint := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, strings.TrimSpace(nameHint))
	if hint == "" {
		hint = "report"
	}
	return prefix + hint + "_" + strconv.FormatInt(now.UnixMilli(), 10) + ext
}

// ContentType sniffs the file; unknown content is sent as application/octet-stream.
func ContentType(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil || mt == nil {
		return "application/octet-stream"
	}
	return mt.String()
}

// PublicURL joins a public bucket base URL and an object key.
func PublicURL(base, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}
