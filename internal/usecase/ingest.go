package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/forPelevin/vidsub/internal/session"
	"github.com/forPelevin/vidsub/internal/types"
)

var videoExts = map[string]bool{
	".mp4": true,
	".mov": true,
	".avi": true,
}

var videoMIMEs = []string{
	"video/mp4",
	"video/quicktime",
	"video/x-msvideo",
}

// IsVideoFile reports whether the name has an accepted video extension.
func IsVideoFile(name string) bool {
	return videoExts[strings.ToLower(filepath.Ext(name))]
}

// BaseName strips the last extension from the file name.
func BaseName(filename string) string {
	name := filepath.Base(filepath.ToSlash(strings.TrimSpace(filename)))
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// Ingest stores an uploaded video in the temp directory and records it on the
// session, replacing any earlier upload. Derived artifacts are left alone.
func (u Usecase) Ingest(ctx context.Context, s *session.Session, filename string, r io.Reader) error {
	if !IsVideoFile(filename) {
		return fmt.Errorf("%w: %q", ErrUnsupportedMedia, filepath.Ext(filename))
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.CreateTemp(u.o.TempDir, "vidsub-*"+strings.ToLower(filepath.Ext(filename)))
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	path := f.Name()
	keep := false
	defer func() {
		if !keep {
			_ = os.Remove(path)
		}
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), io.LimitReader(r, u.o.MaxUploadBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write upload: %w", err)
	}
	if n > u.o.MaxUploadBytes {
		return fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, u.o.MaxUploadBytes)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detect media type: %w", err)
	}
	if !mimetype.EqualsAny(mt.String(), videoMIMEs...) && !isVideoAlias(mt) {
		return fmt.Errorf("%w: %s", ErrUnsupportedMedia, mt.String())
	}

	keep = true
	s.Video = &types.VideoAsset{
		Path:     path,
		BaseName: BaseName(filename),
		SHA256:   hex.EncodeToString(h.Sum(nil)),
		MIME:     mt.String(),
		Size:     n,
	}
	u.o.Logf("video stored: %s (%s, %d bytes)", path, mt.String(), n)
	return nil
}

func isVideoAlias(mt *mimetype.MIME) bool {
	for _, m := range videoMIMEs {
		if mt.Is(m) {
			return true
		}
	}
	return false
}
