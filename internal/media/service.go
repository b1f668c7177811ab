package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/jmflorece/tindahan-pos/pkg/config"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
	"github.com/jmflorece/tindahan-pos/pkg/logger"
)

// allowedImageTypes maps accepted sniffed content types to the extension the
// stored file gets.
var allowedImageTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// Service stores product images on local disk under the configured upload
// directory.
type Service interface {
	Store(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error)
	Delete(ctx context.Context, storedPath string) error
}

type service struct {
	uploadDir string
	maxBytes  int64
	logg      *logger.Logger
}

// NewService constructs the media service and ensures the upload directory
// exists.
func NewService(cfg config.MediaConfig, logg *logger.Logger) (Service, error) {
	if cfg.UploadDir == "" {
		return nil, fmt.Errorf("upload dir required")
	}
	if cfg.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &service{
		uploadDir: cfg.UploadDir,
		maxBytes:  int64(cfg.MaxUploadMB) << 20,
		logg:      logg,
	}, nil
}

// Store validates and writes the upload, returning the relative path to keep
// on the product row.
func (s *service) Store(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	if file == nil || header == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	if header.Size > s.maxBytes {
		return "", pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file exceeds the %dMB limit", s.maxBytes>>20))
	}

	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading upload")
	}
	contentType := http.DetectContentType(sniff[:n])
	ext, ok := allowedImageTypes[normalizeContentType(contentType)]
	if !ok {
		// SVG sniffs as text/xml or text/plain; fall back to the extension.
		if strings.EqualFold(filepath.Ext(header.Filename), ".svg") && strings.HasPrefix(contentType, "text/") {
			ext = ".svg"
		} else {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "only image uploads are accepted")
		}
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rewinding upload")
	}

	name := uuid.NewString() + ext
	fullPath := filepath.Join(s.uploadDir, name)

	dst, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating image file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, s.maxBytes+1)); err != nil {
		_ = os.Remove(fullPath)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "writing image file")
	}

	stored := path.Join(filepath.ToSlash(s.uploadDir), name)
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "path", stored), "image stored")
	}
	return stored, nil
}

// Delete removes a stored image. Paths outside the upload directory are
// rejected.
func (s *service) Delete(ctx context.Context, storedPath string) error {
	cleaned := path.Clean(filepath.ToSlash(storedPath))
	prefix := filepath.ToSlash(s.uploadDir)
	if cleaned == "" || !strings.HasPrefix(cleaned, prefix+"/") {
		return pkgerrors.New(pkgerrors.CodeValidation, "path is outside the upload directory")
	}

	if err := os.Remove(filepath.FromSlash(cleaned)); err != nil {
		if os.IsNotExist(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting image")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "path", cleaned), "image deleted")
	}
	return nil
}

func normalizeContentType(value string) string {
	if idx := strings.Index(value, ";"); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(strings.ToLower(value))
}
