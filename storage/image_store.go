package storage

import (
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ImageStore keeps uploaded images on the local disk and serves them under baseURL.
type ImageStore struct {
	log     *slog.Logger
	dir     string
	baseURL string
	maxSize int64
}

func NewImageStore(log *slog.Logger, dir, baseURL string, maxSize int64) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	return &ImageStore{log: log, dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxSize: maxSize}, nil
}

// Save sniffs the content, rejects anything not an image or above maxSize,
// and writes it under a fresh public id keeping the detected extension.
func (s *ImageStore) Save(ctx context.Context, filename string, content io.Reader) (chat.Image, error) {
	if err := ctx.Err(); err != nil {
		return chat.Image{}, err
	}
	data, err := io.ReadAll(io.LimitReader(content, s.maxSize+1))
	if err != nil {
		return chat.Image{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return chat.Image{}, errors.ErrImageTooLarge
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		s.log.Debug("Upload rejected", "filename", filename, "mime", mime.String())
		return chat.Image{}, errors.ErrNotAnImage
	}

	publicID := uuid.NewString() + mime.Extension()
	if err = os.WriteFile(filepath.Join(s.dir, publicID), data, 0o644); err != nil {
		return chat.Image{}, fmt.Errorf("write image: %w", err)
	}
	s.log.Debug("Image stored", "filename", filename, "public_id", publicID, "size", len(data))
	return chat.Image{URL: s.baseURL + "/" + publicID, PublicID: publicID}, nil
}

// Delete removes a stored image. An image already gone is not an error.
func (s *ImageStore) Delete(ctx context.Context, image chat.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if image.PublicID == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(image.PublicID)))
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	s.log.Debug("Image removed", "public_id", image.PublicID)
	return nil
}
