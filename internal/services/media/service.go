package media

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"skillmart/internal/utils/sanitize"

	"github.com/oklog/ulid/v2"
)

// KeyPrefix scopes every uploaded object.
const KeyPrefix = "uploads/"

// allowedTypes lists the content types accepted for upload.
var allowedTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"video/mp4":       {},
	"video/webm":      {},
	"video/quicktime": {},
}

// Service coordinates uploads and reads against the object store.
type Service struct {
	store    Store
	maxBytes int
	log      *slog.Logger
}

// NewService creates a media service. A nil store makes every call fail
// with ErrStorageUnavailable.
func NewService(store Store, maxBytes int, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		maxBytes: maxBytes,
		log:      log,
	}
}

// UploadRequest names the file being uploaded.
type UploadRequest struct {
	Filename    string `query:"filename" validate:"required,max=255" example:"kitchen.jpg"`
	ContentType string `query:"contentType" validate:"required,max=100" example:"image/jpeg"`
}

// PresignResponse carries a short-lived direct upload URL.
type PresignResponse struct {
	URL       string `json:"url" example:"https://bucket.s3.amazonaws.com/uploads/01J...-kitchen.jpg?X-Amz-Signature=..."`
	Key       string `json:"key" example:"uploads/01JX2Q8ZK3V5N7M9P1R3T5W7Y9-kitchen.jpg"`
	PublicURL string `json:"publicUrl" example:"https://bucket.s3.amazonaws.com/uploads/01JX2Q8ZK3V5N7M9P1R3T5W7Y9-kitchen.jpg"`
}

// UploadResponse describes an object stored through the proxy path.
type UploadResponse struct {
	Key       string `json:"key" example:"uploads/01JX2Q8ZK3V5N7M9P1R3T5W7Y9-kitchen.jpg"`
	PublicURL string `json:"publicUrl" example:"https://bucket.s3.amazonaws.com/uploads/01JX2Q8ZK3V5N7M9P1R3T5W7Y9-kitchen.jpg"`
}

// PresignUpload validates the request and issues a presigned PUT URL.
func (s *Service) PresignUpload(ctx context.Context, req UploadRequest) (*PresignResponse, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}

	contentType, err := checkRequest(req)
	if err != nil {
		return nil, err
	}

	key := NewKey(req.Filename)
	url, err := s.store.PresignPut(ctx, key, contentType)
	if err != nil {
		s.log.Error("failed to presign upload", "error", err, "key", key)
		return nil, ErrUpstream
	}

	return &PresignResponse{URL: url, Key: key, PublicURL: s.store.PublicURL(key)}, nil
}

// Upload stores body under a fresh key.
func (s *Service) Upload(ctx context.Context, req UploadRequest, body []byte) (*UploadResponse, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}

	contentType, err := checkRequest(req)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, ErrEmptyFile
	}
	if len(body) > s.maxBytes {
		return nil, ErrTooLarge
	}
	if !sniffMatches(contentType, body) {
		return nil, ErrContentMismatch
	}

	key := NewKey(req.Filename)
	if err := s.store.Put(ctx, key, contentType, body); err != nil {
		s.log.Error("failed to upload object", "error", err, "key", key, "size", len(body))
		return nil, ErrUpstream
	}

	return &UploadResponse{Key: key, PublicURL: s.store.PublicURL(key)}, nil
}

// Open streams an uploaded object.
func (s *Service) Open(ctx context.Context, key string) (*Object, error) {
	if s.store == nil {
		return nil, ErrStorageUnavailable
	}
	if !validKey(key) {
		return nil, ErrInvalidKey
	}

	obj, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.log.Error("failed to read object", "error", err, "key", key)
		return nil, ErrUpstream
	}
	return obj, nil
}

// RemoveByURL deletes the object a stored URL points at.
func (s *Service) RemoveByURL(ctx context.Context, rawURL string) error {
	if s.store == nil {
		return ErrStorageUnavailable
	}

	key, ok := s.store.KeyFromURL(rawURL)
	if !ok || !validKey(key) {
		return fmt.Errorf("%w: %q is not a managed upload", ErrInvalidKey, rawURL)
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// NewKey builds uploads/<ULID>-<filename>. The ULID carries the timestamp
// and crypto random suffix.
func NewKey(filename string) string {
	id := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	return KeyPrefix + id.String() + "-" + sanitize.Filename(filename)
}

// NormalizeContentType lower-cases the media type and drops parameters.
func NormalizeContentType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// Allowed reports whether contentType may be uploaded.
func Allowed(contentType string) bool {
	_, ok := allowedTypes[NormalizeContentType(contentType)]
	return ok
}

func checkRequest(req UploadRequest) (string, error) {
	if strings.TrimSpace(req.Filename) == "" {
		return "", ErrFilenameRequired
	}
	contentType := NormalizeContentType(req.ContentType)
	if _, ok := allowedTypes[contentType]; !ok {
		return "", ErrUnsupportedType
	}
	return contentType, nil
}

// sniffMatches rejects bytes whose detected top-level type contradicts the
// declared one. Undetectable content passes.
func sniffMatches(contentType string, body []byte) bool {
	detected := http.DetectContentType(body)
	if strings.HasPrefix(detected, "application/octet-stream") {
		return true
	}
	declaredFamily, _, _ := strings.Cut(contentType, "/")
	detectedFamily, _, _ := strings.Cut(detected, "/")
	return declaredFamily == detectedFamily
}

func validKey(key string) bool {
	return strings.HasPrefix(key, KeyPrefix) && len(key) > len(KeyPrefix) && !strings.Contains(key, "..")
}
