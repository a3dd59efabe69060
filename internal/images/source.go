package images

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/christophergentle/instaposter/internal/errs"
)

// Store is a bucket-style object store holding the images to post.
type Store interface {
	// List returns the names of every object in the bucket.
	List(ctx context.Context) ([]string, error)
	// PublicURL maps an object name to its publicly fetchable URL.
	PublicURL(name string) string
	Upload(ctx context.Context, localPath, name string) (string, error)
	Download(ctx context.Context, name, localPath string) error
	Close() error
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// IsImage reports whether an object name carries a recognised image extension.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// Source picks images from a Store, degrading to a static list.
type Source struct {
	store    Store
	fallback []string
	log      logrus.FieldLogger
}

// NewSource builds a Source. store may be nil when the bucket is not
// configured or its client could not be created.
func NewSource(store Store, fallback []string, log logrus.FieldLogger) *Source {
	return &Source{
		store:    store,
		fallback: append([]string(nil), fallback...),
		log:      log,
	}
}

// Available reports whether a live store client was constructed.
func (s *Source) Available() bool {
	return s.store != nil
}

// HasFallback reports whether a static image list is configured.
func (s *Source) HasFallback() bool {
	return len(s.fallback) > 0
}

// ListImages returns public URLs of every image in the store. It never
// fails: when the store is missing, unreachable or empty it returns the
// fallback list.
func (s *Source) ListImages(ctx context.Context) []string {
	if s.store == nil {
		s.log.WithField("kind", errs.KindConfigMissing).Warn("Image store not configured; using fallback image list")
		return s.fallbackList()
	}

	names, err := s.store.List(ctx)
	if err != nil {
		s.log.WithError(err).WithField("kind", errs.KindOf(err)).Error("Failed to list images in store; using fallback image list")
		return s.fallbackList()
	}

	urls := make([]string, 0, len(names))
	for _, name := range names {
		if IsImage(name) {
			urls = append(urls, s.store.PublicURL(name))
		}
	}

	if len(urls) == 0 {
		s.log.WithField("objects", len(names)).Warn("No images found in store; using fallback image list")
		return s.fallbackList()
	}

	s.log.WithField("count", len(urls)).Info("Listed images from store")
	return urls
}

// SelectImage returns the first available image URL, or "" when there is none.
func (s *Source) SelectImage(ctx context.Context) string {
	urls := s.ListImages(ctx)
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}

// Upload stores a local file in the bucket and returns its public URL.
func (s *Source) Upload(ctx context.Context, localPath, name string) (string, error) {
	if s.store == nil {
		return "", errs.ConfigMissing("upload", "image store not configured")
	}
	if name == "" {
		name = filepath.Base(localPath)
	}
	if !IsImage(name) {
		return "", fmt.Errorf("upload %s: not a recognised image extension", name)
	}
	return s.store.Upload(ctx, localPath, name)
}

// Download fetches an object from the bucket to a local file.
func (s *Source) Download(ctx context.Context, name, localPath string) error {
	if s.store == nil {
		return errs.ConfigMissing("download", "image store not configured")
	}
	return s.store.Download(ctx, name, localPath)
}

// Close releases the underlying store client.
func (s *Source) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func (s *Source) fallbackList() []string {
	if len(s.fallback) == 0 {
		return []string{}
	}
	return append([]string(nil), s.fallback...)
}
