package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/christophergentle/instaposter/internal/errs"
)

// GCSStore lists and transfers objects in a Google Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a storage client for bucket. credentialsPath may be
// empty to use Application Default Credentials.
func NewGCSStore(ctx context.Context, bucket, prefix, credentialsPath string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errs.ConfigMissing("gcs", "bucket name must be provided")
	}

	var opts []option.ClientOption
	if credentialsPath != "" {
		if _, err := os.Stat(credentialsPath); err != nil {
			return nil, errs.New("gcs", errs.KindConfigMissing, fmt.Errorf("credentials file %s: %w", credentialsPath, err))
		}
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errs.New("gcs", errs.KindConfigMissing, fmt.Errorf("failed to create storage client: %w", err))
	}

	return &GCSStore{client: client, bucket: bucket, prefix: prefix}, nil
}

func (g *GCSStore) List(ctx context.Context) ([]string, error) {
	var query *storage.Query
	if g.prefix != "" {
		query = &storage.Query{Prefix: g.prefix}
	}

	it := g.client.Bucket(g.bucket).Objects(ctx, query)

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if errors.Is(err, storage.ErrBucketNotExist) {
				return nil, errs.New("gcs list", errs.KindConfigMissing, err)
			}
			return nil, errs.New("gcs list", errs.KindOf(err), fmt.Errorf("failed to list objects in %s: %w", g.bucket, err))
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

func (g *GCSStore) PublicURL(name string) string {
	return "https://storage.googleapis.com/" + g.bucket + "/" + escapePath(name)
}

func (g *GCSStore) Upload(ctx context.Context, localPath, name string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = mime.TypeByExtension(path.Ext(name))

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return g.PublicURL(name), nil
}

func (g *GCSStore) Download(ctx context.Context, name, localPath string) error {
	r, err := g.client.Bucket(g.bucket).Object(name).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to read gs://%s/%s: %w", g.bucket, name, err)
	}
	defer r.Close()

	return writeLocal(localPath, r)
}

func (g *GCSStore) Close() error {
	return g.client.Close()
}

func escapePath(name string) string {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func writeLocal(localPath string, r io.Reader) error {
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	return out.Close()
}
