package images

import (
	"context"
	"fmt"
	"strings"

	"github.com/christophergentle/instaposter/internal/config"
	"github.com/christophergentle/instaposter/internal/errs"
)

// OpenStore builds the store named by cfg.Provider. The store is nil
// whenever err is non-nil.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	if cfg.BucketName == "" {
		return nil, errs.ConfigMissing("image store", "no bucket name configured")
	}

	switch strings.ToLower(cfg.Provider) {
	case "", "gcs":
		store, err := NewGCSStore(ctx, cfg.BucketName, cfg.Prefix, cfg.CredentialsPath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		store, err := NewS3Store(ctx, cfg.BucketName, cfg.Prefix, cfg.Region)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, errs.New("image store", errs.KindConfigMissing, fmt.Errorf("unknown storage provider %q", cfg.Provider))
	}
}
