package storage

import (
	"context"
	"fmt"

	"template-mailer/internal/config"

	"gorm.io/gorm"
)

// New builds the ObjectStore selected by STORAGE_DRIVER. gdb is only used
// by the postgres driver and may be nil otherwise.
func New(ctx context.Context, cfg *config.Config, gdb *gorm.DB) (ObjectStore, error) {
	switch cfg.StorageDriver {
	case "s3":
		return NewS3Store(ctx, S3Options{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			ForcePathStyle:  cfg.S3ForcePathStyle,
		})
	case "minio":
		return NewMinioStore(ctx, cfg.MinioEndpoint, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey,
			cfg.TemplatesBucket, cfg.MinioUseSSL)
	case "postgres":
		if gdb == nil {
			return nil, fmt.Errorf("postgres storage driver: no database connection")
		}
		return NewDBStore(gdb), nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStorageDriver, cfg.StorageDriver)
	}
}
