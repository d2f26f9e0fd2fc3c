package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoredObject is one object row of the "postgres" storage driver.
type StoredObject struct {
	Bucket      string `gorm:"primaryKey;size:255"`
	Key         string `gorm:"primaryKey;size:1024"`
	Body        []byte
	ContentType string `gorm:"size:128"`
	UpdatedAt   time.Time
}

// DBStore keeps objects in a postgres table. It has no presigning; use the
// buffer dataset source with it.
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) GetJSON(ctx context.Context, bucket, key string, v any) error {
	return getJSON(ctx, s, bucket, key, v)
}

func (s *DBStore) PutJSON(ctx context.Context, bucket, key string, v any) error {
	data, err := encodeJSON(bucket, key, v)
	if err != nil {
		return err
	}
	return s.put(ctx, bucket, key, data, "application/json")
}

func (s *DBStore) put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	obj := StoredObject{
		Bucket:      bucket,
		Key:         key,
		Body:        data,
		ContentType: contentType,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&obj).Error
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *DBStore) GetBytes(ctx context.Context, bucket, key string) ([]byte, error) {
	var obj StoredObject
	err := s.db.WithContext(ctx).
		Where("bucket = ? AND key = ?", bucket, key).
		Take(&obj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	return obj.Body, nil
}

func (s *DBStore) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	return "", fmt.Errorf("postgres store: %w", ErrPresignUnsupported)
}
