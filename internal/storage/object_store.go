// Package storage is the object-store client used for overlays, global
// colors and the base dataset. Drivers address objects by bucket and key.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrObjectNotFound       = errors.New("object not found")
	ErrPresignUnsupported   = errors.New("presigned urls are not supported by this driver")
	ErrUnknownStorageDriver = errors.New("unknown storage driver")
)

// ObjectStore provides access to object storage.
type ObjectStore interface {
	// GetJSON decodes the object into v. It returns ErrObjectNotFound when
	// the key is absent or the object is empty.
	GetJSON(ctx context.Context, bucket, key string, v any) error
	PutJSON(ctx context.Context, bucket, key string, v any) error
	GetBytes(ctx context.Context, bucket, key string) ([]byte, error)
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

type bytesGetter interface {
	GetBytes(ctx context.Context, bucket, key string) ([]byte, error)
}

func getJSON(ctx context.Context, g bytesGetter, bucket, key string, v any) error {
	data, err := g.GetBytes(ctx, bucket, key)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return ErrObjectNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", bucket, key, err)
	}
	return nil
}

func encodeJSON(bucket, key string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", bucket, key, err)
	}
	return data, nil
}
