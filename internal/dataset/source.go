package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"template-mailer/internal/metrics"
	"template-mailer/internal/storage"
)

// ErrUnknownSource is returned by NewSource for an unsupported DATASET_SOURCE.
var ErrUnknownSource = errors.New("unknown dataset source")

// Source loads the base template rows. An absent dataset yields an empty
// slice and no error; a dataset that exists but cannot be decoded is an
// error.
type Source interface {
	Load(ctx context.Context) ([]Row, error)
}

// BufferSource downloads the whole parquet object through the store.
type BufferSource struct {
	store  storage.ObjectStore
	reader *Reader
	bucket string
	key    string
}

func NewBufferSource(store storage.ObjectStore, reader *Reader, bucket, key string) *BufferSource {
	return &BufferSource{store: store, reader: reader, bucket: bucket, key: key}
}

func (s *BufferSource) Load(ctx context.Context) ([]Row, error) {
	defer observe("buffer", time.Now())

	data, err := s.store.GetBytes(ctx, s.bucket, s.key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	if len(data) == 0 {
		return []Row{}, nil
	}
	return s.reader.DecodeBytes(data)
}

// NewSource picks the source for DATASET_SOURCE ("buffer" or "url").
func NewSource(kind string, store storage.ObjectStore, reader *Reader, bucket, key string, expiry time.Duration) (Source, error) {
	switch kind {
	case "", "buffer":
		return NewBufferSource(store, reader, bucket, key), nil
	case "url":
		return NewURLSource(store, reader, bucket, key, expiry), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, kind)
	}
}

func observe(source string, start time.Time) {
	metrics.DatasetLoadDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}
