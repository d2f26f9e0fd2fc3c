package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"template-mailer/internal/storage"
)

// URLSource reads the dataset through a short-lived presigned URL instead of
// the storage client, so large files stream over plain HTTP.
type URLSource struct {
	store      storage.ObjectStore
	reader     *Reader
	bucket     string
	key        string
	expiry     time.Duration
	httpClient *http.Client
}

func NewURLSource(store storage.ObjectStore, reader *Reader, bucket, key string, expiry time.Duration) *URLSource {
	return &URLSource{
		store:  store,
		reader: reader,
		bucket: bucket,
		key:    key,
		expiry: expiry,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *URLSource) Load(ctx context.Context) ([]Row, error) {
	defer observe("url", time.Now())

	url, err := s.store.PresignGet(ctx, s.bucket, s.key, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("presign dataset: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []Row{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf(
			"fetch dataset error: status=%d body=%s",
			resp.StatusCode,
			string(b),
		)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if len(data) == 0 {
		return []Row{}, nil
	}
	return s.reader.Decode(bytes.NewReader(data), int64(len(data)))
}
