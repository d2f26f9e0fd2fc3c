package template

import (
	"context"
	stdErrors "errors"
	"regexp"
	"strings"

	"template-mailer/internal/errors"
	"template-mailer/internal/storage"

	"go.uber.org/zap"
)

// AnonymousUser keys the overlay of templates created before sign-in.
const AnonymousUser = "anon"

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// OverlayRepository reads and writes overlays and global colors.
type OverlayRepository interface {
	UserKey(userID string) string
	LegacyKey() string
	Load(ctx context.Context, key string) *Overlay
	Save(ctx context.Context, key string, o *Overlay) error
	GlobalColors(ctx context.Context) GlobalColors
}

type ObjectOverlayRepository struct {
	store     storage.ObjectStore
	bucket    string
	baseKey   string
	colorsKey string
	log       *zap.Logger
}

func NewOverlayRepository(store storage.ObjectStore, bucket, baseKey, colorsKey string, log *zap.Logger) *ObjectOverlayRepository {
	return &ObjectOverlayRepository{
		store:     store,
		bucket:    bucket,
		baseKey:   baseKey,
		colorsKey: colorsKey,
		log:       log,
	}
}

// OverlayKey derives the per-user overlay key from the base overlay key:
// "templates_overlay.json" and "a@b.com" give "templates_overlay/a_b.com.json".
// Runs of characters outside [A-Za-z0-9_.-] collapse to a single "_".
func OverlayKey(baseKey, userID string) string {
	if userID == "" {
		userID = AnonymousUser
	}
	safe := unsafeKeyChars.ReplaceAllString(userID, "_")
	return strings.TrimSuffix(baseKey, ".json") + "/" + safe + ".json"
}

func (r *ObjectOverlayRepository) UserKey(userID string) string {
	return OverlayKey(r.baseKey, userID)
}

// LegacyKey is the single shared overlay used before per-user overlays.
func (r *ObjectOverlayRepository) LegacyKey() string {
	return r.baseKey
}

// Load returns the overlay at key. Absent, unreadable and malformed
// overlays all read as empty.
func (r *ObjectOverlayRepository) Load(ctx context.Context, key string) *Overlay {
	o := NewOverlay()
	err := r.store.GetJSON(ctx, r.bucket, key, o)
	if err == nil {
		o.normalize()
		return o
	}
	if !stdErrors.Is(err, storage.ErrObjectNotFound) {
		r.log.Warn("overlay read failed, using empty overlay",
			zap.String("key", key), zap.Error(err))
	}
	return NewOverlay()
}

func (r *ObjectOverlayRepository) Save(ctx context.Context, key string, o *Overlay) error {
	o.normalize()
	if err := r.store.PutJSON(ctx, r.bucket, key, o); err != nil {
		return errors.Storage("failed to save overlay", err)
	}
	return nil
}

// GlobalColors reads the shared color map; failures give an empty map.
func (r *ObjectOverlayRepository) GlobalColors(ctx context.Context) GlobalColors {
	colors := GlobalColors{}
	err := r.store.GetJSON(ctx, r.bucket, r.colorsKey, &colors)
	if err == nil {
		return colors
	}
	if !stdErrors.Is(err, storage.ErrObjectNotFound) {
		r.log.Warn("global colors read failed", zap.String("key", r.colorsKey), zap.Error(err))
	}
	return GlobalColors{}
}
