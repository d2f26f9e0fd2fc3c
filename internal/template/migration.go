package template

import (
	"context"

	"template-mailer/internal/metrics"

	"go.uber.org/zap"
)

// MigrationResult counts the personal templates moved into the user's
// overlay by one run.
type MigrationResult struct {
	FromAnonymous int
	FromLegacy    int
}

// Migrator drains templates created anonymously or under the old shared
// overlay into the signed-in user's overlay.
type Migrator struct {
	repo OverlayRepository
	log  *zap.Logger
}

func NewMigrator(repo OverlayRepository, log *zap.Logger) *Migrator {
	return &Migrator{repo: repo, log: log}
}

// Run drains the anonymous overlay, then the legacy overlay, into overlay,
// which must be the current content of the user's own key. overlay is
// updated in place. A crash between the two writes of one source can
// duplicate entries on the next run.
func (m *Migrator) Run(ctx context.Context, userID string, overlay *Overlay) (MigrationResult, error) {
	var res MigrationResult
	userKey := m.repo.UserKey(userID)

	n, err := m.drain(ctx, userID, userKey, overlay, m.repo.UserKey(AnonymousUser), "anonymous")
	if err != nil {
		return res, err
	}
	res.FromAnonymous = n

	n, err = m.drain(ctx, userID, userKey, overlay, m.repo.LegacyKey(), "legacy")
	if err != nil {
		return res, err
	}
	res.FromLegacy = n
	return res, nil
}

func (m *Migrator) drain(ctx context.Context, userID, userKey string, overlay *Overlay, sourceKey, source string) (int, error) {
	if sourceKey == userKey {
		return 0, nil
	}
	src := m.repo.Load(ctx, sourceKey)
	if len(src.Additions) == 0 {
		return 0, nil
	}

	overlay.normalize()
	for _, t := range src.Additions {
		t.Owner = &userID
		overlay.Additions = append(overlay.Additions, t)
		// a migrated id is personal now; base overrides no longer apply
		overlay.pruneUpdates(t.ID)
		overlay.pruneDeletions(t.ID)
	}
	if err := m.repo.Save(ctx, userKey, overlay); err != nil {
		return 0, err
	}

	n := len(src.Additions)
	src.Additions = []Template{}
	if err := m.repo.Save(ctx, sourceKey, src); err != nil {
		return 0, err
	}

	m.log.Info("migrated personal templates",
		zap.String("source", source),
		zap.String("user", userID),
		zap.Int("count", n))
	metrics.OverlayEntriesMigrated.WithLabelValues(source).Add(float64(n))
	return n, nil
}
