package template

import (
	"context"
	"testing"

	"template-mailer/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const me = "me@example.com"

func seed(t *testing.T, repo *ObjectOverlayRepository, key string, o *Overlay) {
	t.Helper()
	require.NoError(t, repo.Save(context.Background(), key, o))
}

func TestMigrator_DrainsAnonymousAndLegacy(t *testing.T) {
	store := newFlakyStore()
	repo := newTestRepo(store)
	ctx := context.Background()

	seed(t, repo, repo.UserKey(AnonymousUser), &Overlay{
		Additions: []Template{{ID: 10, Name: "anon"}},
		Deletions: []TemplateID{4},
	})
	seed(t, repo, repo.LegacyKey(), &Overlay{Additions: []Template{{ID: 20, Name: "legacy"}}})
	seed(t, repo, repo.UserKey(me), &Overlay{
		Additions: []Template{{ID: 1, Name: "mine"}},
		Deletions: []TemplateID{10, 3},
		Updates:   []ColorUpdate{{ID: 10, Color: strPtr("red")}},
	})

	overlay := repo.Load(ctx, repo.UserKey(me))
	res, err := NewMigrator(repo, zap.NewNop()).Run(ctx, me, overlay)
	require.NoError(t, err)
	assert.Equal(t, MigrationResult{FromAnonymous: 1, FromLegacy: 1}, res)

	assert.Equal(t, []TemplateID{1, 10, 20}, ids(overlay.Additions))
	for _, a := range overlay.Additions[1:] {
		require.NotNil(t, a.Owner)
		assert.Equal(t, me, *a.Owner)
	}
	assert.Empty(t, overlay.Updates, "migrated ids are personal")
	assert.Equal(t, []TemplateID{3}, overlay.Deletions, "a migrated id is no longer hidden")

	stored := repo.Load(ctx, repo.UserKey(me))
	assert.Equal(t, ids(overlay.Additions), ids(stored.Additions))
	assert.Equal(t, []TemplateID{3}, stored.Deletions)

	anon := repo.Load(ctx, repo.UserKey(AnonymousUser))
	assert.Empty(t, anon.Additions)
	assert.Equal(t, []TemplateID{4}, anon.Deletions, "other fields are kept")
	assert.Empty(t, repo.Load(ctx, repo.LegacyKey()).Additions)
}

func TestMigrator_UserWriteHappensBeforeSourceIsEmptied(t *testing.T) {
	store := newFlakyStore()
	repo := newTestRepo(store)
	seed(t, repo, repo.UserKey(AnonymousUser), &Overlay{Additions: []Template{{ID: 10}}})
	store.puts = nil

	_, err := NewMigrator(repo, zap.NewNop()).Run(context.Background(), me, NewOverlay())
	require.NoError(t, err)
	assert.Equal(t, []string{repo.UserKey(me), repo.UserKey(AnonymousUser)}, store.puts)
}

func TestMigrator_Idempotent(t *testing.T) {
	store := newFlakyStore()
	repo := newTestRepo(store)
	ctx := context.Background()
	seed(t, repo, repo.UserKey(AnonymousUser), &Overlay{Additions: []Template{{ID: 10}}})
	seed(t, repo, repo.LegacyKey(), &Overlay{Additions: []Template{{ID: 20}}})
	m := NewMigrator(repo, zap.NewNop())

	first := repo.Load(ctx, repo.UserKey(me))
	_, err := m.Run(ctx, me, first)
	require.NoError(t, err)

	store.puts = nil
	second := repo.Load(ctx, repo.UserKey(me))
	res, err := m.Run(ctx, me, second)
	require.NoError(t, err)

	assert.Equal(t, MigrationResult{}, res)
	assert.Empty(t, store.puts)
	assert.Equal(t, ids(first.Additions), ids(second.Additions))
}

func TestMigrator_LegacyRunsWhenAnonymousIsEmpty(t *testing.T) {
	repo := newTestRepo(newFlakyStore())
	seed(t, repo, repo.LegacyKey(), &Overlay{Additions: []Template{{ID: 20}}})

	overlay := NewOverlay()
	res, err := NewMigrator(repo, zap.NewNop()).Run(context.Background(), me, overlay)
	require.NoError(t, err)
	assert.Equal(t, MigrationResult{FromLegacy: 1}, res)
	assert.Equal(t, []TemplateID{20}, ids(overlay.Additions))
}

func TestMigrator_AnonymousUserDoesNotDrainItself(t *testing.T) {
	store := newFlakyStore()
	repo := newTestRepo(store)
	seed(t, repo, repo.UserKey(AnonymousUser), &Overlay{Additions: []Template{{ID: 10}}})

	overlay := repo.Load(context.Background(), repo.UserKey(AnonymousUser))
	res, err := NewMigrator(repo, zap.NewNop()).Run(context.Background(), AnonymousUser, overlay)
	require.NoError(t, err)
	assert.Zero(t, res.FromAnonymous)
	assert.Equal(t, []TemplateID{10}, ids(repo.Load(context.Background(), repo.UserKey(AnonymousUser)).Additions))
}

func TestMigrator_WriteFailureSurfaces(t *testing.T) {
	store := newFlakyStore()
	repo := newTestRepo(store)
	seed(t, repo, repo.UserKey(AnonymousUser), &Overlay{Additions: []Template{{ID: 10}}})
	store.failPut[repo.UserKey(me)] = true

	_, err := NewMigrator(repo, zap.NewNop()).Run(context.Background(), me, NewOverlay())
	assert.ErrorIs(t, err, errors.ErrStorage)
	// source keeps its entries for the next attempt
	assert.Len(t, repo.Load(context.Background(), repo.UserKey(AnonymousUser)).Additions, 1)
}
