package db_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/areaelements/internal/annotation"
	"github.com/udisondev/areaelements/internal/areaelement"
	"github.com/udisondev/areaelements/internal/content"
	"github.com/udisondev/areaelements/internal/db"
	"github.com/udisondev/areaelements/internal/testutil"
)

func TestContentRepository_SaveAndLoad(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := db.NewContentRepository(pool)
	ctx := testutil.ContextWithTimeout(t, testutil.DefaultTimeout)

	require.NoError(t, repo.SaveElement(ctx, content.ElementRecord{ID: 2, Opposing: 3, Icon: "light"}))
	require.NoError(t, repo.SaveElement(ctx, content.ElementRecord{ID: 3, Opposing: 2, Icon: "dark"}))
	require.NoError(t, repo.SaveElement(ctx, content.ElementRecord{ID: 1, Icon: "fire"}))

	require.NoError(t, repo.SaveAction(ctx, content.ActionRecord{
		ID: "holy_ray", Element: 2, Power: 150,
		Area: annotation.Raw{Requires: "2,2", Costs: "2"},
	}))
	require.NoError(t, repo.SaveTrait(ctx, content.TraitRecord{
		ID: "flame_ring", Area: annotation.Raw{Add: "1", Versus: true, SuppressTraits: true},
	}))

	elements, err := repo.LoadElements(ctx)
	require.NoError(t, err)
	require.Len(t, elements, 3)
	assert.Equal(t, int32(1), elements[0].ID, "ordered by id")

	// Повторное сохранение обновляет строку
	require.NoError(t, repo.SaveElement(ctx, content.ElementRecord{ID: 1, Icon: "flame"}))
	elements, err = repo.LoadElements(ctx)
	require.NoError(t, err)
	assert.Equal(t, "flame", elements[0].Icon)

	cat, err := repo.LoadCatalog(ctx)
	require.NoError(t, err)

	holy, ok := cat.Action("holy_ray")
	require.True(t, ok)
	assert.Equal(t, 150, holy.Power)
	assert.Equal(t, []areaelement.Token{2, 2}, holy.Area.Requires)

	ring, ok := cat.Trait("flame_ring")
	require.True(t, ok)
	assert.Equal(t, []areaelement.Token{1}, ring.Area.Add)
	assert.True(t, ring.Area.Versus)
	assert.True(t, ring.Area.SuppressTraits)
}

func TestContentRepository_ImportMatchesFile(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := db.NewContentRepository(pool)
	ctx := testutil.ContextWithTimeout(t, testutil.DefaultTimeout)

	data, err := os.ReadFile("../content/testdata/content.yaml")
	require.NoError(t, err)
	f, err := content.Decode(data)
	require.NoError(t, err)

	require.NoError(t, repo.Import(ctx, f))

	fromDB, err := repo.LoadCatalog(ctx)
	require.NoError(t, err)
	fromFile, err := content.Load(data)
	require.NoError(t, err)

	assert.Equal(t, fromFile.Digest, fromDB.Digest)
	assert.Equal(t, len(fromFile.Actions), len(fromDB.Actions))
}

func TestContentRepository_InvalidContentRejected(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := db.NewContentRepository(pool)
	ctx := testutil.ContextWithTimeout(t, testutil.DefaultTimeout)

	require.NoError(t, repo.SaveElement(ctx, content.ElementRecord{ID: 1}))
	require.NoError(t, repo.SaveAction(ctx, content.ActionRecord{
		ID: "broken", Area: annotation.Raw{Add: "1,,x"},
	}))

	_, err := repo.LoadCatalog(ctx)
	assert.Error(t, err)
}

func TestContentRepository_TraitWithGateRejected(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := db.NewContentRepository(pool)
	ctx := testutil.ContextWithTimeout(t, testutil.DefaultTimeout)

	err := repo.SaveTrait(ctx, content.TraitRecord{
		ID: "greedy_ring", Area: annotation.Raw{Costs: "1"},
	})
	assert.ErrorIs(t, err, annotation.ErrTraitGate)
}
