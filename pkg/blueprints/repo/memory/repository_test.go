package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/blueprint-share/pkg/blueprints"
	"github.com/tendant/blueprint-share/pkg/blueprints/repo/memory"
)

func newBlueprint(fileID string) *blueprints.Blueprint {
	return &blueprints.Blueprint{
		Slug:           fileID,
		FileID:         fileID,
		Title:          "Test Blueprint",
		Type:           blueprints.TypeBlueprint,
		Exposure:       blueprints.ExposurePublic,
		CurrentVersion: 1,
		CreatedAt:      time.Now(),
	}
}

func TestBlueprintOperations(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		id, err := repo.CreateBlueprint(ctx, newBlueprint("abcd1234"))
		require.NoError(t, err)
		assert.Positive(t, id)

		bp, err := repo.GetBlueprint(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "abcd1234", bp.FileID)
	})

	t.Run("GetBySlug", func(t *testing.T) {
		bp, err := repo.GetBlueprintBySlug(ctx, "abcd1234")
		require.NoError(t, err)
		assert.Equal(t, "abcd1234", bp.Slug)

		_, err = repo.GetBlueprintBySlug(ctx, "missing1")
		assert.ErrorIs(t, err, blueprints.ErrBlueprintNotFound)
	})

	t.Run("ReturnsCopies", func(t *testing.T) {
		bp, err := repo.GetBlueprintBySlug(ctx, "abcd1234")
		require.NoError(t, err)
		bp.Title = "mutated"

		again, err := repo.GetBlueprintBySlug(ctx, "abcd1234")
		require.NoError(t, err)
		assert.Equal(t, "Test Blueprint", again.Title)
	})

	t.Run("FileIDAvailability", func(t *testing.T) {
		available, err := repo.IsFileIDAvailable(ctx, "abcd1234")
		require.NoError(t, err)
		assert.False(t, available)

		// Case-insensitive reservation.
		available, err = repo.IsFileIDAvailable(ctx, "ABCD1234")
		require.NoError(t, err)
		assert.False(t, available)

		available, err = repo.IsFileIDAvailable(ctx, "fresh-id")
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		_, err := repo.GetBlueprint(ctx, 999)
		assert.ErrorIs(t, err, blueprints.ErrBlueprintNotFound)
	})
}

func TestVersionOperations(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	id, err := repo.CreateBlueprint(ctx, newBlueprint("abcd1234"))
	require.NoError(t, err)

	t.Run("NextVersionStartsAtOne", func(t *testing.T) {
		next, err := repo.NextVersion(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1, next)
	})

	t.Run("ListDescending", func(t *testing.T) {
		for v := 1; v <= 3; v++ {
			_, err := repo.CreateVersion(ctx, &blueprints.BlueprintVersion{
				BlueprintID: id,
				Version:     v,
				CreatedAt:   time.Now(),
			})
			require.NoError(t, err)
		}

		versions, err := repo.ListVersions(ctx, id)
		require.NoError(t, err)
		require.Len(t, versions, 3)
		assert.Equal(t, 3, versions[0].Version)
		assert.Equal(t, 2, versions[1].Version)
		assert.Equal(t, 1, versions[2].Version)

		next, err := repo.NextVersion(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 4, next)
	})

	t.Run("DeleteVersion", func(t *testing.T) {
		require.NoError(t, repo.DeleteVersion(ctx, id, 2))

		err := repo.DeleteVersion(ctx, id, 2)
		assert.ErrorIs(t, err, blueprints.ErrVersionNotFound)

		// Numbers are never reused: next stays above the historical max.
		next, err := repo.NextVersion(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 4, next)
	})
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("CommitPublishesChanges", func(t *testing.T) {
		repo := memory.New()

		err := repo.WithTx(ctx, func(tx blueprints.Repository) error {
			_, err := tx.CreateBlueprint(ctx, newBlueprint("abcd1234"))
			return err
		})
		require.NoError(t, err)

		_, err = repo.GetBlueprintBySlug(ctx, "abcd1234")
		assert.NoError(t, err)
	})

	t.Run("ErrorRollsBackEverything", func(t *testing.T) {
		repo := memory.New()
		boom := errors.New("boom")

		err := repo.WithTx(ctx, func(tx blueprints.Repository) error {
			id, err := tx.CreateBlueprint(ctx, newBlueprint("abcd1234"))
			if err != nil {
				return err
			}
			if _, err := tx.CreateVersion(ctx, &blueprints.BlueprintVersion{BlueprintID: id, Version: 1}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = repo.GetBlueprintBySlug(ctx, "abcd1234")
		assert.ErrorIs(t, err, blueprints.ErrBlueprintNotFound)

		available, err := repo.IsFileIDAvailable(ctx, "abcd1234")
		require.NoError(t, err)
		assert.True(t, available)
	})
}

func TestSearchBlueprints(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	author := int64(1)

	pub := newBlueprint("public01")
	pub.Title = "Pathfinding AI"
	_, err := repo.CreateBlueprint(ctx, pub)
	require.NoError(t, err)

	priv := newBlueprint("private1")
	priv.Exposure = blueprints.ExposurePrivate
	priv.IDAuthor = &author
	_, err = repo.CreateBlueprint(ctx, priv)
	require.NoError(t, err)

	expired := newBlueprint("expired1")
	past := time.Now().Add(-time.Hour)
	expired.Expiration = &past
	_, err = repo.CreateBlueprint(ctx, expired)
	require.NoError(t, err)

	t.Run("AnonymousSeesOnlyLivePublic", func(t *testing.T) {
		page, err := repo.SearchBlueprints(ctx, blueprints.BlueprintFilter{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		require.Len(t, page.Rows, 1)
		assert.Equal(t, "public01", page.Rows[0].FileID)
	})

	t.Run("AuthorSeesOwnPrivate", func(t *testing.T) {
		page, err := repo.SearchBlueprints(ctx, blueprints.BlueprintFilter{ConnectedUserID: &author})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
	})

	t.Run("QueryFiltersTitle", func(t *testing.T) {
		page, err := repo.SearchBlueprints(ctx, blueprints.BlueprintFilter{Query: "pathfinding"})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})

	t.Run("Pagination", func(t *testing.T) {
		page, err := repo.SearchBlueprints(ctx, blueprints.BlueprintFilter{Page: 2, PerPage: 1, ConnectedUserID: &author})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		assert.Len(t, page.Rows, 1)
	})
}
