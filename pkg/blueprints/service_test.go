package blueprints_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/blueprint-share/pkg/blueprints"
	repomemory "github.com/tendant/blueprint-share/pkg/blueprints/repo/memory"
	memorystorage "github.com/tendant/blueprint-share/pkg/blueprints/storage/memory"
)

const validContent = "Begin Object Class=/Script/BlueprintGraph.K2Node_CallFunction\nEnd Object"

type fixture struct {
	svc   blueprints.Service
	repo  blueprints.Repository
	blobs blueprints.BlobStore
	now   time.Time
}

func newFixture(t *testing.T, opts ...blueprints.Option) *fixture {
	t.Helper()

	f := &fixture{
		repo:  repomemory.New(),
		blobs: memorystorage.New(),
		now:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	options := []blueprints.Option{
		blueprints.WithRepository(f.repo),
		blueprints.WithBlobStore(f.blobs),
		blueprints.WithClock(func() time.Time { return f.now }),
	}
	options = append(options, opts...)

	svc, err := blueprints.New(options...)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) create(t *testing.T, req blueprints.CreateBlueprintRequest) *blueprints.CreateBlueprintResult {
	t.Helper()
	if req.Title == "" {
		req.Title = "Test Blueprint"
	}
	if req.Content == "" {
		req.Content = validContent
	}
	if req.Exposure == "" {
		req.Exposure = blueprints.ExposurePublic
	}
	result, err := f.svc.CreateBlueprint(context.Background(), req)
	require.NoError(t, err)
	return result
}

func TestNew_RequiresRepositoryAndBlobStore(t *testing.T) {
	_, err := blueprints.New()
	assert.Error(t, err)

	_, err = blueprints.New(blueprints.WithRepository(repomemory.New()))
	assert.Error(t, err)

	_, err = blueprints.New(
		blueprints.WithRepository(repomemory.New()),
		blueprints.WithBlobStore(memorystorage.New()),
	)
	assert.NoError(t, err)
}

func TestCreateBlueprint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.svc.CreateBlueprint(ctx, blueprints.CreateBlueprintRequest{
		Title:    "My First Graph",
		Content:  validContent,
		Exposure: blueprints.ExposurePublic,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Len(t, result.Slug, 8)

	bp, err := f.svc.GetBlueprint(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Slug, bp.Slug)
	assert.Equal(t, result.Slug, bp.FileID)
	assert.Equal(t, "My First Graph", bp.Title)
	assert.Equal(t, blueprints.TypeBlueprint, bp.Type)
	assert.Equal(t, 1, bp.CurrentVersion)
	assert.Nil(t, bp.Expiration)
	require.NotNil(t, bp.PublishedAt)

	versions, err := f.svc.ListVersions(ctx, result.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, 1, versions[0].Version)
	assert.Equal(t, "First commit", versions[0].Reason)

	content, err := f.svc.GetBlueprintContent(ctx, result.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, validContent, content)
}

func TestCreateBlueprint_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("content must start with begin", func(t *testing.T) {
		_, err := f.svc.CreateBlueprint(ctx, blueprints.CreateBlueprintRequest{
			Title:    "Bad",
			Content:  "End Object",
			Exposure: blueprints.ExposurePublic,
		})
		assert.ErrorIs(t, err, blueprints.ErrInvalidBlueprint)
	})

	t.Run("exposure must be known", func(t *testing.T) {
		_, err := f.svc.CreateBlueprint(ctx, blueprints.CreateBlueprintRequest{
			Title:    "Bad",
			Content:  validContent,
			Exposure: "everyone",
		})
		assert.ErrorIs(t, err, blueprints.ErrInvalidExposure)
	})

	t.Run("expiration delta must be known", func(t *testing.T) {
		_, err := f.svc.CreateBlueprint(ctx, blueprints.CreateBlueprintRequest{
			Title:      "Bad",
			Content:    validContent,
			Exposure:   blueprints.ExposurePublic,
			Expiration: "2h",
		})
		assert.ErrorIs(t, err, blueprints.ErrInvalidExpiration)
	})
}

func TestCreateBlueprint_Expiration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		delta    string
		expected time.Duration
	}{
		{"1h", time.Hour},
		{"1d", 24 * time.Hour},
		{"1w", 7 * 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.delta, func(t *testing.T) {
			result := f.create(t, blueprints.CreateBlueprintRequest{Expiration: tt.delta})

			bp, err := f.svc.GetBlueprint(ctx, result.ID)
			require.NoError(t, err)
			require.NotNil(t, bp.Expiration)
			assert.Equal(t, f.now.Add(tt.expected), *bp.Expiration)
		})
	}

	t.Run("never", func(t *testing.T) {
		result := f.create(t, blueprints.CreateBlueprintRequest{Expiration: "never"})

		bp, err := f.svc.GetBlueprint(ctx, result.ID)
		require.NoError(t, err)
		assert.Nil(t, bp.Expiration)
	})
}

func TestAddVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	result := f.create(t, blueprints.CreateBlueprintRequest{})

	v2 := "Begin Object Class=Updated\nEnd Object"
	err := f.svc.AddVersion(ctx, blueprints.AddVersionRequest{
		BlueprintID: result.ID,
		Content:     v2,
		Reason:      "Fixed pin connections",
	})
	require.NoError(t, err)

	bp, err := f.svc.GetBlueprint(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, bp.CurrentVersion)

	versions, err := f.svc.ListVersions(ctx, result.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	// Most recent first.
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, "Fixed pin connections", versions[0].Reason)
	assert.Equal(t, 1, versions[1].Version)

	// Both blobs stay readable independently.
	content, err := f.svc.GetBlueprintContent(ctx, result.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, validContent, content)
	content, err = f.svc.GetBlueprintContent(ctx, result.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, v2, content)
}

func TestAddVersion_InvalidContent(t *testing.T) {
	f := newFixture(t)
	result := f.create(t, blueprints.CreateBlueprintRequest{})

	err := f.svc.AddVersion(context.Background(), blueprints.AddVersionRequest{
		BlueprintID: result.ID,
		Content:     "not a graph",
	})
	assert.ErrorIs(t, err, blueprints.ErrInvalidBlueprint)
}

func TestAddVersion_UnknownBlueprint(t *testing.T) {
	f := newFixture(t)

	err := f.svc.AddVersion(context.Background(), blueprints.AddVersionRequest{
		BlueprintID: 999,
		Content:     validContent,
	})
	assert.ErrorIs(t, err, blueprints.ErrBlueprintNotFound)
	assert.Equal(t, "#100", blueprints.StepCode(err))
}

// failingBlobStore fails Put for one specific version.
type failingBlobStore struct {
	blueprints.BlobStore
	failVersion int
}

func (f *failingBlobStore) Put(ctx context.Context, fileID string, version int, content string) error {
	if version == f.failVersion {
		return errors.New("disk full")
	}
	return f.BlobStore.Put(ctx, fileID, version, content)
}

func TestAddVersion_BlobFailureRollsBackLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	result := f.create(t, blueprints.CreateBlueprintRequest{})

	// Swap in a store that fails the second version's write.
	broken := &failingBlobStore{BlobStore: f.blobs, failVersion: 2}
	svc, err := blueprints.New(
		blueprints.WithRepository(f.repo),
		blueprints.WithBlobStore(broken),
		blueprints.WithClock(func() time.Time { return f.now }),
	)
	require.NoError(t, err)

	err = svc.AddVersion(ctx, blueprints.AddVersionRequest{
		BlueprintID: result.ID,
		Content:     validContent,
	})
	require.Error(t, err)
	assert.Equal(t, "#400", blueprints.StepCode(err))

	// The ledger insert rolled back with the transaction.
	versions, err := f.svc.ListVersions(ctx, result.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)

	bp, err := f.svc.GetBlueprint(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, bp.CurrentVersion)
}

// failingRepo fails one repository method while delegating the rest,
// including inside transactions.
type failingRepo struct {
	blueprints.Repository
	failCreateVersion bool
}

func (f *failingRepo) WithTx(ctx context.Context, fn func(blueprints.Repository) error) error {
	return f.Repository.WithTx(ctx, func(tx blueprints.Repository) error {
		return fn(&failingRepo{Repository: tx, failCreateVersion: f.failCreateVersion})
	})
}

func (f *failingRepo) CreateVersion(ctx context.Context, v *blueprints.BlueprintVersion) (int64, error) {
	if f.failCreateVersion {
		return 0, errors.New("insert failed")
	}
	return f.Repository.CreateVersion(ctx, v)
}

func TestCreateBlueprint_VersionInsertFailureRollsBackEverything(t *testing.T) {
	repo := repomemory.New()
	blobs := memorystorage.New()
	svc, err := blueprints.New(
		blueprints.WithRepository(&failingRepo{Repository: repo, failCreateVersion: true}),
		blueprints.WithBlobStore(blobs),
	)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.CreateBlueprint(ctx, blueprints.CreateBlueprintRequest{
		Title:    "Doomed",
		Content:  validContent,
		Exposure: blueprints.ExposurePublic,
	})
	require.Error(t, err)
	assert.Equal(t, "#300", blueprints.StepCode(err))

	// Neither the main row nor any version survived the rollback.
	page, err := repo.SearchBlueprints(ctx, blueprints.BlueprintFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestDeleteVersion(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*fixture, *blueprints.CreateBlueprintResult) {
		f := newFixture(t)
		result := f.create(t, blueprints.CreateBlueprintRequest{})
		for i := 2; i <= 3; i++ {
			require.NoError(t, f.svc.AddVersion(ctx, blueprints.AddVersionRequest{
				BlueprintID: result.ID,
				Content:     validContent,
			}))
		}
		return f, result
	}

	t.Run("sole version is refused", func(t *testing.T) {
		f := newFixture(t)
		result := f.create(t, blueprints.CreateBlueprintRequest{})

		err := f.svc.DeleteVersion(ctx, result.ID, 1)
		assert.ErrorIs(t, err, blueprints.ErrSoleVersion)
	})

	t.Run("unknown version", func(t *testing.T) {
		f, result := setup(t)

		err := f.svc.DeleteVersion(ctx, result.ID, 9)
		assert.ErrorIs(t, err, blueprints.ErrVersionNotFound)
	})

	t.Run("deleting the current version falls back to the next most recent", func(t *testing.T) {
		f, result := setup(t)

		require.NoError(t, f.svc.DeleteVersion(ctx, result.ID, 3))

		bp, err := f.svc.GetBlueprint(ctx, result.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, bp.CurrentVersion)

		// The blob for the deleted version is gone.
		_, err = f.svc.GetBlueprintContent(ctx, result.ID, 3)
		assert.ErrorIs(t, err, blueprints.ErrBlobNotFound)
	})

	t.Run("deleting an older version keeps the current one", func(t *testing.T) {
		f, result := setup(t)

		require.NoError(t, f.svc.DeleteVersion(ctx, result.ID, 1))

		bp, err := f.svc.GetBlueprint(ctx, result.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, bp.CurrentVersion)

		versions, err := f.svc.ListVersions(ctx, result.ID)
		require.NoError(t, err)
		assert.Len(t, versions, 2)
	})

	t.Run("deleting a non-current most recent version keeps the current pointer", func(t *testing.T) {
		f, result := setup(t)

		// Move the pointer down, then delete the most recent entry.
		require.NoError(t, f.svc.DeleteVersion(ctx, result.ID, 3))
		require.NoError(t, f.svc.DeleteVersion(ctx, result.ID, 1))

		bp, err := f.svc.GetBlueprint(ctx, result.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, bp.CurrentVersion)
	})
}

func TestDeleteBlueprint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	result := f.create(t, blueprints.CreateBlueprintRequest{})
	require.NoError(t, f.svc.AddVersion(ctx, blueprints.AddVersionRequest{
		BlueprintID: result.ID,
		Content:     validContent,
	}))

	require.NoError(t, f.svc.DeleteBlueprint(ctx, result.ID))

	_, err := f.svc.GetBlueprint(ctx, result.ID)
	assert.ErrorIs(t, err, blueprints.ErrBlueprintNotFound)

	versions, err := f.svc.ListVersions(ctx, result.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)

	// Every blob is gone; the fileID becomes available again.
	exists, err := f.blobs.Exists(ctx, result.Slug)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSoftDeleteBlueprint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	result := f.create(t, blueprints.CreateBlueprintRequest{})

	require.NoError(t, f.svc.SoftDeleteBlueprint(ctx, result.ID))

	_, err := f.svc.GetBlueprint(ctx, result.ID)
	assert.ErrorIs(t, err, blueprints.ErrBlueprintNotFound)

	// Soft-deleted rows still reserve their fileID.
	available, err := f.repo.IsFileIDAvailable(ctx, result.Slug)
	require.NoError(t, err)
	assert.False(t, available)
}

func TestGetBlueprintContent_ExplicitVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	result := f.create(t, blueprints.CreateBlueprintRequest{})

	_, err := f.svc.GetBlueprintContent(ctx, result.ID, 5)
	assert.ErrorIs(t, err, blueprints.ErrBlobNotFound)
}

func TestUpdateProperties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	result := f.create(t, blueprints.CreateBlueprintRequest{})

	err := f.svc.UpdateProperties(ctx, result.ID, blueprints.UpdatePropertiesRequest{
		Exposure:       blueprints.ExposureUnlisted,
		Expiration:     "1d",
		UEVersion:      "5.4",
		CommentsClosed: true,
	})
	require.NoError(t, err)

	bp, err := f.svc.GetBlueprint(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, blueprints.ExposureUnlisted, bp.Exposure)
	assert.Equal(t, "5.4", bp.UEVersion)
	assert.True(t, bp.CommentsClosed)
	require.NotNil(t, bp.Expiration)
	assert.Equal(t, f.now.Add(24*time.Hour), *bp.Expiration)
}

func TestUpdateInformations_NormalizesVideo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	result := f.create(t, blueprints.CreateBlueprintRequest{})

	err := f.svc.UpdateInformations(ctx, result.ID, blueprints.UpdateInformationsRequest{
		Title:       "Renamed",
		Description: "A better description",
		Tags:        "ai,combat",
		VideoURL:    "https://youtu.be/dQw4w9WgXcQ",
	})
	require.NoError(t, err)

	bp, err := f.svc.GetBlueprint(ctx, result.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", bp.Title)
	assert.Equal(t, "//www.youtube.com/embed/dQw4w9WgXcQ", bp.Video)
	assert.Equal(t, "youtube", bp.VideoProvider)
}

func TestClaimBlueprintAndIsAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	result := f.create(t, blueprints.CreateBlueprintRequest{})

	isAuthor, err := f.svc.IsAuthor(ctx, result.ID, 42)
	require.NoError(t, err)
	assert.False(t, isAuthor)

	require.NoError(t, f.svc.ClaimBlueprint(ctx, result.ID, 42))

	isAuthor, err = f.svc.IsAuthor(ctx, result.ID, 42)
	require.NoError(t, err)
	assert.True(t, isAuthor)

	isAuthor, err = f.svc.IsAuthor(ctx, result.ID, 43)
	require.NoError(t, err)
	assert.False(t, isAuthor)
}

func TestSearchBlueprints_Visibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := int64(7)

	f.create(t, blueprints.CreateBlueprintRequest{Title: "Public", Exposure: blueprints.ExposurePublic})
	f.create(t, blueprints.CreateBlueprintRequest{Title: "Hidden", Exposure: blueprints.ExposurePrivate, IDAuthor: &author})
	f.create(t, blueprints.CreateBlueprintRequest{Title: "Linked", Exposure: blueprints.ExposureUnlisted, IDAuthor: &author})

	page, err := f.svc.SearchBlueprints(ctx, blueprints.BlueprintFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	page, err = f.svc.SearchBlueprints(ctx, blueprints.BlueprintFilter{ConnectedUserID: &author})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
}
