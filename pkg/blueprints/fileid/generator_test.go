package fileid_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/blueprint-share/pkg/blueprints/fileid"
)

func never(ctx context.Context, id string) (bool, error) { return false, nil }

func TestGenerate_ShapeAndAlphabet(t *testing.T) {
	gen := fileid.New(never, never)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		id, err := gen.Generate(ctx)
		require.NoError(t, err)
		assert.Len(t, id, fileid.Length)
		for _, c := range id {
			assert.True(t, strings.ContainsRune(fileid.Alphabet, c),
				"unexpected character %q in %q", c, id)
		}
	}
}

func TestGenerate_RetriesOnCollision(t *testing.T) {
	collisions := 5
	dbCalls := 0
	dbExists := func(ctx context.Context, id string) (bool, error) {
		dbCalls++
		return dbCalls <= collisions, nil
	}

	gen := fileid.New(dbExists, never)
	id, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Len(t, id, fileid.Length)
	assert.Equal(t, collisions+1, dbCalls)
}

func TestGenerate_FilesystemCollisionAlsoRetries(t *testing.T) {
	fsCalls := 0
	fsExists := func(ctx context.Context, id string) (bool, error) {
		fsCalls++
		return fsCalls == 1, nil
	}

	gen := fileid.New(never, fsExists)
	_, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fsCalls)
}

func TestGenerate_SkipsFilesystemCheckWhenDatabaseCollides(t *testing.T) {
	dbCalls := 0
	dbExists := func(ctx context.Context, id string) (bool, error) {
		dbCalls++
		return dbCalls == 1, nil
	}
	fsCalls := 0
	fsExists := func(ctx context.Context, id string) (bool, error) {
		fsCalls++
		return false, nil
	}

	gen := fileid.New(dbExists, fsExists)
	_, err := gen.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, dbCalls)
	assert.Equal(t, 1, fsCalls)
}

func TestGenerate_Exhausted(t *testing.T) {
	calls := 0
	always := func(ctx context.Context, id string) (bool, error) {
		calls++
		return true, nil
	}

	gen := fileid.New(always, never)
	_, err := gen.Generate(context.Background())
	assert.ErrorIs(t, err, fileid.ErrExhausted)
	assert.Equal(t, fileid.MaxAttempts, calls)
}

func TestGenerate_CheckerErrorStopsImmediately(t *testing.T) {
	boom := errors.New("db down")
	dbExists := func(ctx context.Context, id string) (bool, error) {
		return false, boom
	}

	gen := fileid.New(dbExists, never)
	_, err := gen.Generate(context.Background())
	assert.ErrorIs(t, err, boom)
}
