package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/agencyd/internal/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(config.MemoryConfig{
		Path:       filepath.Join(t.TempDir(), "mem"),
		VectorSize: 32,
	}, nil)
	require.NoError(t, err)
	return store
}

func TestNewStore_AppliesDefaults(t *testing.T) {
	store, err := NewStore(config.MemoryConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultPath, store.cfg.Path)
	assert.Equal(t, defaultCollection, store.cfg.Collection)
	assert.Equal(t, defaultVectorSize, store.cfg.VectorSize)
	assert.Equal(t, defaultRecallLimit, store.cfg.RecallLimit)
}

func TestNewStore_RejectsNegativeVectorSize(t *testing.T) {
	_, err := NewStore(config.MemoryConfig{VectorSize: -1}, nil)
	require.Error(t, err)
}

func TestNewStore_NoIOAtConstruction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lazy")
	_, err := NewStore(config.MemoryConfig{Path: path}, nil)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "store directory must not exist before first use")
}

func TestStore_RememberAndRecall(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Remember(ctx, "m1", "deploy pipeline failed on staging", nil))
	require.NoError(t, store.Remember(ctx, "m2", "grocery list apples and pears", nil))

	recalls, err := store.Recall(ctx, "staging pipeline deploy", 2)
	require.NoError(t, err)
	require.NotEmpty(t, recalls)
	assert.Equal(t, "m1", recalls[0].ID)
	assert.Equal(t, 2, store.Size())
}

func TestStore_RecallEmptyStore(t *testing.T) {
	store := newTestStore(t)

	recalls, err := store.Recall(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, recalls)
}

func TestStore_RecallClampsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Remember(ctx, "m1", "only entry", nil))

	recalls, err := store.Recall(ctx, "entry", 10)
	require.NoError(t, err)
	assert.Len(t, recalls, 1)
}

func TestStore_RememberValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.Remember(ctx, "", "content", nil))
	assert.Error(t, store.Remember(ctx, "id", "", nil))
}

func TestHashEmbedding_Deterministic(t *testing.T) {
	embed := hashEmbedding(16)
	ctx := context.Background()

	a, err := embed(ctx, "same text input")
	require.NoError(t, err)
	b, err := embed(ctx, "same text input")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := embed(ctx, "different words entirely")
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestHashEmbedding_EmptyInputIsUnitVector(t *testing.T) {
	embed := hashEmbedding(8)
	vec, err := embed(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, float32(1), vec[0])
}
