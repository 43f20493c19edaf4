package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/agencyd/internal/config"
)

func newTestService(t *testing.T, interval time.Duration) (*Service, string) {
	t.Helper()
	location := filepath.Join(t.TempDir(), "store")
	svc, err := NewService(config.StorageConfig{
		Location:       location,
		BackupInterval: interval,
	}, nil)
	require.NoError(t, err)
	return svc, location
}

func TestNewService_AppliesDefaults(t *testing.T) {
	svc, err := NewService(config.StorageConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultStorageLocation, svc.cfg.Location)
	assert.Equal(t, config.DefaultStorageBackupTime, svc.cfg.BackupInterval)
}

func TestNewService_NoIOAtConstruction(t *testing.T) {
	_, location := newTestService(t, time.Hour)
	_, err := os.Stat(location)
	assert.True(t, os.IsNotExist(err), "storage directory must not exist before first write")
}

func TestStore_WritesResultDocument(t *testing.T) {
	svc, location := newTestService(t, time.Hour)

	err := svc.Store(context.Background(), "task-abc", map[string]any{"output": "HELLO"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(location, "results", "task-abc.json"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "task-abc", doc["task_id"])
	assert.NotEmpty(t, doc["stored_at"])
	result, ok := doc["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "HELLO", result["output"])
}

func TestStore_RequiresID(t *testing.T) {
	svc, _ := newTestService(t, time.Hour)
	require.Error(t, svc.Store(context.Background(), "", "result"))
}

func TestStore_SanitizesID(t *testing.T) {
	svc, location := newTestService(t, time.Hour)

	require.NoError(t, svc.Store(context.Background(), "a/b:c", "result"))

	_, err := os.Stat(filepath.Join(location, "results", "a_b_c.json"))
	require.NoError(t, err)
}

func TestStore_BackupAfterInterval(t *testing.T) {
	svc, location := newTestService(t, 10*time.Millisecond)
	ctx := context.Background()

	// First write arms the backup timer without snapshotting.
	require.NoError(t, svc.Store(ctx, "t1", "r1"))
	_, err := os.Stat(filepath.Join(location, "backups"))
	assert.True(t, os.IsNotExist(err))

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, svc.Store(ctx, "t2", "r2"))

	entries, err := os.ReadDir(filepath.Join(location, "backups"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	snapshot, err := os.ReadDir(filepath.Join(location, "backups", entries[0].Name()))
	require.NoError(t, err)
	assert.Len(t, snapshot, 2)
}

func TestStore_NoBackupWithinInterval(t *testing.T) {
	svc, location := newTestService(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, svc.Store(ctx, "t1", "r1"))
	require.NoError(t, svc.Store(ctx, "t2", "r2"))

	_, err := os.Stat(filepath.Join(location, "backups"))
	assert.True(t, os.IsNotExist(err))
}

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, "task-001", sanitizeID("task-001"))
	assert.Equal(t, "a_b_c.json_", sanitizeID("a/b:c.json "))
}
