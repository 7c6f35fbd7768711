package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalArchiveSaveOpenDeleteRoundTrip(t *testing.T) {
	archive, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	name := "ingest/2025-06-01T120000Z/batch.json"
	payload := []byte(`[{"external_id":"os_1"}]`)

	path, err := archive.Save(ctx, name, payload)
	require.NoError(t, err)
	assert.Equal(t, name, path)

	got, err := archive.Open(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	require.NoError(t, archive.Delete(ctx, name))

	_, err = archive.Open(ctx, name)
	assert.ErrorContains(t, err, "artifact not found")
}

func TestLocalArchiveSaveOverwrites(t *testing.T) {
	archive, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	name := "ingest/run/batch.json"

	_, err = archive.Save(ctx, name, []byte("first"))
	require.NoError(t, err)
	_, err = archive.Save(ctx, name, []byte("second"))
	require.NoError(t, err)

	got, err := archive.Open(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestLocalArchiveDeleteMissingIsNoop(t *testing.T) {
	archive, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, archive.Delete(context.Background(), "ingest/never/saved.json"))
}

func TestNewLocalArchiveCreatesBaseDirectory(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "batches")

	_, err := NewLocalArchive(base)

	require.NoError(t, err)
	assert.DirExists(t, base)
}

func TestNewArchiveRejectsUnknownType(t *testing.T) {
	_, err := NewArchive(ArchiveConfig{Type: "ftp"})

	assert.ErrorContains(t, err, "unknown archive type")
}

func TestNewArchiveFromEnvDefaultsToLocal(t *testing.T) {
	t.Setenv("ARCHIVE_TYPE", "")
	t.Setenv("ARCHIVE_LOCAL_PATH", filepath.Join(t.TempDir(), "batches"))

	archive, err := NewArchiveFromEnv()

	require.NoError(t, err)
	assert.IsType(t, &LocalArchive{}, archive)
}
