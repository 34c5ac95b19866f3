package storage

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestArchiveSaveAndOpen(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	require.NoError(t, err)

	rel, err := archive.Save("2026/applications-20260101.csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	require.Equal(t, "2026/applications-20260101.csv", rel)

	file, err := archive.Open(rel)
	require.NoError(t, err)
	defer file.Close()

	data, err := os.ReadFile(file.Name())
	require.NoError(t, err)
	require.Equal(t, "a,b\n1,2\n", string(data))
}

func TestArchiveResolveNeutralizesEscape(t *testing.T) {
	base := t.TempDir()
	archive, err := NewArchive(base)
	require.NoError(t, err)

	path, err := archive.Resolve("../../etc/passwd")
	require.NoError(t, err)
	require.Contains(t, path, base)
}

func TestArchiveSweep(t *testing.T) {
	dir := t.TempDir()
	archive, err := NewArchive(dir)
	require.NoError(t, err)

	_, err = archive.Save("old.csv", []byte("old"))
	require.NoError(t, err)
	oldPath, err := archive.Resolve("old.csv")
	require.NoError(t, err)
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, stale, stale))

	_, err = archive.Save("fresh.csv", []byte("fresh"))
	require.NoError(t, err)

	deleted, err := archive.Sweep(24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	_, err = archive.Open("fresh.csv")
	require.NoError(t, err)
	_, err = archive.Open("old.csv")
	require.Error(t, err)
}
