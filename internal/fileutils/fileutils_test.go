package fileutils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/ledger-import/internal/fileutils"
)

func TestOpenRegular(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(file, []byte("date;account\n"), 0o600))

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "regular file", path: file},
		{name: "missing", path: filepath.Join(dir, "missing.csv"), wantErr: "does not exist"},
		{name: "directory", path: dir, wantErr: "not a regular file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, info, err := fileutils.OpenRegular(tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer func() { _ = f.Close() }()
			assert.Equal(t, int64(13), info.Size())
		})
	}
}

func TestCreateFile_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "2026", "failed.csv")

	f, err := fileutils.CreateFile(path)
	require.NoError(t, err)
	_, err = f.WriteString("date\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "date\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Mode().Perm()&0o133, "readable report, not executable or group writable")

	f, err = fileutils.CreateFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data, "existing file is truncated")
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "ledger.yaml")

	require.NoError(t, fileutils.WriteFileAtomic(path, []byte("first"), 0o600))
	require.NoError(t, fileutils.WriteFileAtomic(path, []byte("second"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}
