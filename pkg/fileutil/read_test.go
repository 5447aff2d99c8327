package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/hostenv/internal/errors"
)

func TestReadFileLimit(t *testing.T) {
	dir := t.TempDir()
	const limit = 64

	tests := []struct {
		name    string
		size    int64
		wantErr bool
	}{
		{"small file", 10, false},
		{"exact limit", limit, false},
		{"too large", limit + 1, true},
		{"empty", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			f, err := os.Create(path)
			require.NoError(t, err)
			require.NoError(t, f.Truncate(tt.size))
			require.NoError(t, f.Close())

			data, err := ReadFileLimit(path, limit)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrFileTooLarge), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, data, int(tt.size))
		})
	}
}

func TestReadFileLimit_Missing(t *testing.T) {
	_, err := ReadFileLimit(filepath.Join(t.TempDir(), "missing"), MaxDocumentSize)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
