package checksum

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksumMatcher(t *testing.T) {
	t.Parallel()

	data := []byte("CONTROL DE PAGOS")
	path := filepath.Join(t.TempDir(), "copy.xlsx")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cm := NewChecksumMatcher(Sum(data))
	ok, err := cm.Match(data)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cm.MatchFile(path)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cm.Match([]byte("control de pagos"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewChecksumMatcher("").Match(data)
	assert.Error(t, err)

	_, err = cm.MatchFile(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}
