package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBank(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.json", "c.JSON", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o700))

	b, err := OpenBank(dir)
	require.NoError(t, err)
	require.Equal(t, dir, b.Dir())
	require.Equal(t, 3, b.Len())
	require.Equal(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.json"),
		filepath.Join(dir, "c.JSON"),
	}, b.Paths())

	p, err := b.Path(1)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "b.json"), p)

	i, ok := b.Index(p)
	require.True(t, ok)
	require.Equal(t, 1, i)

	_, err = b.Path(3)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = b.Path(-1)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "0.json"), []byte("{}"), 0o600))
	require.NoError(t, b.Rescan())
	require.Equal(t, 4, b.Len())
	i, ok = b.Index(p)
	require.True(t, ok)
	require.Equal(t, 2, i)
}

func TestOpenBankMissingDir(t *testing.T) {
	_, err := OpenBank(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
