package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPersists(t *testing.T) {
	file := filepath.Join(t.TempDir(), "history")

	h, err := New(file, 10)
	require.NoError(t, err)
	require.NoError(t, h.Add("jobs"))
	require.NoError(t, h.Add("fg %1"))

	reloaded, err := New(file, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"jobs", "fg %1"}, reloaded.All())
}

func TestKeepsOnlyMostRecent(t *testing.T) {
	file := filepath.Join(t.TempDir(), "history")
	require.NoError(t, os.WriteFile(file, []byte("a\nb\nc\n"), 0o600))

	h, err := New(file, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, h.All())

	require.NoError(t, h.Add("d"))
	assert.Equal(t, []string{"c", "d"}, h.All())
}

func TestInMemory(t *testing.T) {
	h, err := New("", 0)
	require.NoError(t, err)
	require.NoError(t, h.Add("quit"))
	assert.Equal(t, []string{"quit"}, h.All())
}
