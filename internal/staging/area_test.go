package staging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	twigerrors "twig/internal/errors"
)

func TestStage(t *testing.T) {
	base := map[string]string{"a.txt": "a1"}

	t.Run("new path", func(t *testing.T) {
		area := New(base)
		assert.True(t, area.Stage("b.txt", "b1", ""))
		assert.Equal(t, map[string]string{"b.txt": "b1"}, area.Added())
		assert.Equal(t, "b1", area.Tracked()["b.txt"])
		assert.False(t, area.IsClean())
	})

	t.Run("staging twice is idempotent", func(t *testing.T) {
		area := New(base)
		require.True(t, area.Stage("b.txt", "b1", ""))
		added, tracked := area.Added(), area.Tracked()

		assert.False(t, area.Stage("b.txt", "b1", ""), "blob must not be rewritten")
		assert.Equal(t, added, area.Added())
		assert.Equal(t, tracked, area.Tracked())
	})

	t.Run("unchanged committed file", func(t *testing.T) {
		area := New(base)
		assert.False(t, area.Stage("a.txt", "a1", "a1"))
		assert.True(t, area.IsClean())
	})

	t.Run("reverting to committed content unstages", func(t *testing.T) {
		area := New(base)
		require.True(t, area.Stage("a.txt", "a2", "a1"))
		assert.True(t, area.IsAdded("a.txt"))

		assert.False(t, area.Stage("a.txt", "a1", "a1"))
		assert.False(t, area.IsAdded("a.txt"))
		assert.Equal(t, "a1", area.Tracked()["a.txt"])
		assert.True(t, area.IsClean())
	})

	t.Run("clears pending removal", func(t *testing.T) {
		area := New(base)
		_, err := area.Unstage("a.txt", true)
		require.NoError(t, err)
		require.True(t, area.IsRemoved("a.txt"))

		area.Stage("a.txt", "a1", "a1")
		assert.False(t, area.IsRemoved("a.txt"))
		assert.True(t, area.IsClean())
	})
}

func TestUnstage(t *testing.T) {
	base := map[string]string{"a.txt": "a1"}

	t.Run("committed path", func(t *testing.T) {
		area := New(base)
		deleteFile, err := area.Unstage("a.txt", true)
		require.NoError(t, err)
		assert.True(t, deleteFile)
		assert.Equal(t, []string{"a.txt"}, area.Removed())
		assert.False(t, area.Tracks("a.txt"))
		assert.Empty(t, area.NextCommitMapping())
	})

	t.Run("staged only", func(t *testing.T) {
		area := New(base)
		area.Stage("b.txt", "b1", "")
		deleteFile, err := area.Unstage("b.txt", false)
		require.NoError(t, err)
		assert.False(t, deleteFile)
		assert.True(t, area.IsClean())
		assert.Equal(t, base, area.Tracked())
	})

	t.Run("unknown path", func(t *testing.T) {
		area := New(base)
		_, err := area.Unstage("c.txt", false)
		assert.ErrorIs(t, err, twigerrors.ErrNothingToRemove)
	})
}

func TestStageRemoval(t *testing.T) {
	area := New(map[string]string{"a.txt": "a1"})
	require.NoError(t, area.StageRemoval("a.txt"))
	assert.True(t, area.IsRemoved("a.txt"))

	err := area.StageRemoval("ghost.txt")
	assert.ErrorIs(t, err, twigerrors.ErrPathNotFound)
}

func TestNextCommitMappingAndReset(t *testing.T) {
	area := New(map[string]string{"a.txt": "a1", "b.txt": "b1"})
	area.Stage("c.txt", "c1", "")
	_, err := area.Unstage("b.txt", true)
	require.NoError(t, err)

	next := area.NextCommitMapping()
	assert.Equal(t, map[string]string{"a.txt": "a1", "c.txt": "c1"}, next)
	// tracked keeps the removed path until reset
	assert.Contains(t, area.Tracked(), "b.txt")

	area.Reset(next)
	assert.True(t, area.IsClean())
	assert.Equal(t, next, area.Tracked())
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")

	area := New(map[string]string{"a.txt": "a1", "b.txt": "b1"})
	area.Stage("c.txt", "c1", "")
	_, err := area.Unstage("b.txt", true)
	require.NoError(t, err)
	require.NoError(t, area.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, area.Added(), loaded.Added())
	assert.Equal(t, area.Removed(), loaded.Removed())
	assert.Equal(t, area.Tracked(), loaded.Tracked())

	_, err = Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
