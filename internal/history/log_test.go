package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	l := New(filepath.Join(t.TempDir(), "logs"))
	require.NoError(t, l.Create())
	return l
}

func TestAppendAndEntries(t *testing.T) {
	l := newTestLog(t)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, l.Append("master", "c1", "first", ts))
	require.NoError(t, l.Append("dev", "c2", "second", ts.Add(time.Minute)))
	require.NoError(t, l.Append("master", "c3", "third", ts.Add(2*time.Minute)))

	entries, err := l.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "c3", entries[0].Commit)
	assert.Equal(t, "dev", entries[1].Branch)
	assert.Equal(t, "c1", entries[2].Commit)
	assert.True(t, entries[2].Timestamp.Equal(ts))
}

func TestCreateTwiceFails(t *testing.T) {
	l := newTestLog(t)
	assert.Error(t, l.Create())
}

func TestFindByMessage(t *testing.T) {
	l := newTestLog(t)
	now := time.Now()

	require.NoError(t, l.Append("master", "c1", "fix", now))
	require.NoError(t, l.Append("master", "c2", "fix bug", now))
	require.NoError(t, l.Append("dev", "c3", "fix", now))
	require.NoError(t, l.Append("other", "c3", "fix", now))

	ids, err := l.FindByMessage("fix")
	require.NoError(t, err)
	assert.Equal(t, []string{"c3", "c1"}, ids)

	ids, err = l.FindByMessage("fi")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTornTailIsSkipped(t *testing.T) {
	l := newTestLog(t)
	require.NoError(t, l.Append("master", "c1", "first", time.Now()))

	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"version":1,"branch":"mas`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := l.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c1", entries[0].Commit)
}

func TestCorruptLineFails(t *testing.T) {
	l := newTestLog(t)
	require.NoError(t, os.WriteFile(l.path, []byte("garbage\n"), 0644))

	_, err := l.Entries()
	assert.Error(t, err)
}
