package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twig/internal/config"
	"twig/internal/errors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, config.MarkerDir), 0755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, found)

	_, err = FindRoot(t.TempDir())
	assert.ErrorIs(t, err, errors.ErrNotInitialized)
}

func TestShouldIgnore(t *testing.T) {
	w := NewLocalWorkspace(t.TempDir(), nil)

	tests := []struct {
		path   string
		ignore bool
	}{
		{"a.txt", false},
		{"src/main.go", false},
		{".twig", true},
		{".twig/HEAD", true},
		{".env", false},
		{".twigrc", false},
		{"docs/.twig/notes", false},
		{"build/out.txt", false},
		{"node_modules/x/index.js", false},
		{"pkg/vendor/lib.go", false},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.ignore, w.ShouldIgnore(tt.path))
		})
	}
}

func TestListFiles(t *testing.T) {
	root := t.TempDir()
	w := NewLocalWorkspace(root, nil)

	writeFile(t, root, "b.txt", "b")
	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, "dir/c.txt", "c")
	writeFile(t, root, ".twig/HEAD", "ref")
	writeFile(t, root, "build/out.bin", "x")
	writeFile(t, root, ".env", "k=v")

	files, err := w.ListFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{".env", "a.txt", "b.txt", "build/out.bin", "dir/c.txt"}, files)
}

func TestReadWriteRemove(t *testing.T) {
	root := t.TempDir()
	w := NewLocalWorkspace(root, nil)

	require.NoError(t, w.Write("deep/dir/f.txt", []byte("hi")))
	assert.True(t, w.Exists("deep/dir/f.txt"))

	data, err := w.Read("deep/dir/f.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	require.NoError(t, w.Remove("deep/dir/f.txt"))
	assert.False(t, w.Exists("deep/dir/f.txt"))
	assert.NoDirExists(t, filepath.Join(root, "deep"))

	// Removing a missing file is fine.
	require.NoError(t, w.Remove("deep/dir/f.txt"))

	_, err = w.Read("missing.txt")
	assert.ErrorIs(t, err, errors.ErrPathNotFound)
}

func TestClear(t *testing.T) {
	root := t.TempDir()
	w := NewLocalWorkspace(root, nil)

	writeFile(t, root, "a.txt", "a")
	writeFile(t, root, "dir/b.txt", "b")
	writeFile(t, root, ".hidden", "h")
	writeFile(t, root, ".twig/HEAD", "ref")

	require.NoError(t, w.Clear())
	files, err := w.ListFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.FileExists(t, filepath.Join(root, ".twig", "HEAD"))
	assert.NoDirExists(t, filepath.Join(root, "dir"))
	assert.NoFileExists(t, filepath.Join(root, ".hidden"))
}

func TestRel(t *testing.T) {
	root := t.TempDir()
	w := NewLocalWorkspace(root, nil)

	rel, err := w.Rel(filepath.Join(root, "sub"), "f.txt")
	require.NoError(t, err)
	assert.Equal(t, "sub/f.txt", rel)

	rel, err = w.Rel(root, filepath.Join(root, "x", "y.txt"))
	require.NoError(t, err)
	assert.Equal(t, "x/y.txt", rel)

	_, err = w.Rel(root, "../outside.txt")
	assert.ErrorIs(t, err, errors.ErrPathNotFound)
}

func TestWatch(t *testing.T) {
	root := t.TempDir()
	w := NewLocalWorkspace(root, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, 20*time.Millisecond, func() {
			calls.Add(1)
			cancel()
		})
	}()

	// Give the watcher time to register the root.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, root, "a.txt", "a")

	require.NoError(t, <-done)
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}
