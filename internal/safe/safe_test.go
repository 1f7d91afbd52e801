package safe

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	twigerrors "twig/internal/errors"
	"twig/internal/object"
	"twig/internal/storage"
)

func newTestSafe(t *testing.T, comp CompressionOptions) (*Safe, string) {
	t.Helper()
	db, err := storage.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	root := filepath.Join(t.TempDir(), "objects")
	s, err := New(db, Options{Root: root, CacheSize: 8, Compression: comp}, nil)
	require.NoError(t, err)
	return s, root
}

func TestPutGet(t *testing.T) {
	s, root := newTestSafe(t, DefaultCompressionOptions())

	blob := object.NewBlob("a.txt", []byte("hello\n"))
	require.NoError(t, s.Put(blob))

	path := filepath.Join(root, blob.ID()[:2], blob.ID()[2:])
	assert.FileExists(t, path)

	got, err := s.Blob(blob.ID())
	require.NoError(t, err)
	assert.Equal(t, []byte("hello\n"), got.Content())

	exists, err := s.Exists(blob.ID())
	require.NoError(t, err)
	assert.True(t, exists)

	// Putting the same object again leaves the file alone.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(object.NewBlob("a.txt", []byte("hello\n"))))
	again, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), again.ModTime())
}

func TestGetErrors(t *testing.T) {
	s, _ := newTestSafe(t, DefaultCompressionOptions())

	_, err := s.Get(strings.Repeat("a", object.DigestLen), object.KindBlob)
	assert.ErrorIs(t, err, twigerrors.ErrObjectNotFound)

	_, err = s.Get("not-a-digest", object.KindBlob)
	assert.ErrorIs(t, err, twigerrors.ErrObjectNotFound)

	blob := object.NewBlob("a.txt", []byte("x"))
	require.NoError(t, s.Put(blob))
	_, err = s.Commit(blob.ID())
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestCompression(t *testing.T) {
	s, root := newTestSafe(t, CompressionOptions{Enabled: true, MinSize: 64, Level: 2})

	content := bytes.Repeat([]byte("twig twig twig\n"), 100)
	blob := object.NewBlob("big.txt", content)
	require.NoError(t, s.Put(blob))

	raw, err := os.ReadFile(filepath.Join(root, blob.ID()[:2], blob.ID()[2:]))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, zstdMagic))
	assert.Less(t, len(raw), len(content))

	meta, err := s.Meta(blob.ID())
	require.NoError(t, err)
	assert.True(t, meta.Compressed)
	assert.Equal(t, object.KindBlob, meta.Kind)

	// A fresh cache forces a read from disk.
	s.cache.Purge()
	got, err := s.Blob(blob.ID())
	require.NoError(t, err)
	assert.Equal(t, content, got.Content())

	small := object.NewBlob("small.txt", []byte("tiny"))
	require.NoError(t, s.Put(small))
	raw, err = os.ReadFile(filepath.Join(root, small.ID()[:2], small.ID()[2:]))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("twig blob 4\x00")))
}

func TestCorruptCommitDetected(t *testing.T) {
	s, root := newTestSafe(t, CompressionOptions{})

	c := object.NewCommit(nil, nil, time.Unix(100, 0), "one")
	other := object.NewCommit(nil, nil, time.Unix(100, 0), "two")
	frame, err := object.Encode(other)
	require.NoError(t, err)

	path := filepath.Join(root, c.ID()[:2], c.ID()[2:])
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, frame, 0644))

	_, err = s.Commit(c.ID())
	assert.ErrorIs(t, err, object.ErrDigestMismatch)
}

func TestResolve(t *testing.T) {
	s, _ := newTestSafe(t, DefaultCompressionOptions())

	var commits []*object.Commit
	for i := 0; i < 40; i++ {
		c := object.NewCommit(nil, nil, time.Unix(int64(i), 0), "c")
		require.NoError(t, s.Put(c))
		commits = append(commits, c)
	}
	target := commits[0]

	t.Run("full id", func(t *testing.T) {
		id, err := s.Resolve(strings.ToUpper(target.ID()))
		require.NoError(t, err)
		assert.Equal(t, target.ID(), id)
	})

	t.Run("unique prefix", func(t *testing.T) {
		id, err := s.Resolve(target.ID()[:12])
		require.NoError(t, err)
		assert.Equal(t, target.ID(), id)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := s.Resolve(target.ID()[:3])
		assert.ErrorIs(t, err, twigerrors.ErrCommitNotFound)
	})

	t.Run("not hex", func(t *testing.T) {
		_, err := s.Resolve("zzzzzz")
		assert.ErrorIs(t, err, twigerrors.ErrCommitNotFound)
	})

	t.Run("blob is not a commit", func(t *testing.T) {
		blob := object.NewBlob("f", []byte("f"))
		require.NoError(t, s.Put(blob))
		_, err := s.Resolve(blob.ID())
		assert.ErrorIs(t, err, twigerrors.ErrCommitNotFound)
	})

	t.Run("ambiguous", func(t *testing.T) {
		for _, d := range []string{"abcd1", "abcd2"} {
			digest := d + strings.Repeat("0", object.DigestLen-len(d))
			require.NoError(t, s.catalog.Put(&ObjectMeta{Digest: digest, Kind: object.KindCommit}))
		}
		_, err := s.Resolve("abcd")
		assert.ErrorIs(t, err, twigerrors.ErrAmbiguousCommitID)

		id, err := s.Resolve("abcd2")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(id, "abcd2"))
	})
}

