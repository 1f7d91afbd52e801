package object

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// Blob is the content of one file at one point in time.
type Blob struct {
	id      string
	content []byte
}

// NewBlob snapshots content for path. The caller must not modify content
// afterwards.
func NewBlob(path string, content []byte) *Blob {
	if content == nil {
		content = []byte{}
	}
	return &Blob{
		id:      BlobID(path, content),
		content: content,
	}
}

// BlobID is the digest of path and content. The same bytes at two paths
// give two digests.
func BlobID(path string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func (b *Blob) ID() string { return b.id }
func (b *Blob) Kind() Kind { return KindBlob }
func (b *Blob) Size() int { return len(b.content) }

// Content returns a copy of the blob bytes.
func (b *Blob) Content() []byte {
	return bytes.Clone(b.content)
}

func (b *Blob) payload() ([]byte, error) {
	return b.content, nil
}
