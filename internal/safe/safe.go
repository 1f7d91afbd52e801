// internal/safe/safe.go
package safe

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	twigerrors "twig/internal/errors"
	"twig/internal/object"
	"twig/internal/storage"
	"twig/shared/utils"
)

// MinPrefixLen is the shortest abbreviated commit id Resolve accepts.
const MinPrefixLen = 4

var ErrKindMismatch = errors.New("object kind mismatch")

// ObjectMeta is the catalogue record kept for every stored object.
type ObjectMeta struct {
	Digest     string      `json:"digest"`
	Kind       object.Kind `json:"kind"`
	Size       int64       `json:"size"`
	Compressed bool        `json:"compressed"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (m *ObjectMeta) GetID() string { return m.Digest }

// Safe is the content-addressed object store. Objects live in files at
// <root>/<digest[:2]>/<digest[2:]>; the badger catalogue only indexes them.
type Safe struct {
	root    string
	catalog *storage.BadgerStore
	cache   *lru.Cache[string, object.Object]
	comp    *compressionManager
	logger  *zap.Logger
	mu      sync.Mutex
}

// Options configures Safe behavior
type Options struct {
	Root        string // Objects directory
	CacheSize   int    // Number of decoded objects to cache
	Compression CompressionOptions
}

func New(db *badger.DB, opts Options, logger *zap.Logger) (*Safe, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(opts.Root, 0755); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}

	cache, err := lru.New[string, object.Object](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	comp, err := newCompressionManager(opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("creating compression manager: %w", err)
	}

	return &Safe{
		root:    opts.Root,
		catalog: storage.NewBadgerStore(db, "object"),
		cache:   cache,
		comp:    comp,
		logger:  logger,
	}, nil
}

// Put stores obj under its digest. Storing an object that already exists is
// a no-op.
func (s *Safe) Put(obj object.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := obj.ID()
	path := s.objectPath(id)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking object %s: %w", id, err)
	}

	frame, err := object.Encode(obj)
	if err != nil {
		return err
	}
	data, compressed := s.comp.compress(frame)

	if err := utils.WriteFileAtomic(path, data, 0444); err != nil {
		return fmt.Errorf("writing object %s: %w", id, err)
	}

	meta := &ObjectMeta{
		Digest:     id,
		Kind:       obj.Kind(),
		Size:       int64(len(frame)),
		Compressed: compressed,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.catalog.Put(meta); err != nil {
		return fmt.Errorf("cataloguing object %s: %w", id, err)
	}

	s.cache.Add(id, obj)
	s.logger.Debug("stored object",
		zap.String("digest", id),
		zap.String("kind", string(obj.Kind())),
		zap.Int("size", len(frame)),
		zap.Bool("compressed", compressed))
	return nil
}

// Get loads the object stored under id and checks it has the expected kind.
func (s *Safe) Get(id string, kind object.Kind) (object.Object, error) {
	if !object.IsDigest(id) {
		return nil, twigerrors.ObjectNotFound(id)
	}

	obj, ok := s.cache.Get(id)
	if !ok {
		data, err := os.ReadFile(s.objectPath(id))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, twigerrors.ObjectNotFound(id)
			}
			return nil, fmt.Errorf("reading object %s: %w", id, err)
		}

		frame, err := s.comp.decompress(data)
		if err != nil {
			return nil, fmt.Errorf("object %s: %w", id, err)
		}

		obj, err = object.Decode(id, frame)
		if err != nil {
			return nil, err
		}
		s.cache.Add(id, obj)
	}

	if obj.Kind() != kind {
		return nil, fmt.Errorf("object %s: %w: want %s, stored %s", id, ErrKindMismatch, kind, obj.Kind())
	}
	return obj, nil
}

func (s *Safe) Blob(id string) (*object.Blob, error) {
	obj, err := s.Get(id, object.KindBlob)
	if err != nil {
		return nil, err
	}
	return obj.(*object.Blob), nil
}

func (s *Safe) Commit(id string) (*object.Commit, error) {
	obj, err := s.Get(id, object.KindCommit)
	if err != nil {
		return nil, err
	}
	return obj.(*object.Commit), nil
}

// Exists checks the object file, not the catalogue.
func (s *Safe) Exists(id string) (bool, error) {
	if !object.IsDigest(id) {
		return false, nil
	}
	if s.cache.Contains(id) {
		return true, nil
	}

	_, err := os.Stat(s.objectPath(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("checking object %s: %w", id, err)
}

// Meta returns the catalogue record for id.
func (s *Safe) Meta(id string) (*ObjectMeta, error) {
	var meta ObjectMeta
	if err := s.catalog.Get(id, &meta); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, twigerrors.ObjectNotFound(id)
		}
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}
	return &meta, nil
}

// Resolve expands a full or abbreviated commit id to a full digest. A full
// digest is checked against the object file so that a commit missing from
// the catalogue stays reachable.
func (s *Safe) Resolve(prefix string) (string, error) {
	prefix = strings.ToLower(prefix)

	if object.IsDigest(prefix) {
		if _, err := s.Commit(prefix); err != nil {
			if twigerrors.Is(err, twigerrors.ErrObjectNotFound) || errors.Is(err, ErrKindMismatch) {
				return "", twigerrors.ErrCommitNotFound.WithDetails(prefix)
			}
			return "", err
		}
		return prefix, nil
	}

	if len(prefix) < MinPrefixLen || len(prefix) > object.DigestLen || !isHex(prefix) {
		return "", twigerrors.ErrCommitNotFound.WithDetails(prefix)
	}

	ids, err := s.catalog.Scan(prefix, 0)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, id := range ids {
		meta, err := s.Meta(id)
		if err != nil {
			return "", err
		}
		if meta.Kind == object.KindCommit {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", twigerrors.ErrCommitNotFound.WithDetails(prefix)
	case 1:
		return matches[0], nil
	default:
		return "", twigerrors.ErrAmbiguousCommitID.WithDetails(matches)
	}
}

func (s *Safe) objectPath(id string) string {
	return filepath.Join(s.root, id[:2], id[2:])
}

func isHex(s string) bool {
	if len(s)%2 == 1 {
		s += "0"
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
