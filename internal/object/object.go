// Package object defines the two immutable record kinds kept in the object
// store and the versioned frame they are persisted in.
package object

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

type Kind string

const (
	KindBlob   Kind = "blob"
	KindCommit Kind = "commit"
)

// DigestLen is the length of a hex digest.
const DigestLen = sha256.Size * 2

const frameMagic = "twig"

var (
	ErrMalformed      = errors.New("malformed object frame")
	ErrDigestMismatch = errors.New("object digest mismatch")
)

// Object is anything the store can persist under its digest.
type Object interface {
	ID() string
	Kind() Kind
	payload() ([]byte, error)
}

// IsDigest reports whether s looks like a full hex digest.
func IsDigest(s string) bool {
	if len(s) != DigestLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Encode frames obj as "twig <kind> <len>\x00<payload>".
func Encode(obj Object) ([]byte, error) {
	p, err := obj.payload()
	if err != nil {
		return nil, fmt.Errorf("encoding %s %s: %w", obj.Kind(), obj.ID(), err)
	}

	var buf bytes.Buffer
	buf.Grow(len(p) + 32)
	fmt.Fprintf(&buf, "%s %s %d", frameMagic, obj.Kind(), len(p))
	buf.WriteByte(0)
	buf.Write(p)
	return buf.Bytes(), nil
}

// Decode parses a frame stored under id. Commits are re-hashed and must
// match id; blobs cannot be (their digest covers the path) and are trusted.
func Decode(id string, frame []byte) (Object, error) {
	kind, p, err := parseFrame(frame)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", id, err)
	}

	switch kind {
	case KindBlob:
		return &Blob{id: id, content: p}, nil
	case KindCommit:
		var rec commitRecord
		if err := json.Unmarshal(p, &rec); err != nil {
			return nil, fmt.Errorf("decoding commit %s: %w", id, err)
		}
		if rec.Version != commitVersion {
			return nil, fmt.Errorf("decoding commit %s: unsupported version %d", id, rec.Version)
		}
		c := NewCommit(rec.Parents, rec.Files, rec.Timestamp, rec.Message)
		if c.ID() != id {
			return nil, fmt.Errorf("commit %s: %w (computed %s)", id, ErrDigestMismatch, c.ID())
		}
		return c, nil
	default:
		return nil, fmt.Errorf("decoding %s: %w: unknown kind %q", id, ErrMalformed, kind)
	}
}

func parseFrame(frame []byte) (Kind, []byte, error) {
	nul := bytes.IndexByte(frame, 0)
	if nul < 0 {
		return "", nil, ErrMalformed
	}

	fields := bytes.Fields(frame[:nul])
	if len(fields) != 3 || string(fields[0]) != frameMagic {
		return "", nil, ErrMalformed
	}

	size, err := strconv.Atoi(string(fields[2]))
	if err != nil {
		return "", nil, fmt.Errorf("%w: bad length", ErrMalformed)
	}
	p := frame[nul+1:]
	if len(p) != size {
		return "", nil, fmt.Errorf("%w: length %d, header says %d", ErrMalformed, len(p), size)
	}
	return Kind(fields[1]), p, nil
}
