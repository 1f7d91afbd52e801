package object

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"maps"
	"slices"
	"time"

	"twig/shared/utils"
)

const (
	commitVersion  = 1
	InitialMessage = "initial commit"
)

// Commit is one saved project state. All fields are set by NewCommit and
// never change; accessors hand out copies.
type Commit struct {
	id        string
	parents   []string
	timestamp time.Time
	message   string
	files     map[string]string
}

type commitRecord struct {
	Version   int               `json:"version"`
	Parents   []string          `json:"parents"`
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message"`
	Files     map[string]string `json:"files"`
}

func NewCommit(parents []string, files map[string]string, timestamp time.Time, message string) *Commit {
	c := &Commit{
		parents:   slices.Clone(parents),
		timestamp: timestamp.UTC(),
		message:   message,
		files:     maps.Clone(files),
	}
	if c.parents == nil {
		c.parents = []string{}
	}
	if c.files == nil {
		c.files = map[string]string{}
	}
	c.id = CommitID(c.parents, c.files, c.timestamp, c.message)
	return c
}

// InitialCommit is the root every repository starts from.
func InitialCommit() *Commit {
	return NewCommit(nil, nil, time.Unix(0, 0), InitialMessage)
}

// CommitID hashes a length-prefixed rendering of the fields so that no two
// distinct field sets serialize to the same input.
func CommitID(parents []string, files map[string]string, timestamp time.Time, message string) string {
	h := sha256.New()
	writeField(h, "time", timestamp.UTC().Format(time.RFC3339Nano))
	writeField(h, "message", message)
	for _, p := range parents {
		writeField(h, "parent", p)
	}
	for _, path := range utils.SortedKeys(files) {
		writeField(h, "path", path)
		writeField(h, "blob", files[path])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h hash.Hash, tag, value string) {
	fmt.Fprintf(h, "%s %d\n%s\n", tag, len(value), value)
}

func (c *Commit) ID() string { return c.id }
func (c *Commit) Kind() Kind { return KindCommit }
func (c *Commit) Message() string { return c.message }
func (c *Commit) Timestamp() time.Time { return c.timestamp }
func (c *Commit) Parents() []string { return slices.Clone(c.parents) }
func (c *Commit) IsMerge() bool { return len(c.parents) > 1 }
func (c *Commit) IsRoot() bool { return len(c.parents) == 0 }

// FirstParent returns the parent followed by log and first-parent ancestry.
func (c *Commit) FirstParent() (string, bool) {
	if len(c.parents) == 0 {
		return "", false
	}
	return c.parents[0], true
}

// Files returns a copy of the path → blob digest mapping.
func (c *Commit) Files() map[string]string {
	return maps.Clone(c.files)
}

// File looks up the blob digest tracked for path.
func (c *Commit) File(path string) (string, bool) {
	id, ok := c.files[path]
	return id, ok
}

func (c *Commit) payload() ([]byte, error) {
	return json.Marshal(commitRecord{
		Version:   commitVersion,
		Parents:   c.parents,
		Timestamp: c.timestamp,
		Message:   c.message,
		Files:     c.files,
	})
}
