// Package staging holds the pending edits between the last commit and the
// next one. The area is plain data; callers do the disk work.
package staging

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"

	twigerrors "twig/internal/errors"
	"twig/shared/utils"
)

const indexVersion = 1

// Area tracks three mappings. tracked starts each cycle equal to the branch
// tip and absorbs every edit; tracked minus removed is the next commit.
type Area struct {
	added   map[string]string
	removed map[string]struct{}
	tracked map[string]string
}

type indexRecord struct {
	Version int               `json:"version"`
	Added   map[string]string `json:"added"`
	Removed []string          `json:"removed"`
	Tracked map[string]string `json:"tracked"`
}

// New returns a clean area over base.
func New(base map[string]string) *Area {
	a := &Area{}
	a.Reset(base)
	return a
}

// Stage records blobID as the content of path. committed is the digest the
// current commit holds for path, empty if the commit does not track it. The
// result reports whether the blob is new to the area and must be persisted.
func (a *Area) Stage(path, blobID, committed string) bool {
	delete(a.removed, path)

	if committed != "" && blobID == committed {
		// Back to the committed content: nothing left to stage.
		delete(a.added, path)
		a.tracked[path] = committed
		return false
	}
	if prev, ok := a.tracked[path]; ok && prev == blobID {
		return false
	}

	a.added[path] = blobID
	a.tracked[path] = blobID
	return true
}

// StageRemoval marks a tracked path whose file is gone as removed.
func (a *Area) StageRemoval(path string) error {
	if _, ok := a.tracked[path]; !ok {
		return twigerrors.ErrPathNotFound.WithDetails(path)
	}
	delete(a.added, path)
	a.removed[path] = struct{}{}
	return nil
}

// Unstage handles rm. A path tracked by the current commit moves to removed
// and the result asks the caller to delete the working file; a path that was
// only staged is forgotten without touching disk.
func (a *Area) Unstage(path string, committed bool) (bool, error) {
	if committed {
		delete(a.added, path)
		a.removed[path] = struct{}{}
		return true, nil
	}

	if _, ok := a.added[path]; ok {
		delete(a.added, path)
		delete(a.tracked, path)
		return false, nil
	}
	return false, twigerrors.ErrNothingToRemove.WithDetails(path)
}

func (a *Area) IsClean() bool {
	return len(a.added) == 0 && len(a.removed) == 0
}

// NextCommitMapping is tracked with every removed path dropped.
func (a *Area) NextCommitMapping() map[string]string {
	next := maps.Clone(a.tracked)
	for path := range a.removed {
		delete(next, path)
	}
	return next
}

// Reset makes base the tracked mapping and clears pending edits.
func (a *Area) Reset(base map[string]string) {
	a.tracked = maps.Clone(base)
	if a.tracked == nil {
		a.tracked = map[string]string{}
	}
	a.added = map[string]string{}
	a.removed = map[string]struct{}{}
}

func (a *Area) Added() map[string]string { return maps.Clone(a.added) }
func (a *Area) Tracked() map[string]string { return maps.Clone(a.tracked) }

// Removed returns the paths staged for removal, sorted.
func (a *Area) Removed() []string {
	return utils.SortedKeys(a.removed)
}

func (a *Area) IsAdded(path string) bool {
	_, ok := a.added[path]
	return ok
}

func (a *Area) IsRemoved(path string) bool {
	_, ok := a.removed[path]
	return ok
}

// Tracks reports whether path is tracked and not staged for removal.
func (a *Area) Tracks(path string) bool {
	_, ok := a.tracked[path]
	return ok && !a.IsRemoved(path)
}

// Load reads the index at path.
func Load(path string) (*Area, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	var rec indexRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}
	if rec.Version != indexVersion {
		return nil, fmt.Errorf("parsing index: unsupported version %d", rec.Version)
	}

	a := New(rec.Tracked)
	for p, id := range rec.Added {
		a.added[p] = id
	}
	for _, p := range rec.Removed {
		a.removed[p] = struct{}{}
	}
	return a, nil
}

// Save writes the index to path atomically.
func (a *Area) Save(path string) error {
	data, err := json.MarshalIndent(indexRecord{
		Version: indexVersion,
		Added:   a.added,
		Removed: a.Removed(),
		Tracked: a.tracked,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}

	if err := utils.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}
