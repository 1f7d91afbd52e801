package repository

import (
	"slices"

	"twig/internal/diff"
	"twig/internal/object"
	"twig/shared/utils"
)

type ChangeKind string

const (
	Modified ChangeKind = "modified"
	Deleted  ChangeKind = "deleted"
)

// Change is a tracked file whose working copy differs from what is staged
// or committed.
type Change struct {
	Path string
	Kind ChangeKind
}

// Status is a read-only view of the repository. Every list is sorted.
type Status struct {
	Current   string
	Branches  []string
	Staged    []string
	Removed   []string
	Unstaged  []Change
	Untracked []string
}

func (r *Repository) Status() (*Status, error) {
	current, err := r.refs.Current()
	if err != nil {
		return nil, err
	}
	branches, err := r.refs.List()
	if err != nil {
		return nil, err
	}

	unstaged, err := r.unstagedChanges()
	if err != nil {
		return nil, err
	}
	untracked, err := r.untracked()
	if err != nil {
		return nil, err
	}

	return &Status{
		Current:   current,
		Branches:  branches,
		Staged:    utils.SortedKeys(r.stage.Added()),
		Removed:   r.stage.Removed(),
		Unstaged:  unstaged,
		Untracked: untracked,
	}, nil
}

// unstagedChanges compares every tracked path not staged for removal
// against its working file.
func (r *Repository) unstagedChanges() ([]Change, error) {
	tracked := r.stage.Tracked()

	var changes []Change
	for _, path := range utils.SortedKeys(tracked) {
		if r.stage.IsRemoved(path) {
			continue
		}
		if !r.workspace.Exists(path) {
			changes = append(changes, Change{Path: path, Kind: Deleted})
			continue
		}

		data, err := r.workspace.Read(path)
		if err != nil {
			return nil, err
		}
		if object.BlobID(path, data) != tracked[path] {
			changes = append(changes, Change{Path: path, Kind: Modified})
		}
	}
	return changes, nil
}

// FileDiff is the line diff of one tracked file against its working copy.
type FileDiff struct {
	Path   string
	Kind   ChangeKind
	Result *diff.DiffResult
}

// Diff compares staged or committed content with the worktree for each
// unstaged change, limited to paths when any are given.
func (r *Repository) Diff(paths ...string) ([]FileDiff, error) {
	changes, err := r.unstagedChanges()
	if err != nil {
		return nil, err
	}

	tracked := r.stage.Tracked()
	engine := diff.NewEngine(3)

	var out []FileDiff
	for _, ch := range changes {
		if len(paths) > 0 && !slices.Contains(paths, ch.Path) {
			continue
		}

		old, err := r.blobContent(tracked[ch.Path])
		if err != nil {
			return nil, err
		}
		var current []byte
		if ch.Kind == Modified {
			if current, err = r.workspace.Read(ch.Path); err != nil {
				return nil, err
			}
		}

		out = append(out, FileDiff{
			Path:   ch.Path,
			Kind:   ch.Kind,
			Result: engine.Diff(old, current),
		})
	}
	return out, nil
}
