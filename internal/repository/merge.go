package repository

import (
	"fmt"
	"maps"

	"go.uber.org/zap"

	"twig/internal/errors"
	"twig/internal/merge"
	"twig/internal/object"
)

// MergeResult reports how a merge ended. At most one of UpToDate and
// FastForward is set; otherwise Commit is the new merge commit.
type MergeResult struct {
	UpToDate    bool
	FastForward bool
	Commit      *object.Commit
	Conflicts   []string
}

// Merge folds branch into the current branch. A fast-forward moves the
// current branch to the target tip; HEAD stays on the current branch.
// Branches whose snapshots are already identical are refused with
// ErrEmptyStagingArea and no commit is made.
func (r *Repository) Merge(branch string) (*MergeResult, error) {
	if !r.stage.IsClean() {
		return nil, errors.ErrUncommittedChanges
	}
	if !r.refs.Exists(branch) {
		return nil, errors.ErrBranchNotFound.WithDetails(branch)
	}
	current, head, err := r.head()
	if err != nil {
		return nil, err
	}
	if branch == current {
		return nil, errors.ErrSelfMergeRejected.WithDetails(branch)
	}

	targetID, err := r.refs.Get(branch)
	if err != nil {
		return nil, err
	}
	target, err := r.store.Commit(targetID)
	if err != nil {
		return nil, err
	}
	if err := r.guardUntracked(target.Files()); err != nil {
		return nil, err
	}

	splitID, err := merge.LowestCommonAncestor(r.store, r.Settings.Merge.Ancestor, head.ID(), target.ID())
	if err != nil {
		return nil, fmt.Errorf("finding split point: %w", err)
	}
	r.logger.Debug("resolved split point",
		zap.String("current", head.ID()),
		zap.String("target", target.ID()),
		zap.String("split", splitID),
		zap.String("strategy", r.Settings.Merge.Ancestor))

	switch splitID {
	case target.ID():
		return &MergeResult{UpToDate: true}, nil
	case head.ID():
		if err := r.fastForward(current, head, target); err != nil {
			return nil, err
		}
		return &MergeResult{FastForward: true}, nil
	}

	if maps.Equal(head.Files(), target.Files()) {
		return nil, errors.ErrEmptyStagingArea.WithDetails(branch)
	}

	split, err := r.store.Commit(splitID)
	if err != nil {
		return nil, err
	}

	plan := merge.Classify(split.Files(), head.Files(), target.Files())
	conflicts, err := r.apply(plan)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Merged %s into %s.", branch, current)
	c, err := r.record(current, []string{head.ID(), target.ID()}, r.stage.NextCommitMapping(), message)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("merged branch",
		zap.String("branch", branch),
		zap.String("commit", c.ID()),
		zap.Int("changes", len(plan)),
		zap.Int("conflicts", len(conflicts)))
	return &MergeResult{Commit: c, Conflicts: conflicts}, nil
}

// fastForward moves branch to target and swaps the tracked files over.
// Untracked files outside target's mapping are left alone.
func (r *Repository) fastForward(branch string, head, target *object.Commit) error {
	targetFiles := target.Files()
	for path := range head.Files() {
		if _, ok := targetFiles[path]; !ok {
			if err := r.workspace.Remove(path); err != nil {
				return err
			}
		}
	}
	for path, blobID := range targetFiles {
		content, err := r.blobContent(blobID)
		if err != nil {
			return err
		}
		if err := r.workspace.Write(path, content); err != nil {
			return err
		}
	}

	if err := r.refs.Advance(branch, target.ID()); err != nil {
		return err
	}
	r.stage.Reset(targetFiles)
	if err := r.stage.Save(r.Paths.Index); err != nil {
		return err
	}

	r.logger.Debug("fast-forwarded branch",
		zap.String("branch", branch),
		zap.String("commit", target.ID()))
	return nil
}

// apply carries out plan on the worktree and staging area and returns the
// conflicted paths. Conflict blobs are stored before the index is saved.
func (r *Repository) apply(plan []merge.Resolution) ([]string, error) {
	var conflicts []string

	for _, res := range plan {
		switch res.Action {
		case merge.Take:
			content, err := r.blobContent(res.Target)
			if err != nil {
				return nil, err
			}
			if err := r.workspace.Write(res.Path, content); err != nil {
				return nil, err
			}
			r.stage.Stage(res.Path, res.Target, res.Current)

		case merge.Delete:
			if err := r.workspace.Remove(res.Path); err != nil {
				return nil, err
			}
			if _, err := r.stage.Unstage(res.Path, true); err != nil {
				return nil, err
			}

		case merge.Conflict:
			content, err := r.conflictContent(res)
			if err != nil {
				return nil, err
			}
			blob := object.NewBlob(res.Path, content)
			if err := r.store.Put(blob); err != nil {
				return nil, err
			}
			if err := r.workspace.Write(res.Path, content); err != nil {
				return nil, err
			}
			r.stage.Stage(res.Path, blob.ID(), res.Current)
			conflicts = append(conflicts, res.Path)
		}
	}

	if err := r.stage.Save(r.Paths.Index); err != nil {
		return nil, err
	}
	return conflicts, nil
}

func (r *Repository) conflictContent(res merge.Resolution) ([]byte, error) {
	var current, target []byte
	var err error
	if res.Current != "" {
		if current, err = r.blobContent(res.Current); err != nil {
			return nil, err
		}
	}
	if res.Target != "" {
		if target, err = r.blobContent(res.Target); err != nil {
			return nil, err
		}
	}
	return merge.ConflictContent(current, target), nil
}
