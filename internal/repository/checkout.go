package repository

import (
	"strings"

	"go.uber.org/zap"

	"twig/internal/errors"
	"twig/internal/object"
	"twig/internal/validation"
)

// Checkout switches to branch, replacing the worktree with its tip.
func (r *Repository) Checkout(branch string) error {
	if !r.refs.Exists(branch) {
		return errors.NoSuchBranch(branch)
	}
	current, err := r.refs.Current()
	if err != nil {
		return err
	}
	if branch == current {
		return errors.ErrAlreadyCurrent.WithDetails(branch)
	}
	if err := r.guardUntracked(nil); err != nil {
		return err
	}

	id, err := r.refs.Get(branch)
	if err != nil {
		return err
	}
	target, err := r.store.Commit(id)
	if err != nil {
		return err
	}

	if err := r.restoreTree(target); err != nil {
		return err
	}
	if err := r.refs.SetCurrent(branch); err != nil {
		return err
	}
	r.stage.Reset(target.Files())
	if err := r.stage.Save(r.Paths.Index); err != nil {
		return err
	}

	r.logger.Debug("checked out branch",
		zap.String("branch", branch),
		zap.String("commit", target.ID()))
	return nil
}

// CheckoutFile restores path from the current tip. Staging is untouched.
func (r *Repository) CheckoutFile(path string) error {
	_, head, err := r.head()
	if err != nil {
		return err
	}
	return r.restoreFile(head, path)
}

// CheckoutFileAt restores path from the commit named by a full or
// abbreviated id.
func (r *Repository) CheckoutFileAt(commitRef, path string) error {
	c, err := r.resolveCommit(commitRef)
	if err != nil {
		return err
	}
	return r.restoreFile(c, path)
}

// Reset moves the current branch to the given commit and restores its
// snapshot.
func (r *Repository) Reset(commitRef string) error {
	target, err := r.resolveCommit(commitRef)
	if err != nil {
		return err
	}
	if err := r.guardUntracked(nil); err != nil {
		return err
	}

	branch, err := r.refs.Current()
	if err != nil {
		return err
	}

	if err := r.restoreTree(target); err != nil {
		return err
	}
	if err := r.refs.Advance(branch, target.ID()); err != nil {
		return err
	}
	r.stage.Reset(target.Files())
	if err := r.stage.Save(r.Paths.Index); err != nil {
		return err
	}

	r.logger.Debug("reset branch",
		zap.String("branch", branch),
		zap.String("commit", target.ID()))
	return nil
}

// Branch creates name at the current tip without switching to it.
func (r *Repository) Branch(name string) error {
	_, head, err := r.head()
	if err != nil {
		return err
	}
	return r.refs.Create(name, head.ID())
}

// RemoveBranch deletes the pointer only; its commits stay in the store.
func (r *Repository) RemoveBranch(name string) error {
	return r.refs.Delete(name)
}

func (r *Repository) resolveCommit(ref string) (*object.Commit, error) {
	if err := validation.CommitRef(ref); err != nil {
		return nil, err
	}
	id, err := r.store.Resolve(strings.ToLower(ref))
	if err != nil {
		return nil, err
	}
	return r.store.Commit(id)
}

func (r *Repository) restoreFile(c *object.Commit, path string) error {
	blobID, ok := c.File(path)
	if !ok {
		return errors.ErrFileNotInCommit.WithDetails(path)
	}
	content, err := r.blobContent(blobID)
	if err != nil {
		return err
	}
	return r.workspace.Write(path, content)
}

// restoreTree deletes every worktree file and writes out target's mapping.
func (r *Repository) restoreTree(target *object.Commit) error {
	if err := r.workspace.Clear(); err != nil {
		return err
	}
	for path, blobID := range target.Files() {
		content, err := r.blobContent(blobID)
		if err != nil {
			return err
		}
		if err := r.workspace.Write(path, content); err != nil {
			return err
		}
	}
	return nil
}

// untracked lists worktree files the staging area does not know.
func (r *Repository) untracked() ([]string, error) {
	files, err := r.workspace.ListFiles()
	if err != nil {
		return nil, err
	}

	tracked := r.stage.Tracked()
	var out []string
	for _, f := range files {
		if _, ok := tracked[f]; !ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// guardUntracked fails if an untracked file would be lost. With a nil
// mapping every untracked file counts; otherwise only those at paths in
// mapping.
func (r *Repository) guardUntracked(mapping map[string]string) error {
	files, err := r.untracked()
	if err != nil {
		return err
	}
	for _, f := range files {
		if mapping == nil {
			return errors.ErrUntrackedFileConflict.WithDetails(f)
		}
		if _, ok := mapping[f]; ok {
			return errors.ErrUntrackedFileConflict.WithDetails(f)
		}
	}
	return nil
}
