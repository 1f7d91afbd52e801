package repository

import (
	"go.uber.org/zap"

	"twig/internal/errors"
	"twig/internal/object"
	"twig/internal/validation"
)

// Add stages the working content of path. A tracked path whose file is
// gone is staged for removal.
func (r *Repository) Add(path string) error {
	if r.workspace.ShouldIgnore(path) {
		return errors.ErrPathNotFound.WithDetails(path)
	}

	_, head, err := r.head()
	if err != nil {
		return err
	}
	committed, _ := head.File(path)

	if !r.workspace.Exists(path) {
		if committed == "" && r.stage.IsAdded(path) {
			// Staged but never committed: forget it.
			if _, err := r.stage.Unstage(path, false); err != nil {
				return err
			}
			return r.stage.Save(r.Paths.Index)
		}
		if err := r.stage.StageRemoval(path); err != nil {
			return err
		}
		r.logger.Debug("staged removal of missing file", zap.String("path", path))
		return r.stage.Save(r.Paths.Index)
	}

	data, err := r.workspace.Read(path)
	if err != nil {
		return err
	}

	blob := object.NewBlob(path, data)
	if r.stage.Stage(path, blob.ID(), committed) {
		if err := r.store.Put(blob); err != nil {
			return err
		}
	}

	r.logger.Debug("staged file",
		zap.String("path", path),
		zap.String("blob", blob.ID()))
	return r.stage.Save(r.Paths.Index)
}

// Commit records the staged snapshot on the current branch.
func (r *Repository) Commit(message string) (*object.Commit, error) {
	if r.stage.IsClean() {
		return nil, errors.ErrEmptyStagingArea
	}
	if err := validation.Message(message); err != nil {
		return nil, err
	}

	branch, head, err := r.head()
	if err != nil {
		return nil, err
	}
	return r.record(branch, []string{head.ID()}, r.stage.NextCommitMapping(), message)
}

// Remove unstages path, or stages it for removal and deletes the working
// file when the current commit tracks it.
func (r *Repository) Remove(path string) error {
	_, head, err := r.head()
	if err != nil {
		return err
	}
	_, committed := head.File(path)

	deleteFile, err := r.stage.Unstage(path, committed)
	if err != nil {
		return err
	}
	if err := r.stage.Save(r.Paths.Index); err != nil {
		return err
	}

	if deleteFile {
		if err := r.workspace.Remove(path); err != nil {
			return err
		}
	}
	r.logger.Debug("removed file",
		zap.String("path", path),
		zap.Bool("deleted", deleteFile))
	return nil
}
