// Package repository composes the object store, staging area, branch
// registry and history log into the operations the command line exposes.
// Every operation loads what it needs from disk, mutates, and persists
// before returning; nothing is cached across commands.
package repository

import (
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"twig/internal/config"
	"twig/internal/errors"
	"twig/internal/history"
	"twig/internal/object"
	"twig/internal/refs"
	"twig/internal/safe"
	"twig/internal/staging"
	"twig/internal/storage"
	"twig/internal/workspace"
)

type Repository struct {
	Paths    config.Paths
	Settings *config.Settings

	db        *badger.DB
	store     *safe.Safe
	refs      *refs.Registry
	history   *history.Log
	workspace *workspace.LocalWorkspace
	stage     *staging.Area
	logger    *zap.Logger
	now       func() time.Time
}

// Init creates a repository in root with the initial commit on the default
// branch.
func Init(root string, opts ...Option) (*Repository, error) {
	paths := config.NewPaths(root)
	if _, err := os.Stat(paths.Dir); err == nil {
		return nil, errors.ErrAlreadyInitialized
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking %s: %w", paths.Dir, err)
	}

	for _, dir := range []string{paths.Dir, paths.Objects, paths.Heads} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	r, err := open(paths, opts)
	if err != nil {
		return nil, err
	}

	initial := object.InitialCommit()
	if err := r.store.Put(initial); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.refs.Init(config.DefaultBranch, initial.ID()); err != nil {
		r.Close()
		return nil, err
	}

	r.stage = staging.New(initial.Files())
	if err := r.stage.Save(paths.Index); err != nil {
		r.Close()
		return nil, err
	}

	if err := r.history.Create(); err != nil {
		r.Close()
		return nil, err
	}
	if err := r.history.Append(config.DefaultBranch, initial.ID(), initial.Message(), initial.Timestamp()); err != nil {
		r.Close()
		return nil, err
	}

	r.logger.Debug("initialized repository",
		zap.String("root", root),
		zap.String("commit", initial.ID()))
	return r, nil
}

// Open loads the repository whose worktree root is root.
func Open(root string, opts ...Option) (*Repository, error) {
	paths := config.NewPaths(root)
	if info, err := os.Stat(paths.Dir); err != nil || !info.IsDir() {
		return nil, errors.ErrNotInitialized
	}

	r, err := open(paths, opts)
	if err != nil {
		return nil, err
	}

	r.stage, err = staging.Load(paths.Index)
	if err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func open(paths config.Paths, opts []Option) (*Repository, error) {
	r := &Repository{
		Paths:  paths,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.Settings == nil {
		settings, err := config.Load(paths)
		if err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
		r.Settings = settings
	}

	db, err := storage.Open(paths.Catalog)
	if err != nil {
		return nil, fmt.Errorf("opening object catalogue: %w", err)
	}

	store, err := safe.New(db, safe.Options{
		Root:      paths.Objects,
		CacheSize: r.Settings.CacheSize,
		Compression: safe.CompressionOptions{
			Enabled: r.Settings.Compression.Enabled,
			MinSize: r.Settings.Compression.MinSize,
			Level:   r.Settings.Compression.Level,
		},
	}, r.logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening object store: %w", err)
	}

	r.db = db
	r.store = store
	r.refs = refs.New(paths)
	r.history = history.New(paths.Logs)
	r.workspace = workspace.NewLocalWorkspace(paths.Root, r.logger)
	return r, nil
}

// Close releases the object catalogue.
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// Workspace exposes the worktree, for path resolution and watching.
func (r *Repository) Workspace() *workspace.LocalWorkspace {
	return r.workspace
}

// CurrentBranch returns the branch HEAD names.
func (r *Repository) CurrentBranch() (string, error) {
	return r.refs.Current()
}

// head returns the current branch and its tip commit.
func (r *Repository) head() (string, *object.Commit, error) {
	branch, id, err := r.refs.CurrentCommit()
	if err != nil {
		return "", nil, err
	}
	c, err := r.store.Commit(id)
	if err != nil {
		return "", nil, fmt.Errorf("loading tip of %s: %w", branch, err)
	}
	return branch, c, nil
}

// record persists a new commit, moves branch to it, logs it and resets the
// staging area to its mapping. The commit is stored before any pointer
// moves.
func (r *Repository) record(branch string, parents []string, files map[string]string, message string) (*object.Commit, error) {
	c := object.NewCommit(parents, files, r.now(), message)
	if err := r.store.Put(c); err != nil {
		return nil, err
	}
	if err := r.refs.Advance(branch, c.ID()); err != nil {
		return nil, err
	}
	if err := r.history.Append(branch, c.ID(), message, c.Timestamp()); err != nil {
		return nil, err
	}

	r.stage.Reset(c.Files())
	if err := r.stage.Save(r.Paths.Index); err != nil {
		return nil, err
	}

	r.logger.Debug("recorded commit",
		zap.String("branch", branch),
		zap.String("commit", c.ID()),
		zap.Int("parents", len(parents)),
		zap.Int("files", len(files)))
	return c, nil
}

// blobContent loads the bytes of a stored blob.
func (r *Repository) blobContent(id string) ([]byte, error) {
	b, err := r.store.Blob(id)
	if err != nil {
		return nil, err
	}
	return b.Content(), nil
}
