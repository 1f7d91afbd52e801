// internal/workspace/local.go
package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"twig/internal/config"
	"twig/internal/errors"
	"twig/shared/utils"
)

// FindRoot walks up from startDir to the directory holding the repository
// marker.
func FindRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, config.MarkerDir)); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", errors.ErrNotInitialized
}

// LocalWorkspace gives root-relative, slash-separated access to the plain
// files of a worktree.
type LocalWorkspace struct {
	Root   string
	Logger *zap.Logger
}

func NewLocalWorkspace(root string, logger *zap.Logger) *LocalWorkspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalWorkspace{Root: root, Logger: logger}
}

// ShouldIgnore reports whether path lies inside the repository marker
// directory. Every other file, dotfiles included, belongs to the worktree.
func (w *LocalWorkspace) ShouldIgnore(path string) bool {
	path = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "./")
	if path == "" || path == "." {
		return true
	}
	first, _, _ := strings.Cut(path, "/")
	return first == config.MarkerDir
}

// Rel converts a path given relative to cwd (or absolute) into a worktree
// path. Paths outside the worktree are reported as missing.
func (w *LocalWorkspace) Rel(cwd, path string) (string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(cwd, path)
	}

	rel, err := filepath.Rel(w.Root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.ErrPathNotFound.WithDetails(path)
	}
	return filepath.ToSlash(rel), nil
}

// ListFiles returns every regular, non-ignored file, sorted.
func (w *LocalWorkspace) ListFiles() ([]string, error) {
	var files []string

	err := filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == w.Root {
			return nil
		}

		rel, err := filepath.Rel(w.Root, path)
		if err != nil {
			return fmt.Errorf("getting relative path: %w", err)
		}
		if w.ShouldIgnore(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type().IsRegular() {
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking worktree: %w", err)
	}

	slices.Sort(files)
	return files, nil
}

// Exists reports whether path is a regular file.
func (w *LocalWorkspace) Exists(path string) bool {
	info, err := os.Stat(w.abs(path))
	return err == nil && info.Mode().IsRegular()
}

func (w *LocalWorkspace) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(w.abs(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrPathNotFound.WithDetails(path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// Write replaces path with data, creating parent directories.
func (w *LocalWorkspace) Write(path string, data []byte) error {
	if err := utils.WriteFileAtomic(w.abs(path), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Remove deletes path if present and prunes directories it leaves empty.
func (w *LocalWorkspace) Remove(path string) error {
	if err := os.Remove(w.abs(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	w.pruneEmptyParents(path)
	return nil
}

// Clear removes every file ListFiles reports.
func (w *LocalWorkspace) Clear() error {
	files, err := w.ListFiles()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := w.Remove(f); err != nil {
			return err
		}
	}
	w.Logger.Debug("cleared worktree", zap.Int("files", len(files)))
	return nil
}

func (w *LocalWorkspace) pruneEmptyParents(path string) {
	dir := filepath.Dir(w.abs(path))
	for dir != w.Root && strings.HasPrefix(dir, w.Root) {
		// Remove fails on non-empty directories, which ends the walk.
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (w *LocalWorkspace) abs(path string) string {
	return filepath.Join(w.Root, filepath.FromSlash(path))
}
