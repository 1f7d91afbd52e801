// Package refs keeps branch pointers under refs/heads and the HEAD
// indirection naming the current branch.
package refs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"twig/internal/config"
	"twig/internal/errors"
	"twig/internal/validation"
	"twig/shared/utils"
)

const (
	branchVersion = 1
	headPrefix    = "ref: refs/heads/"
)

// Branch is the persisted form of one branch pointer.
type Branch struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
	Commit  string `json:"commit"`
}

type Registry struct {
	heads string
	head  string
}

func New(paths config.Paths) *Registry {
	return &Registry{
		heads: paths.Heads,
		head:  paths.Head,
	}
}

// Init writes the first branch and points HEAD at it.
func (r *Registry) Init(name, commit string) error {
	if err := r.Create(name, commit); err != nil {
		return err
	}
	return r.SetCurrent(name)
}

func (r *Registry) Create(name, commit string) error {
	if err := validation.BranchName(name); err != nil {
		return err
	}
	if r.Exists(name) {
		return errors.ErrBranchExists.WithDetails(name)
	}
	return r.write(name, commit)
}

func (r *Registry) Delete(name string) error {
	if !r.Exists(name) {
		return errors.ErrBranchNotFound.WithDetails(name)
	}
	current, err := r.Current()
	if err != nil {
		return err
	}
	if current == name {
		return errors.ErrCannotDeleteCurrent.WithDetails(name)
	}

	if err := os.Remove(r.branchPath(name)); err != nil {
		return fmt.Errorf("deleting branch %s: %w", name, err)
	}
	return nil
}

// Get returns the commit name points to.
func (r *Registry) Get(name string) (string, error) {
	if validation.BranchName(name) != nil {
		return "", errors.ErrBranchNotFound.WithDetails(name)
	}

	data, err := os.ReadFile(r.branchPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.ErrBranchNotFound.WithDetails(name)
		}
		return "", fmt.Errorf("reading branch %s: %w", name, err)
	}

	var b Branch
	if err := json.Unmarshal(data, &b); err != nil {
		return "", fmt.Errorf("parsing branch %s: %w", name, err)
	}
	if b.Version != branchVersion || b.Name != name {
		return "", fmt.Errorf("parsing branch %s: unexpected record (version %d, name %q)", name, b.Version, b.Name)
	}
	return b.Commit, nil
}

func (r *Registry) Exists(name string) bool {
	if validation.BranchName(name) != nil {
		return false
	}
	info, err := os.Stat(r.branchPath(name))
	return err == nil && info.Mode().IsRegular()
}

// List returns all branch names, sorted.
func (r *Registry) List() ([]string, error) {
	entries, err := os.ReadDir(r.heads)
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && validation.BranchName(e.Name()) == nil {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// Current returns the branch HEAD names.
func (r *Registry) Current() (string, error) {
	data, err := os.ReadFile(r.head)
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}

	line := strings.TrimSpace(string(data))
	name, ok := strings.CutPrefix(line, headPrefix)
	if !ok || name == "" {
		return "", fmt.Errorf("reading HEAD: malformed content %q", line)
	}
	return name, nil
}

// CurrentCommit returns the current branch and its tip.
func (r *Registry) CurrentCommit() (string, string, error) {
	name, err := r.Current()
	if err != nil {
		return "", "", err
	}
	commit, err := r.Get(name)
	if err != nil {
		return "", "", fmt.Errorf("resolving HEAD: %w", err)
	}
	return name, commit, nil
}

// SetCurrent repoints HEAD. Branch pointers are left alone.
func (r *Registry) SetCurrent(name string) error {
	if !r.Exists(name) {
		return errors.ErrBranchNotFound.WithDetails(name)
	}
	if err := utils.WriteFileAtomic(r.head, []byte(headPrefix+name+"\n"), 0644); err != nil {
		return fmt.Errorf("writing HEAD: %w", err)
	}
	return nil
}

// Advance repoints an existing branch to commit.
func (r *Registry) Advance(name, commit string) error {
	if !r.Exists(name) {
		return errors.ErrBranchNotFound.WithDetails(name)
	}
	return r.write(name, commit)
}

func (r *Registry) write(name, commit string) error {
	data, err := json.Marshal(Branch{
		Version: branchVersion,
		Name:    name,
		Commit:  commit,
	})
	if err != nil {
		return fmt.Errorf("encoding branch %s: %w", name, err)
	}
	if err := utils.WriteFileAtomic(r.branchPath(name), data, 0644); err != nil {
		return fmt.Errorf("writing branch %s: %w", name, err)
	}
	return nil
}

func (r *Registry) branchPath(name string) string {
	return filepath.Join(r.heads, name)
}
