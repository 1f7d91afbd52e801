package config

import (
	"path/filepath"
)

const (
	MarkerDir     = ".twig"
	DefaultBranch = "master"
)

// Paths is the explicit repository configuration handed to every component.
// Nothing in the module derives repository locations from the process
// working directory except FindRoot in the workspace package.
type Paths struct {
	Root    string // worktree root
	Dir     string // <root>/.twig
	Objects string
	Heads   string
	Head    string
	Index   string
	Logs    string
	Catalog string
	Config  string
}

// NewPaths derives every location from the worktree root.
func NewPaths(root string) Paths {
	dir := filepath.Join(root, MarkerDir)
	return Paths{
		Root:    root,
		Dir:     dir,
		Objects: filepath.Join(dir, "objects"),
		Heads:   filepath.Join(dir, "refs", "heads"),
		Head:    filepath.Join(dir, "HEAD"),
		Index:   filepath.Join(dir, "index"),
		Logs:    filepath.Join(dir, "logs"),
		Catalog: filepath.Join(dir, "catalog"),
		Config:  filepath.Join(dir, "config.json"),
	}
}
