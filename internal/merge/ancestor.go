// Package merge finds the split point of two branches and decides, path by
// path, how their snapshots combine.
package merge

import (
	"fmt"

	"twig/internal/config"
	"twig/internal/object"
)

// CommitLoader is the part of the object store the ancestor search needs.
type CommitLoader interface {
	Commit(id string) (*object.Commit, error)
}

// LowestCommonAncestor returns the split point of a and b. strategy is
// config.AncestorAllParents or config.AncestorFirstParent.
func LowestCommonAncestor(store CommitLoader, strategy, a, b string) (string, error) {
	switch strategy {
	case config.AncestorAllParents:
		return allParentsLCA(store, a, b)
	case config.AncestorFirstParent:
		return firstParentLCA(store, a, b)
	default:
		return "", fmt.Errorf("unknown ancestor strategy %q", strategy)
	}
}

// allParentsLCA collects every ancestor of b, then walks a's ancestry
// breadth first across both parents; the first commit shared is the nearest
// to a.
func allParentsLCA(store CommitLoader, a, b string) (string, error) {
	ofB, err := ancestors(store, b)
	if err != nil {
		return "", err
	}

	queue := []string{a}
	seen := map[string]bool{a: true}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if ofB[id] {
			return id, nil
		}

		c, err := store.Commit(id)
		if err != nil {
			return "", fmt.Errorf("walking ancestors of %s: %w", a, err)
		}
		for _, p := range c.Parents() {
			if !seen[p] {
				seen[p] = true
				queue = append(queue, p)
			}
		}
	}
	return "", fmt.Errorf("commits %s and %s share no ancestor", a, b)
}

// ancestors returns id and everything reachable from it.
func ancestors(store CommitLoader, id string) (map[string]bool, error) {
	seen := map[string]bool{id: true}
	stack := []string{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c, err := store.Commit(cur)
		if err != nil {
			return nil, fmt.Errorf("walking ancestors of %s: %w", id, err)
		}
		for _, p := range c.Parents() {
			if !seen[p] {
				seen[p] = true
				stack = append(stack, p)
			}
		}
	}
	return seen, nil
}

// firstParentLCA treats history as a first-parent chain: it lines the two
// commits up at equal depth and steps both back until they meet.
func firstParentLCA(store CommitLoader, a, b string) (string, error) {
	da, err := depth(store, a)
	if err != nil {
		return "", err
	}
	db, err := depth(store, b)
	if err != nil {
		return "", err
	}

	for ; da > db; da-- {
		if a, err = firstParent(store, a); err != nil {
			return "", err
		}
	}
	for ; db > da; db-- {
		if b, err = firstParent(store, b); err != nil {
			return "", err
		}
	}

	for a != b {
		c, err := store.Commit(a)
		if err != nil {
			return "", err
		}
		if c.IsRoot() {
			break
		}
		if a, err = firstParent(store, a); err != nil {
			return "", err
		}
		if b, err = firstParent(store, b); err != nil {
			return "", err
		}
	}
	return a, nil
}

func depth(store CommitLoader, id string) (int, error) {
	n := 0
	for {
		c, err := store.Commit(id)
		if err != nil {
			return 0, fmt.Errorf("measuring depth: %w", err)
		}
		p, ok := c.FirstParent()
		if !ok {
			return n, nil
		}
		id = p
		n++
	}
}

func firstParent(store CommitLoader, id string) (string, error) {
	c, err := store.Commit(id)
	if err != nil {
		return "", err
	}
	p, ok := c.FirstParent()
	if !ok {
		return id, nil
	}
	return p, nil
}
