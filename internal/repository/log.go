package repository

import (
	"fmt"
	"strings"

	"twig/internal/errors"
	"twig/internal/object"
)

// DateLayout is how log output renders commit timestamps.
const DateLayout = "Mon Jan 2 15:04:05 2006 -0700"

// Log returns the first-parent chain from the current tip back to the
// initial commit.
func (r *Repository) Log() ([]*object.Commit, error) {
	_, c, err := r.head()
	if err != nil {
		return nil, err
	}

	chain := []*object.Commit{c}
	for {
		parent, ok := c.FirstParent()
		if !ok {
			return chain, nil
		}
		if c, err = r.store.Commit(parent); err != nil {
			return nil, fmt.Errorf("walking log: %w", err)
		}
		chain = append(chain, c)
	}
}

// GlobalLog returns every commit ever made, most recent first.
func (r *Repository) GlobalLog() ([]*object.Commit, error) {
	entries, err := r.history.Entries()
	if err != nil {
		return nil, err
	}

	var commits []*object.Commit
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.Commit] {
			continue
		}
		seen[e.Commit] = true

		c, err := r.store.Commit(e.Commit)
		if err != nil {
			return nil, fmt.Errorf("loading logged commit: %w", err)
		}
		commits = append(commits, c)
	}
	return commits, nil
}

// Find returns the ids of commits whose message is exactly message.
func (r *Repository) Find(message string) ([]string, error) {
	ids, err := r.history.FindByMessage(message)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errors.ErrNoMatchingCommit.WithDetails(message)
	}
	return ids, nil
}

// FormatCommit renders one log entry, including the trailing blank line.
func FormatCommit(c *object.Commit) string {
	var b strings.Builder
	b.WriteString("===\n")
	fmt.Fprintf(&b, "commit %s\n", c.ID())
	if c.IsMerge() {
		parents := c.Parents()
		fmt.Fprintf(&b, "Merge: %s %s\n", short(parents[0]), short(parents[1]))
	}
	fmt.Fprintf(&b, "Date: %s\n", c.Timestamp().Local().Format(DateLayout))
	b.WriteString(c.Message())
	b.WriteString("\n\n")
	return b.String()
}

func short(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}
