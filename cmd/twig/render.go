package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"twig/internal/object"
	"twig/internal/repository"
)

type paint func(a ...any) string

type palette struct {
	current  paint
	staged   paint
	removed  paint
	modified paint
	untrack  paint
	added    paint
	deleted  paint
	header   paint
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) paint {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		current:  mk(color.FgGreen, color.Bold),
		staged:   mk(color.FgGreen),
		removed:  mk(color.FgRed),
		modified: mk(color.FgYellow),
		untrack:  mk(color.FgBlue),
		added:    mk(color.FgGreen),
		deleted:  mk(color.FgRed),
		header:   mk(color.FgCyan),
	}
}

func renderStatus(w io.Writer, s *repository.Status, p palette) {
	fmt.Fprintln(w, "=== Branches ===")
	for _, b := range s.Branches {
		if b == s.Current {
			fmt.Fprintln(w, p.current("*"+b))
			continue
		}
		fmt.Fprintln(w, b)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Staged Files ===")
	for _, path := range s.Staged {
		fmt.Fprintln(w, p.staged(path))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Removed Files ===")
	for _, path := range s.Removed {
		fmt.Fprintln(w, p.removed(path))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Modifications Not Staged For Commit ===")
	for _, ch := range s.Unstaged {
		fmt.Fprintln(w, p.modified(fmt.Sprintf("%s (%s)", ch.Path, ch.Kind)))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Untracked Files ===")
	for _, path := range s.Untracked {
		fmt.Fprintln(w, p.untrack(path))
	}
	fmt.Fprintln(w)
}

func renderLog(w io.Writer, commits []*object.Commit, p palette) {
	for _, c := range commits {
		entry := repository.FormatCommit(c)
		// Only the commit line is coloured; the rest stays byte-for-byte.
		first := "===\ncommit " + c.ID() + "\n"
		if strings.HasPrefix(entry, first) {
			entry = "===\n" + p.header("commit "+c.ID()) + "\n" + entry[len(first):]
		}
		io.WriteString(w, entry)
	}
}

func renderDiff(w io.Writer, diffs []repository.FileDiff, p palette) {
	for _, d := range diffs {
		fmt.Fprintf(w, "diff a/%s b/%s\n", d.Path, d.Path)
		fmt.Fprintf(w, "--- a/%s\n", d.Path)
		if d.Kind == repository.Deleted {
			fmt.Fprintln(w, "+++ /dev/null")
		} else {
			fmt.Fprintf(w, "+++ b/%s\n", d.Path)
		}

		for _, line := range strings.Split(d.Result.Format(), "\n") {
			switch {
			case line == "":
				continue
			case strings.HasPrefix(line, "@@"):
				fmt.Fprintln(w, p.header(line))
			case strings.HasPrefix(line, "+"):
				fmt.Fprintln(w, p.added(line))
			case strings.HasPrefix(line, "-"):
				fmt.Fprintln(w, p.deleted(line))
			default:
				fmt.Fprintln(w, line)
			}
		}
	}
}
