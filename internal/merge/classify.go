package merge

import (
	"bytes"

	"twig/shared/utils"
)

type Action int

const (
	// Keep leaves the current side as it is.
	Keep Action = iota
	// Take writes and stages the target's blob.
	Take
	// Delete removes and untracks the path.
	Delete
	// Conflict writes both sides between markers.
	Conflict
)

func (a Action) String() string {
	switch a {
	case Keep:
		return "keep"
	case Take:
		return "take"
	case Delete:
		return "delete"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Resolution is the outcome for one path. Base, Current and Target hold the
// blob digest on each side, empty where the path is absent.
type Resolution struct {
	Path    string
	Action  Action
	Base    string
	Current string
	Target  string
}

// Classify compares the split point, current and target mappings and
// returns one resolution per path whose current state must change, sorted
// by path. Paths where the current side already wins are omitted.
//
// The rules, with absence treated as a value:
//
//	current == target  keep (both sides agree)
//	base == current    take target (only the target changed; absent means delete)
//	base == target     keep (only the current side changed)
//	otherwise          conflict
func Classify(base, current, target map[string]string) []Resolution {
	paths := make(map[string]struct{}, len(current)+len(target))
	for p := range base {
		paths[p] = struct{}{}
	}
	for p := range current {
		paths[p] = struct{}{}
	}
	for p := range target {
		paths[p] = struct{}{}
	}

	var out []Resolution
	for _, p := range utils.SortedKeys(paths) {
		r := Resolution{Path: p, Base: base[p], Current: current[p], Target: target[p]}
		switch {
		case r.Current == r.Target:
			continue
		case r.Base == r.Current:
			if r.Target == "" {
				r.Action = Delete
			} else {
				r.Action = Take
			}
		case r.Base == r.Target:
			continue
		default:
			r.Action = Conflict
		}
		out = append(out, r)
	}
	return out
}

// ConflictContent renders both sides of a conflicted file. A side that
// deleted the file contributes nothing between its markers.
func ConflictContent(current, target []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("<<<<<<< HEAD\n")
	buf.Write(current)
	buf.WriteString("=======\n")
	buf.Write(target)
	buf.WriteString(">>>>>>>")
	return buf.Bytes()
}
