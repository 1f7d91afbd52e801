package validation

import (
	"strings"
	"unicode"

	"twig/internal/errors"
)

// BranchName rejects names that cannot live as a single file under
// refs/heads or that read like a flag.
func BranchName(name string) error {
	if name == "" {
		return errors.ErrInvalidBranchName.WithDetails(name)
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "-") {
		return errors.ErrInvalidBranchName.WithDetails(name)
	}
	if strings.ContainsAny(name, `/\:`) || name == ".." {
		return errors.ErrInvalidBranchName.WithDetails(name)
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return errors.ErrInvalidBranchName.WithDetails(name)
		}
	}
	return nil
}

// Message rejects empty or whitespace-only commit messages.
func Message(msg string) error {
	if strings.TrimSpace(msg) == "" {
		return errors.ErrBlankMessage
	}
	return nil
}

// CommitRef accepts full or abbreviated hex commit ids.
func CommitRef(ref string) error {
	if ref == "" {
		return errors.ErrCommitNotFound.WithDetails(ref)
	}
	for _, r := range ref {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return errors.ErrCommitNotFound.WithDetails(ref)
		}
	}
	return nil
}
