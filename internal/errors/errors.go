// Package errors holds the user-facing error catalogue. Anything that is not
// an *Error is treated as fatal by the command layer.
package errors

import (
	stderrors "errors"
	"fmt"
)

type ErrorType string

const (
	ErrorTypeAlreadyInitialized    ErrorType = "ALREADY_INITIALIZED"
	ErrorTypeNotInitialized        ErrorType = "NOT_INITIALIZED"
	ErrorTypePathNotFound          ErrorType = "PATH_NOT_FOUND"
	ErrorTypeNothingToRemove       ErrorType = "NOTHING_TO_REMOVE"
	ErrorTypeEmptyStagingArea      ErrorType = "EMPTY_STAGING_AREA"
	ErrorTypeBlankMessage          ErrorType = "BLANK_MESSAGE"
	ErrorTypeNoMatchingCommit      ErrorType = "NO_MATCHING_COMMIT"
	ErrorTypeBranchNotFound        ErrorType = "BRANCH_NOT_FOUND"
	ErrorTypeBranchExists          ErrorType = "BRANCH_EXISTS"
	ErrorTypeCannotDeleteCurrent   ErrorType = "CANNOT_DELETE_CURRENT"
	ErrorTypeAlreadyCurrent        ErrorType = "ALREADY_CURRENT"
	ErrorTypeUntrackedFileConflict ErrorType = "UNTRACKED_FILE_CONFLICT"
	ErrorTypeFileNotInCommit       ErrorType = "FILE_NOT_IN_COMMIT"
	ErrorTypeCommitNotFound        ErrorType = "COMMIT_NOT_FOUND"
	ErrorTypeAmbiguousCommitID     ErrorType = "AMBIGUOUS_COMMIT_ID"
	ErrorTypeObjectNotFound        ErrorType = "OBJECT_NOT_FOUND"
	ErrorTypeUncommittedChanges    ErrorType = "UNCOMMITTED_CHANGES"
	ErrorTypeSelfMergeRejected     ErrorType = "SELF_MERGE_REJECTED"
	ErrorTypeInvalidBranchName     ErrorType = "INVALID_BRANCH_NAME"
	ErrorTypeIncorrectOperands     ErrorType = "INCORRECT_OPERANDS"
	ErrorTypeUnknownCommand        ErrorType = "UNKNOWN_COMMAND"
)

type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on Type so callers can compare against the sentinels below
// regardless of message or details.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

var (
	ErrAlreadyInitialized    = New(ErrorTypeAlreadyInitialized, "A twig repository already exists in the current directory.")
	ErrNotInitialized        = New(ErrorTypeNotInitialized, "Not in an initialized twig directory.")
	ErrPathNotFound          = New(ErrorTypePathNotFound, "File does not exist.")
	ErrNothingToRemove       = New(ErrorTypeNothingToRemove, "No reason to remove the file.")
	ErrEmptyStagingArea      = New(ErrorTypeEmptyStagingArea, "No changes added to the commit.")
	ErrBlankMessage          = New(ErrorTypeBlankMessage, "Please enter a commit message.")
	ErrNoMatchingCommit      = New(ErrorTypeNoMatchingCommit, "Found no commit with that message.")
	ErrBranchNotFound        = New(ErrorTypeBranchNotFound, "A branch with that name does not exist.")
	ErrBranchExists          = New(ErrorTypeBranchExists, "A branch with that name already exists.")
	ErrCannotDeleteCurrent   = New(ErrorTypeCannotDeleteCurrent, "Cannot remove the current branch.")
	ErrAlreadyCurrent        = New(ErrorTypeAlreadyCurrent, "No need to checkout the current branch.")
	ErrUntrackedFileConflict = New(ErrorTypeUntrackedFileConflict, "There is an untracked file in the way; delete it, or add and commit it first.")
	ErrFileNotInCommit       = New(ErrorTypeFileNotInCommit, "File does not exist in that commit.")
	ErrCommitNotFound        = New(ErrorTypeCommitNotFound, "No commit with that id exists.")
	ErrAmbiguousCommitID     = New(ErrorTypeAmbiguousCommitID, "Commit id prefix is ambiguous.")
	ErrObjectNotFound        = New(ErrorTypeObjectNotFound, "Object not found.")
	ErrUncommittedChanges    = New(ErrorTypeUncommittedChanges, "You have uncommitted changes.")
	ErrSelfMergeRejected     = New(ErrorTypeSelfMergeRejected, "Cannot merge a branch with itself.")
	ErrInvalidBranchName     = New(ErrorTypeInvalidBranchName, "Invalid branch name.")
	ErrIncorrectOperands     = New(ErrorTypeIncorrectOperands, "Incorrect operands.")
	ErrUnknownCommand        = New(ErrorTypeUnknownCommand, "No command with that name exists.")
)

// NoSuchBranch is the checkout flavour of ErrBranchNotFound.
func NoSuchBranch(name string) *Error {
	return &Error{
		Type:    ErrorTypeBranchNotFound,
		Message: "No such branch exists.",
		Details: name,
	}
}

// ObjectNotFound reports an unknown digest. It is user-facing only when the
// digest came from the user; the orchestrator converts it where that applies.
func ObjectNotFound(digest string) *Error {
	return &Error{
		Type:    ErrorTypeObjectNotFound,
		Message: fmt.Sprintf("object %s not found", digest),
		Details: digest,
	}
}

// userFacing lists the types reported as a single line at the command
// boundary. ObjectNotFound is absent on purpose: a dangling digest inside
// the repository is store corruption.
var userFacing = map[ErrorType]bool{
	ErrorTypeAlreadyInitialized:    true,
	ErrorTypeNotInitialized:        true,
	ErrorTypePathNotFound:          true,
	ErrorTypeNothingToRemove:       true,
	ErrorTypeEmptyStagingArea:      true,
	ErrorTypeBlankMessage:          true,
	ErrorTypeNoMatchingCommit:      true,
	ErrorTypeBranchNotFound:        true,
	ErrorTypeBranchExists:          true,
	ErrorTypeCannotDeleteCurrent:   true,
	ErrorTypeAlreadyCurrent:        true,
	ErrorTypeUntrackedFileConflict: true,
	ErrorTypeFileNotInCommit:       true,
	ErrorTypeCommitNotFound:        true,
	ErrorTypeAmbiguousCommitID:     true,
	ErrorTypeUncommittedChanges:    true,
	ErrorTypeSelfMergeRejected:     true,
	ErrorTypeInvalidBranchName:     true,
	ErrorTypeIncorrectOperands:     true,
	ErrorTypeUnknownCommand:        true,
}

// IsUserError reports whether err (or anything it wraps) belongs to the
// user-facing tier.
func IsUserError(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	return userFacing[e.Type]
}

// Message returns the one-line message for a user-facing error.
func Message(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Is and As re-export the standard helpers so callers need one import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
