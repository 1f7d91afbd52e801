package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesOnType(t *testing.T) {
	err := NoSuchBranch("dev")
	assert.True(t, Is(err, ErrBranchNotFound))
	assert.False(t, Is(err, ErrBranchExists))

	wrapped := fmt.Errorf("checking out: %w", err)
	assert.True(t, Is(wrapped, ErrBranchNotFound))
	assert.Equal(t, "No such branch exists.", Message(wrapped))
}

func TestIsUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"catalogue error", ErrEmptyStagingArea, true},
		{"wrapped catalogue error", fmt.Errorf("commit: %w", ErrBlankMessage), true},
		{"dangling object", ObjectNotFound("abcd"), false},
		{"plain error", fmt.Errorf("disk full"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUserError(tt.err))
		})
	}
}

func TestWithDetailsKeepsSentinel(t *testing.T) {
	err := ErrPathNotFound.WithDetails("a.txt")
	assert.Equal(t, "a.txt", err.Details)
	assert.Nil(t, ErrPathNotFound.Details)
	assert.True(t, Is(err, ErrPathNotFound))
}
