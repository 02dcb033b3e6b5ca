package errors

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoriesMatchSentinelsAndCause(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"database", DatabaseError("upsert", io.ErrUnexpectedEOF), ErrDatabaseError},
		{"git", GitError("open", io.ErrUnexpectedEOF), ErrGitOperationFailed},
		{"config", ConfigError("invalid configuration", io.ErrUnexpectedEOF), ErrConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(tt.err, "scan")
			assert.ErrorIs(t, wrapped, tt.kind)
			assert.ErrorIs(t, wrapped, io.ErrUnexpectedEOF)
			for _, other := range []error{ErrDatabaseError, ErrGitOperationFailed, ErrConfigError, ErrNotFound} {
				if other != tt.kind {
					assert.False(t, errors.Is(wrapped, other), "%v", other)
				}
			}
		})
	}
}

func TestValidationFailed(t *testing.T) {
	err := Wrap(ValidationFailed([]FieldError{{Field: "root", Message: "is required"}}), "scan")

	assert.True(t, IsValidation(err))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, []FieldError{{Field: "root", Message: "is required"}}, FieldErrors(err))
	assert.Equal(t, "scan: validation failed (root: is required): invalid input", err.Error())
	assert.Nil(t, FieldErrors(io.EOF))
}

func TestNotFoundAndSkip(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("project", ErrNotFound)))
	assert.True(t, IsNotFound(ErrNotFound))
	assert.False(t, IsNotFound(DatabaseError("get", io.EOF)))

	assert.True(t, IsSkip(Wrap(ErrNoCommits, "history")))
	assert.True(t, IsSkip(ErrNotRepository))
	assert.False(t, IsSkip(GitError("open", io.EOF)))
	assert.Nil(t, Wrap(nil, "ignored"))
}
