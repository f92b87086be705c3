package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with key",
			err:  NewKeyError("upload", "out/a.txt", errors.New("boom")),
			want: "push.upload out/a.txt: boom",
		},
		{
			name: "without key",
			err:  NewError("list", errors.New("boom")),
			want: "push.list: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	err := NewKeyError("delete", "k", fmt.Errorf("backend: %w", ErrObjectNotFound))

	assert.True(t, IsObjectNotFound(err))
	assert.Equal(t, CodeNotFound, err.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, ""},
		{"destination", fmt.Errorf("parse: %w", ErrInvalidDestination), CodeInvalidConfig},
		{"unsupported", ErrUnsupportedProvider, CodeInvalidConfig},
		{"missing bucket", ErrMissingBucket, CodeInvalidConfig},
		{"pattern", ErrInvalidPattern, CodeInvalidInput},
		{"access denied", ErrAccessDenied, CodeForbidden},
		{"cancelled", context.Canceled, CodeTimeout},
		{"explicit code wins", NewError("fingerprint", errors.New("eof")).WithCode(CodeIO), CodeIO},
		{"unknown", errors.New("other"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestIsInvalidConfig(t *testing.T) {
	assert.True(t, IsInvalidConfig(fmt.Errorf("x: %w", ErrMissingBucket)))
	assert.False(t, IsInvalidConfig(ErrObjectNotFound))
}
