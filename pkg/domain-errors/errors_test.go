package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errCause = errors.New("no units left")

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(errCause, CodeConflict, "unit not booked")

	assert.True(t, errors.Is(err, errCause))
	assert.True(t, HasCode(err, CodeConflict))
	assert.Equal(t, "unit not booked: no units left", err.Error())
}

func TestIsSearchesNestedCodes(t *testing.T) {
	inner := New(CodeNotFound, "project not found")
	outer := Wrap(inner, CodeInternal, "lookup failed")

	assert.True(t, Is(outer, CodeInternal))
	assert.True(t, Is(outer, CodeNotFound))
	assert.False(t, Is(outer, CodeConflict))
	assert.True(t, HasCode(outer, CodeInternal))
	assert.False(t, HasCode(outer, CodeNotFound))
}

func TestCodeOfPlainError(t *testing.T) {
	_, ok := CodeOf(fmt.Errorf("plain: %w", errCause))
	assert.False(t, ok)
	assert.False(t, Is(nil, CodeInternal))
}
