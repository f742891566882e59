package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	typed := Clone(ErrNoAssignments, "faculty f-1 has no assignments")
	wrapped := Wrap(typed, ErrInternal.Code, ErrInternal.Status, "outer")

	assert.Same(t, typed, FromError(typed))
	assert.Equal(t, ErrInternal.Code, FromError(wrapped).Code)
	assert.True(t, stdErrors.Is(wrapped, typed))
}

func TestFromErrorWrapsPlainErrors(t *testing.T) {
	appErr := FromError(stdErrors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Equal(t, "internal server error: boom", appErr.Error())
	assert.Nil(t, FromError(nil))
}

func TestCloneLeavesOriginalUntouched(t *testing.T) {
	clone := Clone(ErrLocked, "busy")
	assert.Equal(t, "busy", clone.Message)
	assert.Equal(t, "timetable generation already in progress", ErrLocked.Message)
	assert.Equal(t, ErrLocked.Code, clone.Code)
	assert.Nil(t, Clone(nil, "x"))
}

func TestIsMatchesByCode(t *testing.T) {
	locked := Clone(ErrLocked, "batch b-1 is busy")
	wrapped := Wrap(locked, ErrInternal.Code, ErrInternal.Status, "generation failed")

	assert.True(t, stdErrors.Is(locked, ErrLocked))
	assert.True(t, stdErrors.Is(wrapped, ErrLocked))
	assert.False(t, stdErrors.Is(locked, ErrConflict))
	assert.True(t, HasCode(wrapped, ErrLocked.Code))
	assert.False(t, HasCode(stdErrors.New("plain"), ErrLocked.Code))
}
