package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type user struct {
	Name string `json:"name" validate:"required,max=4"`
	Room string `json:"room" validate:"required"`
}

type joinInput struct {
	User user `json:"user"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Validate(joinInput{User: user{Name: "Bob", Room: "r1"}}))

	err := v.Validate(joinInput{User: user{Name: "Alexander"}})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, ValidationError{
		Field:   "name",
		Code:    "MAX",
		Message: "joinInput.user.name must not exceed 4 characters",
	}, verr.Fields[0])
	assert.Equal(t, "room", verr.Fields[1].Field)
	assert.Equal(t, "REQUIRED", verr.Fields[1].Code)

	err = v.Validate("not a struct")
	require.Error(t, err)
	assert.False(t, errors.As(err, &verr))
}
