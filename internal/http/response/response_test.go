package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOKWithData(t *testing.T) {
	resp := OKWithData(map[string]any{"id": 1})
	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.NotNil(t, resp.Data)
}

func TestError(t *testing.T) {
	resp := Error("boom")
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "boom", resp.Error)
	assert.Nil(t, resp.Data)
}

func TestValidationError(t *testing.T) {
	type form struct {
		Username string `validate:"required"`
		Password string `validate:"required,min=8"`
		Email    string `validate:"omitempty,email"`
	}

	v := validator.New()
	err := v.Struct(form{Password: "short", Email: "nope"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Username is a required field")
	assert.Contains(t, resp.Error, "field Password is too short")
	assert.Contains(t, resp.Error, "field Email must be a valid email")
}
