package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOKWithData(t *testing.T) {
	resp := StatusOKWithData(map[string]string{"key": "value"})
	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.NotNil(t, resp.Data)
}

func TestStatusOKWithMessage(t *testing.T) {
	resp := StatusOKWithMessage("user not found, event ignored")
	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, "user not found, event ignored", resp.Message)
	assert.Nil(t, resp.Data)
}

func TestError(t *testing.T) {
	resp := Error("invalid request body")
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "invalid request body", resp.Error)
}

func TestValidationError(t *testing.T) {
	type request struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=6"`
	}

	validate := validator.New()
	err := validate.Struct(request{Email: "not-an-email", Password: ""})
	require.Error(t, err)

	var validateErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validateErrs)

	resp := ValidationError(validateErrs)
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field Email must be a valid email")
	assert.Contains(t, resp.Error, "field Password is a required field")
}
