package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOKWithData(t *testing.T) {
	resp := StatusOKWithData(map[string]any{"account_uid": "acc-1"})

	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.NotNil(t, resp.Data)
}

func TestError(t *testing.T) {
	resp := Error("something broke")

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "something broke", resp.Error)
}

func TestConflict(t *testing.T) {
	resp := Conflict("phone number already registered", "phone_taken")

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "phone_taken", resp.Reason)
}

func TestValidationError(t *testing.T) {
	type req struct {
		PhoneNumber string `validate:"required"`
		Email       string `validate:"omitempty,email"`
	}

	err := validator.New().Struct(req{Email: "not-an-email"})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))

	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "PhoneNumber is a required field")
	assert.Contains(t, resp.Error, "Email must be a valid email")
}
