package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOK(t *testing.T) {
	resp := OK()
	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Nil(t, resp.Data)
}

func TestStatusOKWithData(t *testing.T) {
	resp := StatusOKWithData(map[string]any{"payment_id": 7})
	assert.Equal(t, StatusOK, resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestError(t *testing.T) {
	resp := Error("something broke")
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "something broke", resp.Error)
}

func TestValidationError(t *testing.T) {
	type request struct {
		PlanID string `validate:"required"`
		Days   int    `validate:"gt=0"`
	}

	err := validator.New().Struct(request{Days: -1})
	require.Error(t, err)
	validateErrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok)

	resp := ValidationError(validateErrs)
	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field PlanID is a required field")
	assert.Contains(t, resp.Error, "field Days must be greater than 0")
}
