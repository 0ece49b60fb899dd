package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentForm struct {
	Month string `json:"payment_month" validate:"required,yearmonth"`
	Name  string `json:"name" validate:"required,notblank"`
	Role  string `json:"role" validate:"omitempty,oneof=staff manager"`
}

func TestYearMonthTag(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(paymentForm{Month: "2025-03", Name: "Ana"}))

	err := v.Validate(paymentForm{Month: "2025-13", Name: "Ana"})
	require.Error(t, err)
	assert.Equal(t, "payment_month must be a month in YYYY-MM format", v.FormatValidationErrors(err)["payment_month"])

	err = v.Validate(paymentForm{Month: "03/2025", Name: "Ana"})
	assert.Error(t, err)
}

func TestFormatValidationErrorsUsesJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(paymentForm{Name: "   ", Role: "owner"})
	require.Error(t, err)

	fields := v.FormatValidationErrors(err)
	assert.Equal(t, "payment_month is required", fields["payment_month"])
	assert.Equal(t, "name must not be blank", fields["name"])
	assert.Equal(t, "role must be one of: staff manager", fields["role"])
}
