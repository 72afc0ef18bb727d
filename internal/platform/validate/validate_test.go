// Copyright (c) 2026 Academia. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/academia/internal/platform/apperr"
	"github.com/taibuivan/academia/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "title", "Intro to Go", false},
		{"empty_string", "title", "", true},
		{"whitespace_only", "title", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, apperr.CodeValidation, ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_Chain_Failure tests error accumulation in the chain.
*/
func TestValidator_Chain_Failure(t *testing.T) {
	v := &validate.Validator{}

	err := v.
		Required("title", "").                           // Fails
		NonNegative("price", -1).                        // Fails
		OneOf("level", "Expert", "Beginner", "Advanced"). // Fails
		UUID("courseId", "c-1").                         // Fails
		MaxLen("category", "Go", 10).                    // Passes
		Err()

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Len(t, ae.Details, 4)
}

type paymentPayload struct {
	CourseID string `json:"courseId" validate:"required"`
	Amount   int64  `json:"amount" validate:"gte=0"`
	Provider string `json:"paymentProvider" validate:"omitempty,oneof=stripe"`
}

/*
TestStruct reports tag failures under their JSON names.
*/
func TestStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validate.Struct(&paymentPayload{CourseID: "c1", Amount: 4999, Provider: "stripe"}))
	})

	t.Run("invalid", func(t *testing.T) {
		err := validate.Struct(&paymentPayload{Amount: -5, Provider: "paypal"})
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, apperr.CodeValidation, ae.Code)

		fields := make([]string, 0, len(ae.Details))
		for _, d := range ae.Details {
			fields = append(fields, d.Field)
		}
		assert.ElementsMatch(t, []string{"courseId", "amount", "paymentProvider"}, fields)
	})
}
