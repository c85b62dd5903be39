package validation_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/validation"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Username string `json:"username" validate:"required,min=3,max=30"`
}

type rateRequest struct {
	Rating int `json:"rating" validate:"required,gte=1,lte=5"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	req := registerRequest{
		Email:    "test@example.com",
		Password: "password123",
		Username: "reader",
	}

	assert.NoError(t, v.Validate(req))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       registerRequest
		wantField string
	}{
		{
			name: "missing required field",
			req: registerRequest{
				Email:    "test@example.com",
				Password: "password123",
			},
			wantField: "username",
		},
		{
			name: "invalid email",
			req: registerRequest{
				Email:    "not-an-email",
				Password: "password123",
				Username: "reader",
			},
			wantField: "email",
		},
		{
			name: "password too short",
			req: registerRequest{
				Email:    "test@example.com",
				Password: "short",
				Username: "reader",
			},
			wantField: "password",
		},
		{
			name: "password too long",
			req: registerRequest{
				Email:    "test@example.com",
				Password: string(make([]byte, 1025)),
				Username: "reader",
			},
			wantField: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_RatingBounds(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(rateRequest{Rating: 1}))
	assert.NoError(t, v.Validate(rateRequest{Rating: 5}))
	assert.Error(t, v.Validate(rateRequest{Rating: 6}))
	assert.Error(t, v.Validate(rateRequest{Rating: -1}))
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	req := registerRequest{
		Password: "password123",
		Username: "reader",
	}

	err := v.Validate(req)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))

	// Uses the JSON tag name "email", not the struct field name "Email"
	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "email")
	assert.NotContains(t, details, "Email")
}
