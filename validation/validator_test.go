package validation_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/groupmesh/groupmesh-server/errors"
	"github.com/groupmesh/groupmesh-server/validation"
)

type testInput struct {
	Name      string `json:"name" validate:"required"`
	GroupType string `json:"groupType" validate:"required,oneof=public closed hidden"`
	Avatar    string `json:"avatar,omitempty" validate:"omitempty,url"`
}

func TestValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(testInput{
		Name:      "Freedom Riders",
		GroupType: "public",
	})
	assert.NoError(t, err)
}

func TestValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		input     testInput
		wantField string
	}{
		{
			name:      "missing required field",
			input:     testInput{GroupType: "public"},
			wantField: "name",
		},
		{
			name:      "value outside enum",
			input:     testInput{Name: "x", GroupType: "secret"},
			wantField: "groupType",
		},
		{
			name:      "malformed url",
			input:     testInput{Name: "x", GroupType: "public", Avatar: "not a url"},
			wantField: "avatar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
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

// Error details must use the JSON tag names, not the Go field names, so the
// transport layer can echo them back to clients directly.
func TestValidateUsesJSONFieldNames(t *testing.T) {
	v := validation.New()

	err := v.Validate(testInput{GroupType: "public"})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	details := domainErr.Details.(map[string]string)
	assert.Contains(t, details, "name")
	assert.NotContains(t, details, "Name")
}
