package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	FullName  string  `json:"fullName" validate:"required,notblank,min=2,max=255"`
	Phone     string  `json:"phoneNumber" validate:"required,phone"`
	AvatarURL string  `json:"avatarURL" validate:"omitempty,url"`
	RoleName  *string `json:"roleName" validate:"omitnil,notblank,min=2,max=50"`
}

func strPtr(s string) *string { return &s }

func TestValidator_Valid(t *testing.T) {
	v := New()

	err := v.Validate(&request{FullName: "Ivan Ivanov", Phone: "+79990000001"})
	assert.NoError(t, err)

	err = v.Validate(&request{FullName: "Ivan", Phone: "15551234567", AvatarURL: "https://example.com/a.png", RoleName: strPtr("Support")})
	assert.NoError(t, err)
}

func TestValidator_FieldMessages(t *testing.T) {
	v := New()

	err := v.Validate(&request{FullName: "   ", Phone: "0123", AvatarURL: "not a url", RoleName: strPtr("x")})
	require.Error(t, err)

	messages := FieldMessages(err)
	assert.Equal(t, "must not be blank", messages["fullName"])
	assert.Equal(t, "must be a valid international phone number", messages["phoneNumber"])
	assert.Equal(t, "must be a valid URL", messages["avatarURL"])
	assert.Equal(t, "must be at least 2 characters long", messages["roleName"])
}

func TestValidator_Required(t *testing.T) {
	v := New()

	messages := FieldMessages(v.Validate(&request{}))
	assert.Equal(t, "is required", messages["fullName"])
	assert.Equal(t, "is required", messages["phoneNumber"])
	assert.NotContains(t, messages, "roleName")
}

func TestValidator_Phone(t *testing.T) {
	v := New()

	tests := []struct {
		phone string
		valid bool
	}{
		{"+79990000001", true},
		{"12", true},
		{"+123456789012345", true},
		{"+1234567890123456", false},
		{"0123456", false},
		{"+", false},
		{"79 99", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			err := v.Validate(&request{FullName: "Ivan", Phone: tt.phone})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Contains(t, FieldMessages(err), "phoneNumber")
			}
		})
	}
}

func TestFieldMessages_NonValidationError(t *testing.T) {
	assert.Nil(t, FieldMessages(assert.AnError))
}

func TestValidator_OptionalURL(t *testing.T) {
	v := New()

	type update struct {
		AvatarURL *string `json:"avatarURL" validate:"omitnil,optionalurl"`
	}

	tests := []struct {
		name  string
		value *string
		valid bool
	}{
		{"absent", nil, true},
		{"empty clears", strPtr(""), true},
		{"url", strPtr("https://example.com/a.png"), true},
		{"not a url", strPtr("not a url"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&update{AvatarURL: tt.value})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, "must be a valid URL", FieldMessages(err)["avatarURL"])
			}
		})
	}
}
