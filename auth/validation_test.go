package auth_test

import (
	"errors"
	"testing"

	"github.com/jrsteele09/go-hr-portal/auth"
	"github.com/jrsteele09/go-hr-portal/users"
	"github.com/stretchr/testify/require"
)

func validSignUp() *auth.SignUpParameters {
	return &auth.SignUpParameters{
		Email:       "a@b.com",
		Password:    "Passw0rd",
		FullName:    "Jane Doe",
		CompanyName: "Acme",
		Country:     users.CountrySingapore,
		Role:        users.RoleAdmin,
	}
}

func TestValidator_ValidateSignUp(t *testing.T) {
	v := auth.NewValidator()

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, v.ValidateSignUp(validSignUp()))
	})

	t.Run("unknown country", func(t *testing.T) {
		p := validSignUp()
		p.Country = "Atlantis"
		err := v.ValidateSignUp(p)
		require.ErrorIs(t, err, auth.ErrInvalidSignUp)

		var verr *auth.ValidationError
		require.True(t, errors.As(err, &verr))
		require.Contains(t, verr.Errors, "country")
	})

	t.Run("unknown role", func(t *testing.T) {
		p := validSignUp()
		p.Role = "manager"
		err := v.ValidateSignUp(p)
		require.ErrorIs(t, err, auth.ErrInvalidSignUp)
		require.Contains(t, err.Error(), "role must be admin or employee")
	})

	t.Run("weak password", func(t *testing.T) {
		p := validSignUp()
		p.Password = "password"
		err := v.ValidateSignUp(p)
		require.ErrorIs(t, err, auth.ErrInvalidSignUp)
		require.Contains(t, err.Error(), "uppercase")
	})

	t.Run("missing fields", func(t *testing.T) {
		err := v.ValidateSignUp(&auth.SignUpParameters{})
		var verr *auth.ValidationError
		require.True(t, errors.As(err, &verr))
		for _, field := range []string{"email", "password", "full_name", "company_name", "country", "role"} {
			require.Contains(t, verr.Errors, field)
		}
		require.Equal(t, "full name is required", verr.Errors["full_name"])
	})

	t.Run("bad email", func(t *testing.T) {
		p := validSignUp()
		p.Email = "not-an-email"
		require.ErrorIs(t, v.ValidateSignUp(p), auth.ErrInvalidSignUp)
	})
}

func TestValidator_ValidateProfile(t *testing.T) {
	v := auth.NewValidator()

	require.NoError(t, v.ValidateProfile(&auth.ProfileParameters{}))
	require.NoError(t, v.ValidateProfile(&auth.ProfileParameters{FullName: "Jane", Country: users.CountryCanada}))
	require.ErrorIs(t, v.ValidateProfile(&auth.ProfileParameters{Country: "Atlantis"}), auth.ErrInvalidProfile)
	require.ErrorIs(t, v.ValidateProfile(&auth.ProfileParameters{Email: "nope"}), auth.ErrInvalidProfile)
}

func TestProfileParameters_Update(t *testing.T) {
	update := auth.ProfileParameters{FullName: "  Jane Roe ", Country: users.CountryIndia}.Update()
	require.Equal(t, "Jane Roe", *update.FullName)
	require.Equal(t, users.CountryIndia, *update.Country)
	require.Nil(t, update.Email)
	require.Nil(t, update.CompanyName)

	require.True(t, auth.ProfileParameters{FullName: "   "}.Update().IsEmpty())
}
