package auth

import (
	"strings"

	"github.com/jrsteele09/go-hr-portal/internal/utils"
	"github.com/jrsteele09/go-hr-portal/users"
)

// SignUpParameters holds what the sign-up form collects.
type SignUpParameters struct {
	// Email becomes the credential login and is copied onto the profile.
	Email string `json:"email" validate:"required,email,max=254"`

	// Password is checked by users.ValidatePasswordStrength as well.
	Password string `json:"password" validate:"required,min=8,max=72"`

	FullName    string `json:"full_name" validate:"required,max=120"`
	CompanyName string `json:"company_name" validate:"required,max=120"`

	// Country must be one of users.Countries().
	Country users.Country `json:"country" validate:"required,country"`

	// Role is fixed for the life of the account.
	Role users.Role `json:"role" validate:"required,role"`
}

// Normalise trims surrounding whitespace from the free text fields
func (p *SignUpParameters) Normalise() {
	p.Email = strings.TrimSpace(p.Email)
	p.FullName = strings.TrimSpace(p.FullName)
	p.CompanyName = strings.TrimSpace(p.CompanyName)
}

// ProfileParameters holds what the settings form may change. Empty fields are left alone.
type ProfileParameters struct {
	FullName    string        `json:"full_name" validate:"omitempty,max=120"`
	Email       string        `json:"email" validate:"omitempty,email,max=254"`
	CompanyName string        `json:"company_name" validate:"omitempty,max=120"`
	Country     users.Country `json:"country" validate:"omitempty,country"`
}

// Update converts the parameters into a partial profile update
func (p ProfileParameters) Update() users.ProfileUpdate {
	update := users.ProfileUpdate{
		FullName:    utils.NonEmpty(p.FullName),
		Email:       utils.NonEmpty(p.Email),
		CompanyName: utils.NonEmpty(p.CompanyName),
	}
	if p.Country != "" {
		update.Country = utils.Ptr(p.Country)
	}
	return update
}
