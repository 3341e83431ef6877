package users

import (
	"errors"
	"fmt"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// ErrNotFound is returned by a Repo when no role or profile row exists for a user.
var ErrNotFound = errors.New("not found")

// Role decides which application surface a user may enter. It is assigned at
// sign-up and never changed afterwards.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// IsValid reports whether r is one of the two known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEmployee:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a stored or submitted value into a Role
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}

// Country is the fixed set of countries a profile can be registered in.
type Country string

const (
	CountrySingapore     Country = "Singapore"
	CountryMalaysia      Country = "Malaysia"
	CountryIndonesia     Country = "Indonesia"
	CountryThailand      Country = "Thailand"
	CountryPhilippines   Country = "Philippines"
	CountryVietnam       Country = "Vietnam"
	CountryIndia         Country = "India"
	CountryAustralia     Country = "Australia"
	CountryUnitedKingdom Country = "United Kingdom"
	CountryUnitedStates  Country = "United States"
	CountryCanada        Country = "Canada"
)

var countries = []Country{
	CountrySingapore,
	CountryMalaysia,
	CountryIndonesia,
	CountryThailand,
	CountryPhilippines,
	CountryVietnam,
	CountryIndia,
	CountryAustralia,
	CountryUnitedKingdom,
	CountryUnitedStates,
	CountryCanada,
}

// Countries returns the selectable countries in display order
func Countries() []Country {
	out := make([]Country, len(countries))
	copy(out, countries)
	return out
}

func (c Country) IsValid() bool {
	for _, known := range countries {
		if c == known {
			return true
		}
	}
	return false
}

// Profile is the display and business data kept next to an identity.
type Profile struct {
	ID          string    `json:"id"`           // Profile row id, distinct from the auth user id
	UserID      string    `json:"user_id"`      // Auth user id this profile belongs to
	FullName    string    `json:"full_name"`    // Display name
	Email       string    `json:"email"`        // Copy of the auth email for display
	CompanyName string    `json:"company_name"` // Employer name
	Country     Country   `json:"country"`      // One of Countries()
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileUpdate carries the fields a caller wants to change. Nil fields are left untouched.
type ProfileUpdate struct {
	FullName    *string
	Email       *string
	CompanyName *string
	Country     *Country
}

// IsEmpty reports whether the update would not change anything
func (u ProfileUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Email == nil && u.CompanyName == nil && u.Country == nil
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
