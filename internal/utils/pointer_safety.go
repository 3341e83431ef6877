package utils

import "strings"

func Ptr[T any](v T) *T {
	return &v
}

// NonEmpty returns a pointer to the trimmed value, or nil when it is blank.
// Used to turn optional form fields into partial updates.
func NonEmpty(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
