package errors

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/go-hr-portal/auth"
	"github.com/jrsteele09/go-hr-portal/credentials"
)

// Common error types for the portal's HTTP layer
var (
	ErrBadRequest       = errors.New("bad request")
	ErrPasswordMismatch = errors.New("new passwords do not match")
)

const genericMessage = "Something went wrong. Please try again."

// UserMessage turns an operation error into the text shown next to a form.
// Credential errors are shown as reported, everything unexpected gets a
// generic message.
func UserMessage(err error) string {
	var verr *auth.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, auth.ErrPartialSignUp):
		return "Your account was created but your profile could not be saved. Please contact support."
	case errors.Is(err, auth.ErrCurrentPasswordIncorrect),
		errors.Is(err, auth.ErrNotAuthenticated),
		errors.Is(err, auth.ErrInvalidProfile),
		errors.Is(err, credentials.ErrInvalidCredentials),
		errors.Is(err, credentials.ErrEmailTaken),
		errors.Is(err, credentials.ErrWeakPassword),
		errors.Is(err, ErrPasswordMismatch):
		return capitalise(err.Error())
	case errors.Is(err, credentials.ErrUnavailable):
		return "The sign-in service is unavailable. Please try again shortly."
	case errors.Is(err, ErrBadRequest):
		return "The form could not be read. Please try again."
	default:
		return genericMessage
	}
}

func capitalise(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
