package auth

import (
	"errors"
	"fmt"
)

var (
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
	ErrNotAuthenticated         = errors.New("not signed in")
	ErrInvalidSignUp            = errors.New("invalid sign-up details")
	ErrInvalidProfile           = errors.New("invalid profile details")
	ErrPartialSignUp            = errors.New("account created but profile setup failed")
	ErrClosed                   = errors.New("session controller closed")
)

// SignUpPhase names the write that failed after the credential record was created
type SignUpPhase string

const (
	SignUpPhaseRole    SignUpPhase = "role"
	SignUpPhaseProfile SignUpPhase = "profile"
)

// PartialSignUpError reports a sign-up whose credential record exists while
// the role or profile row could not be written. The credential record is not
// removed; UserID identifies it for manual reconciliation.
type PartialSignUpError struct {
	UserID string
	Email  string
	Phase  SignUpPhase
	Err    error
}

func (e *PartialSignUpError) Error() string {
	return fmt.Sprintf("sign-up for %s (user %s) failed writing %s: %v", e.Email, e.UserID, e.Phase, e.Err)
}

func (e *PartialSignUpError) Unwrap() error {
	return e.Err
}

func (e *PartialSignUpError) Is(target error) bool {
	return target == ErrPartialSignUp
}
