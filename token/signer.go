package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer holds the key behind the portal's own JWTs: access tokens minted by
// the in-process credential service and signed browser session ids.
type Signer interface {
	Sign(claims jwt.MapClaims) (string, error)

	// GetVerificationKey is the jwt.Keyfunc for tokens this Signer made
	GetVerificationKey(token *jwt.Token) (any, error)

	GetSigningMethod() jwt.SigningMethod
}

// SharedSecretSigner signs with HS256. Anything holding the secret can both
// mint and verify, so it never leaves the process.
type SharedSecretSigner struct {
	secret []byte
}

var _ Signer = (*SharedSecretSigner)(nil)

func NewHMACSigner(secret string) *SharedSecretSigner {
	return &SharedSecretSigner{secret: []byte(secret)}
}

func (s *SharedSecretSigner) Sign(claims jwt.MapClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "[SharedSecretSigner.Sign]")
	}
	return signed, nil
}

func (s *SharedSecretSigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("token signed with %v, want HS256", token.Header["alg"])
	}
	return s.secret, nil
}

func (s *SharedSecretSigner) GetSigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}
