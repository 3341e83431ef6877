package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const browserIDClaim = "sid"

// SignBrowserID wraps a browser session id into a cookie value the server
// can later prove it issued.
func SignBrowserID(signer Signer, id string) (string, error) {
	if id == "" {
		return "", errors.New("[SignBrowserID] id is required")
	}
	signed, err := signer.Sign(jwt.MapClaims{browserIDClaim: id})
	if err != nil {
		return "", errors.Wrap(err, "[SignBrowserID]")
	}
	return signed, nil
}

// ParseBrowserID returns the id inside a value made by SignBrowserID.
// Anything not signed by signer is ErrInvalidToken.
func ParseBrowserID(signer Signer, value string) (string, error) {
	parsed, err := jwt.Parse(value, signer.GetVerificationKey,
		jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()}),
	)
	if err != nil || !parsed.Valid {
		return "", errors.Wrap(ErrInvalidToken, errString(err))
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	id, _ := claims[browserIDClaim].(string)
	if id == "" {
		return "", ErrInvalidToken
	}
	return id, nil
}
