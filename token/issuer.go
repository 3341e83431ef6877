package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrInvalidToken is returned when a session token fails verification
var ErrInvalidToken = errors.New("invalid session token")

// Claims is the verified content of a session access token
type Claims struct {
	Subject   string
	Email     string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer mints and verifies session access tokens
type Issuer struct {
	signer  Signer
	issuer  string
	expiry  time.Duration
	nowTime func() time.Time
}

// IssuerOption customises an Issuer
type IssuerOption func(*Issuer)

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

func NewIssuer(signer Signer, issuer string, expiry time.Duration, options ...IssuerOption) *Issuer {
	i := &Issuer{
		signer:  signer,
		issuer:  issuer,
		expiry:  expiry,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// Mint creates an access token for the user and returns it with its expiry
func (i *Issuer) Mint(userID, email string) (string, time.Time, error) {
	now := i.nowTime()
	expiresAt := now.Add(i.expiry)
	claims := jwt.MapClaims{
		"iss":   i.issuer,
		"sub":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   expiresAt.Unix(),
		"jti":   uuid.New().String(),
	}
	signed, err := i.signer.Sign(claims)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "[Issuer.Mint]")
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, issuer and expiry of raw and returns its claims
func (i *Issuer) Verify(raw string) (*Claims, error) {
	parsed, err := jwt.Parse(raw, i.signer.GetVerificationKey,
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.nowTime),
		jwt.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
	)
	if err != nil || !parsed.Valid {
		return nil, errors.Wrap(ErrInvalidToken, errString(err))
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	claims.Subject, _ = mapClaims.GetSubject()
	claims.Email, _ = mapClaims["email"].(string)
	claims.SessionID, _ = mapClaims["jti"].(string)
	if iat, _ := mapClaims.GetIssuedAt(); iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, _ := mapClaims.GetExpirationTime(); exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if claims.Subject == "" {
		return nil, errors.Wrap(ErrInvalidToken, "missing subject")
	}
	return claims, nil
}

func errString(err error) string {
	if err == nil {
		return "token not valid"
	}
	return err.Error()
}
