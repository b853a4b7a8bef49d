package utils // package utils provides helpers for gateway token creation

import (
	"errors" // errors defines the validation sentinel
	"time"   // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// RoleOperator is the only role the gateway accepts.
const RoleOperator = "operator"

// ErrEmptySecret is returned when a token is requested without a
// signing secret.
var ErrEmptySecret = errors.New("jwt secret is empty")

// AccessToken represents a signed JWT along with its expiry.  The Token
// field is sent as a Bearer credential to the HTTP gateway.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewOperatorToken builds and signs an HS256 JWT for subject with the
// operator role.  The claims are subject (sub), role, expiration (exp)
// and issued at (iat).
func NewOperatorToken(secret, subject string, ttl time.Duration) (AccessToken, error) {
	if secret == "" {
		return AccessToken{}, ErrEmptySecret
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": RoleOperator,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
