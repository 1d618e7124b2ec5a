package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMissingAccount el token es válido pero no delimita ninguna cuenta.
var ErrMissingAccount = errors.New("jwt: el token no indica la cuenta")

// Scope identidad y alcance que viajan en el token: quién opera, sobre qué cuenta y con qué rol.
type Scope struct {
	UserID    string
	AccountID string
	Role      string // "admin" | "staff"
}

// HasRole indica si el alcance tiene alguno de los roles indicados.
func (s Scope) HasRole(roles ...string) bool {
	for _, r := range roles {
		if s.Role == r {
			return true
		}
	}
	return false
}

type claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
	Role      string `json:"role,omitempty"`
}

// Generate firma un token HS256 para el alcance indicado. El sujeto es el UserID.
func Generate(secret, issuer string, scope Scope, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   scope.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		AccountID: scope.AccountID,
		Role:      scope.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

// Parse valida firma y expiración y devuelve el alcance del token.
// Un token sin cuenta devuelve ErrMissingAccount.
func Parse(secret, tokenString string) (Scope, error) {
	if secret == "" {
		return Scope{}, fmt.Errorf("jwt: secret vacío")
	}
	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Scope{}, err
	}
	if c.AccountID == "" {
		return Scope{}, ErrMissingAccount
	}
	return Scope{UserID: c.Subject, AccountID: c.AccountID, Role: c.Role}, nil
}
