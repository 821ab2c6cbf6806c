package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidNonce is returned when a form nonce is missing, expired, forged
// or bound to another action.
var ErrInvalidNonce = errors.New("invalid or expired nonce")

const nonceIssuer = "propsync"

// NonceClaims binds a nonce to one form action.
type NonceClaims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

// NonceService issues and verifies form nonces.
type NonceService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewNonceService creates a NonceService signing with secret.
func NewNonceService(secret string, ttl time.Duration) *NonceService {
	return &NonceService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue returns a nonce for action.
func (n *NonceService) Issue(action string) (string, error) {
	now := n.now()
	claims := NonceClaims{
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    nonceIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(n.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(n.secret)
	if err != nil {
		return "", fmt.Errorf("sign nonce: %w", err)
	}
	return s, nil
}

// Verify checks that nonce is valid for action.
func (n *NonceService) Verify(nonce, action string) error {
	if nonce == "" {
		return ErrInvalidNonce
	}

	var claims NonceClaims
	tok, err := jwt.ParseWithClaims(nonce, &claims, func(token *jwt.Token) (any, error) {
		return n.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(nonceIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(n.now),
	)
	if err != nil || !tok.Valid {
		return ErrInvalidNonce
	}
	if claims.Action != action {
		return ErrInvalidNonce
	}
	return nil
}
