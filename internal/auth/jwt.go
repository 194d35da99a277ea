// Package auth provides JWT issuing and validation for the roster API.
// Claims carry the rostering authority of the caller: whether they may
// launch and cancel solves, and which organisational units they may roster.
package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Errors for jwt token.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Roles a token can carry.
const (
	// RolePlanner may submit, solve and cancel rosters for its units.
	RolePlanner = "planner"
	// RoleViewer may only read run results.
	RoleViewer = "viewer"
)

// Claims represents the JWT claims.
type Claims struct {
	jwt.RegisteredClaims

	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	// OuIDs scopes a planner to specific organisational units. Empty means
	// all units.
	OuIDs []string `json:"ou_ids,omitempty"`
}

// CanPlan reports whether the claims authorise launching or cancelling
// roster runs.
func (c *Claims) CanPlan() bool {
	return c.Role == RolePlanner
}

// AllowsOu reports whether the claims authorise rostering the given
// organisational unit.
func (c *Claims) AllowsOu(ouID string) bool {
	if len(c.OuIDs) == 0 {
		return true
	}
	for _, ou := range c.OuIDs {
		if ou == ouID {
			return true
		}
	}
	return false
}

// JWTManager handles JWT operations.
type JWTManager struct {
	Secret []byte
	Issuer string
	Expiry time.Duration
}

// NewJWTManager creates a new JWT manager.
func NewJWTManager(secret []byte, issuer string, expiry time.Duration) *JWTManager {
	return &JWTManager{
		Secret: secret,
		Issuer: issuer,
		Expiry: expiry,
	}
}

// Generate creates a new JWT token for a user with the given rostering
// authority.
func (jm *JWTManager) Generate(userID uuid.UUID, email, role string, ouIDs []string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jm.Issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(jm.Expiry)),
			NotBefore: jwt.NewNumericDate(now),
		},
		UserID: userID,
		Email:  email,
		Role:   role,
		OuIDs:  ouIDs,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(jm.Secret)
}

// Validate parses and validates a JWT token.
func (jm *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}

		return jm.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
