package utils

import (
	"errors"
	"fmt"
	"time"

	"disburse/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "disburse-ops"

var ErrInvalidToken = errors.New("invalid token")

// GenerateOperatorToken signs an HS256 token for subject with the given role.
func GenerateOperatorToken(secret, subject, role string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	claims := models.OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   subject,
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseOperatorToken validates signature, expiry and issuer of tokenString.
func ParseOperatorToken(secret, tokenString string) (*models.OperatorClaims, error) {
	claims := &models.OperatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
