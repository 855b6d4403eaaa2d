package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpiredToken maps to 401 "Token expired".
	ErrExpiredToken = errors.New("token has expired")
	// ErrInvalidSignature maps to 401 "Token has invalid signature".
	ErrInvalidSignature = errors.New("token has invalid signature")
	// ErrInvalidToken covers every other decode failure, 401 "Not Authorized".
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingBusinessID maps to 500 "Business id is required".
	ErrMissingBusinessID = errors.New("business id claim is required")
)

// Claims are the expected mobile token claims. Only userId is strictly
// required by the token format; businessId is enforced separately so its
// absence can surface as a distinct error.
type Claims struct {
	UserID     string `json:"userId"`
	TypeID     string `json:"typeId,omitempty"`
	SessionID  string `json:"sessionId,omitempty"`
	BusinessID string `json:"businessId,omitempty"`
	jwt.RegisteredClaims
}

// TokenValidator verifies HS256 bearer tokens issued for the mobile platform.
type TokenValidator struct {
	secret []byte
}

// NewTokenValidator creates a validator for the given shared secret.
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret)}
}

// ValidateToken decodes and verifies the token, returning the security
// context it carries. The "Bearer " prefix is stripped when present.
func (v *TokenValidator) ValidateToken(tokenString string) (*SecurityContext, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing userId claim", ErrInvalidToken)
	}
	if claims.BusinessID == "" {
		return nil, ErrMissingBusinessID
	}

	return &SecurityContext{
		UserID:        claims.UserID,
		BusinessID:    claims.BusinessID,
		SessionID:     claims.SessionID,
		AccountTypeID: claims.TypeID,
	}, nil
}
