// Package auth is the credential-service boundary: password hashing and the
// single canonical token payload every consumer depends on.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor applied to every password hash.
const BcryptCost = 12

// TokenTTL is the embedded expiry of issued session tokens.
const TokenTTL = 7 * 24 * time.Hour

// Claims is the canonical token payload. Permissions are deliberately absent:
// they are re-derived per request from role/user grants, so a permission
// revocation takes effect on the next request while role/identity changes only
// take effect on the next token issuance.
type Claims struct {
	UserID string
	Role   string
	RoleID string
}

// HashPassword returns a one-way bcrypt hash of the plaintext.
func HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plaintext matches the stored hash.
func VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// IssueToken signs a session token carrying the canonical claims with a 7-day expiry.
func IssueToken(secret []byte, c Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":     c.UserID,
		"role":    c.Role,
		"role_id": c.RoleID,
		"exp":     time.Now().Add(TokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	})
	return token.SignedString(secret)
}

// VerifyToken parses and validates a session token. It returns nil on any
// signature, expiry, or shape failure; errors never cross this boundary.
func VerifyToken(secret []byte, tokenString string) *Claims {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil
	}
	role, _ := claims["role"].(string)
	roleID, _ := claims["role_id"].(string)

	return &Claims{UserID: sub, Role: role, RoleID: roleID}
}
