package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal plaintext")
	}
	if !VerifyPassword("s3cret-pass", hash) {
		t.Fatal("expected VerifyPassword() to accept the original plaintext")
	}
	if VerifyPassword("wrong-pass", hash) {
		t.Fatal("expected VerifyPassword() to reject a wrong plaintext")
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	secret := []byte("secret")
	issued, err := IssueToken(secret, Claims{
		UserID: "user-1",
		Role:   "admin",
		RoleID: "role-1",
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	claims := VerifyToken(secret, issued)
	if claims == nil {
		t.Fatal("VerifyToken() returned nil for a valid token")
	}
	if claims.UserID != "user-1" || claims.Role != "admin" || claims.RoleID != "role-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	issued, err := IssueToken([]byte("secret"), Claims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if VerifyToken([]byte("other"), issued) != nil {
		t.Fatal("expected VerifyToken() to return nil for a wrong secret")
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	secret := []byte("secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	issued, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	if VerifyToken(secret, issued) != nil {
		t.Fatal("expected VerifyToken() to return nil for an expired token")
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	if VerifyToken([]byte("secret"), "not-a-token") != nil {
		t.Fatal("expected VerifyToken() to return nil for malformed input")
	}
	if VerifyToken([]byte("secret"), "") != nil {
		t.Fatal("expected VerifyToken() to return nil for empty input")
	}
}

func TestVerifyTokenRequiresSubject(t *testing.T) {
	secret := []byte("secret")
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	issued, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	if VerifyToken(secret, issued) != nil {
		t.Fatal("expected VerifyToken() to return nil when sub is missing")
	}
}
