package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	token, err := m.GenerateToken("0b7c3c3e-8a57-4f0e-9c7b-3f1e2d4c5b6a", "student", "An")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := m.VerifyToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "0b7c3c3e-8a57-4f0e-9c7b-3f1e2d4c5b6a" || claims.Role != "student" || claims.Name != "An" {
		t.Fatalf("claims %+v", claims)
	}
}

func TestJWTRejectsWrongSecretAndExpiry(t *testing.T) {
	token, _ := NewJWTManager("secret", time.Hour).GenerateToken("u1", "student", "")
	if _, err := NewJWTManager("other", time.Hour).VerifyToken(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, _ := expired.SignedString([]byte("secret"))
	if _, err := NewJWTManager("secret", time.Hour).VerifyToken(signed); err == nil {
		t.Fatal("expired token must be rejected")
	}
}

func TestJWTRejectsMissingUserID(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "admin"})
	signed, _ := token.SignedString([]byte("secret"))
	if _, err := NewJWTManager("secret", time.Hour).VerifyToken(signed); err == nil {
		t.Fatal("token without user id must be rejected")
	}
}

func TestTextObjectPath(t *testing.T) {
	if got := TextObjectPath("owner", "doc"); got != "texts/owner/doc.txt" {
		t.Fatalf("got %q", got)
	}
}
