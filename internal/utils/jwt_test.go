package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	at, err := NewAccessToken("secret", 42, "a@example.com", "STAFF", 5)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if !at.Exp.After(time.Now()) {
		t.Fatalf("expiry in the past: %v", at.Exp)
	}
	claims, err := ParseAccessToken("secret", at.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "a@example.com" || claims.Role != "STAFF" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, err := ParseAccessToken("other", at.Token); err == nil {
		t.Fatal("token accepted with the wrong secret")
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	sign := func(claims jwt.MapClaims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}
	future := time.Now().Add(time.Hour).Unix()
	tests := []struct {
		name  string
		token string
	}{
		{"expired", sign(jwt.MapClaims{"sub": "1", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"no expiry", sign(jwt.MapClaims{"sub": "1"})},
		{"missing subject", sign(jwt.MapClaims{"exp": future})},
		{"non numeric subject", sign(jwt.MapClaims{"sub": "abc", "exp": future})},
		{"zero subject", sign(jwt.MapClaims{"sub": "0", "exp": future})},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAccessToken("secret", tt.token); err == nil {
				t.Fatal("token accepted")
			}
		})
	}

	_, err := ParseAccessToken("secret", sign(jwt.MapClaims{"sub": "x", "exp": future}))
	if !errors.Is(err, ErrInvalidClaims) {
		t.Fatalf("want ErrInvalidClaims, got %v", err)
	}
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(7)
	if err != nil {
		t.Fatal(err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("raw length = %d", len(rt.Raw))
	}
	if h := HashRefreshRaw(rt.Raw); len(h) != 64 || h != HashRefreshRaw(rt.Raw) {
		t.Fatalf("unstable hash %q", h)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(hash, "correct horse") || VerifyPassword(hash, "wrong") || VerifyPassword("", "correct horse") {
		t.Fatal("password verification mismatch")
	}
}

func TestGenerateQRCode(t *testing.T) {
	content := TicketQRContent(10, 100, 1, 2, 3)
	if content != "planetarium-ticket|reservation=10|ticket=100|session=1|row=2|seat=3" {
		t.Fatalf("content = %q", content)
	}
	png, err := GenerateQRCode(content, 128)
	if err != nil {
		t.Fatal(err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Fatalf("not a png: % x", png[:8])
	}
}
