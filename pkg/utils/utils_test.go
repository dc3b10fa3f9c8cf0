package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)
	branch := uuid.New()
	sub := TokenSubject{
		UserID:       uuid.New(),
		BusinessID:   uuid.New(),
		BranchID:     &branch,
		Username:     "cashier1",
		Role:         "cashier",
		Capabilities: []string{"make_sales"},
	}
	token, err := m.GenerateAccessToken(sub)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := m.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.BusinessID != sub.BusinessID || claims.BranchID == nil || *claims.BranchID != branch {
		t.Fatalf("expected business and branch to survive, got %+v", claims)
	}
	if len(claims.Capabilities) != 1 || claims.Capabilities[0] != "make_sales" {
		t.Fatalf("expected capabilities [make_sales], got %v", claims.Capabilities)
	}
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	m := NewJWTManager("secret", time.Hour, 24*time.Hour)
	userID := uuid.New()
	refresh, err := m.GenerateRefreshToken(userID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.ValidateAccessToken(refresh); err == nil {
		t.Fatalf("expected refresh token to be rejected as access token")
	}
	got, err := m.ValidateRefreshToken(refresh)
	if err != nil || got != userID {
		t.Fatalf("expected user %s, got %s (%v)", userID, got, err)
	}

	other := NewJWTManager("other", time.Hour, time.Hour)
	if _, err := other.ValidateRefreshToken(refresh); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "password123") || CheckPassword(hash, "password124") {
		t.Fatalf("expected bcrypt check to distinguish passwords")
	}
}

func TestOpaqueTokenDigest(t *testing.T) {
	token, digest, err := NewOpaqueToken()
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if DigestToken(token) != digest || len(digest) != 64 {
		t.Fatalf("expected stable 64 char digest")
	}
}

func TestGenerateSKU(t *testing.T) {
	biz := uuid.New()
	sku := GenerateSKU(biz, 41)
	if !regexp.MustCompile(`^P\d{3}000042$`).MatchString(sku) {
		t.Fatalf("expected P{NNN}000042, got %s", sku)
	}
	if GenerateSKU(biz, 0)[:4] != sku[:4] {
		t.Fatalf("expected stable business prefix")
	}
}

func TestNormalizePhone(t *testing.T) {
	if got := NormalizePhone("+1 (555) 010-9999"); got != "15550109999" {
		t.Fatalf("expected digits only, got %s", got)
	}
}
