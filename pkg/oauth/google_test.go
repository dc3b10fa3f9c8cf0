package oauth

import (
	"strings"
	"testing"
	"time"
)

func TestStateRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	state, err := NewState(secret, now)
	if err != nil {
		t.Fatalf("new state: %v", err)
	}
	if err := VerifyState(secret, state, now.Add(time.Minute)); err != nil {
		t.Fatalf("expected valid state, got %v", err)
	}
	if err := VerifyState(secret, state, now.Add(stateTTL+time.Second)); err != ErrInvalidState {
		t.Fatalf("expected expired state to fail, got %v", err)
	}
	if err := VerifyState([]byte("other"), state, now); err != ErrInvalidState {
		t.Fatalf("expected foreign signature to fail, got %v", err)
	}
	if err := VerifyState(secret, "garbage", now); err != ErrInvalidState {
		t.Fatalf("expected malformed state to fail, got %v", err)
	}
}

func TestAuthURLCarriesState(t *testing.T) {
	svc := NewGoogleOAuthService(GoogleOAuthConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost/cb"})
	if !svc.IsConfigured() {
		t.Fatalf("expected configured service")
	}
	u := svc.AuthURL("abc")
	if !strings.Contains(u, "state=abc") || !strings.Contains(u, "client_id=id") {
		t.Fatalf("expected state and client id in %s", u)
	}
	if NewGoogleOAuthService(GoogleOAuthConfig{}).IsConfigured() {
		t.Fatalf("expected unconfigured service")
	}
}
