package auth

import (
	"testing"
	"time"

	"github.com/Dwisantra/simpefov2/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret-one", 30)

	token, exp, err := tm.GenerateToken("user-42", domain.RoleManager)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Error("expiry must be in the future")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Errorf("UserID = %q", claims.UserID)
	}
	if claims.Role != domain.RoleManager {
		t.Errorf("Role = %v", claims.Role)
	}
	if claims.ID == "" {
		t.Error("token ID must be set for revocation")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-one", 30)
	verifier := NewTokenManager("secret-two", 30)

	token, _, err := issuer.GenerateToken("user-42", domain.RoleRequester)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := verifier.ParseToken(token); err == nil {
		t.Error("token signed with another secret must not parse")
	}
}

func TestTokenManagerTTLFallback(t *testing.T) {
	if got := NewTokenManager("s", 0).TTL(); got != time.Hour {
		t.Errorf("zero TTL should fall back to an hour, got %v", got)
	}
	if got := NewTokenManager("s", 15).TTL(); got != 15*time.Minute {
		t.Errorf("TTL = %v, want 15m", got)
	}
}

func TestSignCodeHashing(t *testing.T) {
	hash, err := HashSignCode("1234", 4)
	if err != nil {
		t.Fatalf("HashSignCode: %v", err)
	}
	if err := CompareSignCode(hash, "1234"); err != nil {
		t.Errorf("matching code rejected: %v", err)
	}
	if err := CompareSignCode(hash, "4321"); err == nil {
		t.Error("wrong code accepted")
	}
}
