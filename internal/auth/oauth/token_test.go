package oauth

import (
	"strings"
	"testing"
	"time"
)

func testIdentity() Identity {
	return Identity{
		UserID:         "user-1",
		GitHubID:       583231,
		GitHubUsername: "octocat",
		Email:          "octocat@example.com",
		Name:           "The Octocat",
		AvatarURL:      "https://avatars.example.com/u/583231",
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")
	signed, err := codec.Issue(testIdentity(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims := codec.Verify(signed)
	if claims == nil {
		t.Fatal("expected valid claims")
	}
	if got := claims.Identity(); got != testIdentity() {
		t.Fatalf("identity = %+v, want %+v", got, testIdentity())
	}
	if !claims.ExpiresAt.After(claims.IssuedAt.Time) {
		t.Fatal("expected expiry after issued-at")
	}
}

func TestIssueRequiresSecret(t *testing.T) {
	codec := NewCodec("")
	if _, err := codec.Issue(testIdentity(), time.Hour); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	codec := NewCodec("test-secret")
	issuedAt := time.Now().Add(-2 * time.Hour)
	codec.clock = func() time.Time { return issuedAt }
	signed, err := codec.Issue(testIdentity(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	codec.clock = time.Now
	if claims := codec.Verify(signed); claims != nil {
		t.Fatal("expected nil claims for expired token")
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	codec := NewCodec("test-secret")
	signed, err := codec.Issue(testIdentity(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(signed, ".")
	if len(parts) != 3 {
		t.Fatalf("expected compact JWT, got %d segments", len(parts))
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if claims := codec.Verify(tampered); claims != nil {
		t.Fatal("expected nil claims for tampered signature")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	signed, err := NewCodec("secret-a").Issue(testIdentity(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if claims := NewCodec("secret-b").Verify(signed); claims != nil {
		t.Fatal("expected nil claims under a different secret")
	}
}

func TestVerifyMalformed(t *testing.T) {
	codec := NewCodec("test-secret")
	for _, token := range []string{"", "garbage", "a.b", "a.b.c"} {
		if claims := codec.Verify(token); claims != nil {
			t.Fatalf("expected nil claims for %q", token)
		}
	}
}
