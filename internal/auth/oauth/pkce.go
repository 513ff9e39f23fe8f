package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
)

// GenerateCodeVerifier returns a random PKCE code verifier encoded as hex.
func GenerateCodeVerifier() (string, error) {
	return randomHex(32)
}

// GenerateState returns a random anti-CSRF state value.
func GenerateState() (string, error) {
	return randomHex(16)
}

// ComputeS256Challenge computes the OAuth PKCE S256 challenge from a verifier.
func ComputeS256Challenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// ValidatePKCE reports whether verifier satisfies challenge under method.
// Only S256 is accepted.
func ValidatePKCE(verifier, challenge, method string) bool {
	if method != "S256" {
		return false
	}
	if len(verifier) < 43 || len(verifier) > 128 {
		return false
	}
	if !ValidateCodeChallenge(challenge) {
		return false
	}
	computed := ComputeS256Challenge(verifier)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}

// ValidateCodeChallenge reports whether a challenge is a well-formed
// base64url-encoded SHA-256 digest.
func ValidateCodeChallenge(challenge string) bool {
	if len(challenge) != 43 {
		return false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(challenge)
	if err != nil {
		return false
	}
	return len(decoded) == sha256.Size
}

func randomHex(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
