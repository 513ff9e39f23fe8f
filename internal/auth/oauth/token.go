package oauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/saveole/timecal/internal/platform/errors"
)

// Identity is the authenticated subject carried by a session token.
type Identity struct {
	UserID         string `json:"userId"`
	GitHubID       int64  `json:"githubId"`
	GitHubUsername string `json:"githubUsername"`
	Email          string `json:"email,omitempty"`
	Name           string `json:"name,omitempty"`
	AvatarURL      string `json:"avatarUrl,omitempty"`
}

// Claims is the signed token payload: the identity plus validity window.
type Claims struct {
	jwt.RegisteredClaims
	UserID         string `json:"userId"`
	GitHubID       int64  `json:"githubId"`
	GitHubUsername string `json:"githubUsername"`
	Email          string `json:"email,omitempty"`
	Name           string `json:"name,omitempty"`
	AvatarURL      string `json:"avatarUrl,omitempty"`
}

// Identity projects the claims back into the identity they were issued for.
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:         c.UserID,
		GitHubID:       c.GitHubID,
		GitHubUsername: c.GitHubUsername,
		Email:          c.Email,
		Name:           c.Name,
		AvatarURL:      c.AvatarURL,
	}
}

// Codec issues and verifies signed session tokens.
//
// The secret is loaded once at startup and treated as immutable for the
// process lifetime.
type Codec struct {
	secret []byte
	clock  func() time.Time
}

// NewCodec builds a codec bound to the shared signing secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), clock: time.Now}
}

// Issue signs an identity into a compact token valid for ttl.
func (c *Codec) Issue(identity Identity, ttl time.Duration) (string, error) {
	if c == nil || len(c.secret) == 0 {
		return "", apperrors.New(apperrors.CodeConfigurationMissing, "JWT secret is not configured")
	}
	now := c.clock().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:         identity.UserID,
		GitHubID:       identity.GitHubID,
		GitHubUsername: identity.GitHubUsername,
		Email:          identity.Email,
		Name:           identity.Name,
		AvatarURL:      identity.AvatarURL,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeUnknown, "sign token", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the claims, or nil on any
// failure: invalid signature, malformed structure, wrong algorithm, or an
// expiry in the past. Verification is pure and never returns an error.
func (c *Codec) Verify(signed string) *Claims {
	if c == nil || len(c.secret) == 0 || signed == "" {
		return nil
	}
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(c.clock),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.ParseWithClaims(signed, &claims, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil
	}
	return &claims
}
