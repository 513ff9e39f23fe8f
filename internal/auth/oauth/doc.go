// Package oauth implements the GitHub OAuth flow, PKCE exchange storage,
// and signed-token issuance and verification for timecal sessions.
package oauth
