package auth

import "net/http"

// CredentialResult is exported for testing.
type CredentialResult = credentialResult

// ExtractCredentialForTest exposes extractCredential for testing.
func ExtractCredentialForTest(r *http.Request) *CredentialResult {
	return extractCredential(r)
}
