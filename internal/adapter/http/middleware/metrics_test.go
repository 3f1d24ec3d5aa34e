package middleware

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health", "/health"},
		{"/api/v1/escrows", "/api/v1/escrows"},
		{"/api/v1/escrows/4dd2c1aa90b1", "/api/v1/escrows/:reference"},
		{"/api/v1/escrows/4dd2c1aa90b1/settle", "/api/v1/escrows/:reference/settle"},
		{"/api/v1/identities/alice/escrows", "/api/v1/identities/:identity/escrows"},
		{"/api/v1/identities/alice/accounts/110100040000000/balance", "/api/v1/identities/:identity/accounts/:account/balance"},
		{"/api/v1/identities/alice/accounts/110100040000000/postings/17", "/api/v1/identities/:identity/accounts/:account/postings/:index"},
		{"/api/v1/accounts/110100040000000/balance", "/api/v1/accounts/:account/balance"},
		{"/api/v1/custody/alice/balance", "/api/v1/custody/:account/balance"},
		{"/api/v1/seed-recipes", "/api/v1/seed-recipes"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
