package security

import "testing"

func TestHashRefreshToken_Deterministic(t *testing.T) {
	token := "refresh-token-123"
	if HashRefreshToken(token) != HashRefreshToken(token) {
		t.Error("HashRefreshToken not deterministic")
	}
	if len(HashRefreshToken(token)) != 64 {
		t.Errorf("hash length = %d, want 64 (SHA-256 hex)", len(HashRefreshToken(token)))
	}
}

func TestHashRefreshToken_DifferentTokens(t *testing.T) {
	if HashRefreshToken("token-1") == HashRefreshToken("token-2") {
		t.Error("different tokens produced the same hash")
	}
}

func TestRefreshTokenHashEqual(t *testing.T) {
	token := "refresh-token-456"
	stored := HashRefreshToken(token)

	if !RefreshTokenHashEqual(token, stored) {
		t.Error("RefreshTokenHashEqual should match the correct token")
	}
	if RefreshTokenHashEqual("wrong-token", stored) {
		t.Error("RefreshTokenHashEqual should reject a wrong token")
	}
	if RefreshTokenHashEqual(token, "a"+stored) {
		t.Error("RefreshTokenHashEqual should reject a hash of different length")
	}
	if RefreshTokenHashEqual("", "") {
		t.Error("RefreshTokenHashEqual should not match empty inputs")
	}
}
