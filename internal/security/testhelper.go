package security

import "time"

// Test-only fixed keys. Do not use in production.
var (
	testSigningKey    = []byte("0123456789abcdef0123456789abcdef")
	testEncryptionKey = []byte("fedcba9876543210fedcba9876543210")
)

// NewTestTokenCodec returns a TokenCodec with a fixed signing key and the
// given TTLs. For unit tests only.
func NewTestTokenCodec(accessTTL, refreshTTL time.Duration) *TokenCodec {
	return NewTokenCodec(testSigningKey, accessTTL, refreshTTL)
}

// NewTestEncryptor returns an Encryptor with a fixed 32-byte key. For unit tests only.
func NewTestEncryptor() *Encryptor {
	e, err := NewEncryptor(testEncryptionKey)
	if err != nil {
		panic(err)
	}
	return e
}
