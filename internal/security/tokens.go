package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed is returned when a token's structure or signature is invalid.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired is returned for a well-formed, correctly signed token past its expiry.
	// The parsed claims are still returned alongside it so expired-replay cleanup can
	// locate the session the token belonged to.
	ErrTokenExpired = errors.New("token expired")
)

// Claims holds the fields embedded in a signed token. Access tokens carry
// Email and Role; refresh tokens carry SessionID. Subject is always the username.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// TokenCodec issues and parses JWT access and refresh tokens signed with a
// process-wide symmetric key (HS256). The key is read-only after construction
// and safe to share across requests.
type TokenCodec struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenCodec returns a TokenCodec signing with the given HMAC key.
func NewTokenCodec(key []byte, accessTTL, refreshTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		key:        key,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// SetClock overrides the codec's clock for issued-at/expiry stamps. Tests only.
func (c *TokenCodec) SetClock(now func() time.Time) { c.now = now }

// IssueAccess issues a short-lived access token with subject=username plus
// email and role claims. Returns the signed token and its expiry.
func (c *TokenCodec) IssueAccess(username, email, role string) (string, time.Time, error) {
	now := c.now().UTC()
	expiresAt := now.Add(c.accessTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
		Role:  role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	return token, expiresAt, err
}

// IssueRefresh issues a long-lived refresh token bound to the session lineage
// identified by sessionID, with subject=username. Returns the signed token and
// its expiry; the caller stores both on the session row.
func (c *TokenCodec) IssueRefresh(sessionID, username string) (string, time.Time, error) {
	now := c.now().UTC()
	expiresAt := now.Add(c.refreshTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID: sessionID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	return token, expiresAt, err
}

// ParseClaims verifies the token signature and returns its claims.
// For a signed-but-expired token it returns the claims together with
// ErrTokenExpired; for anything else invalid it returns ErrTokenMalformed.
func (c *TokenCodec) ParseClaims(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err == nil {
		return claims, nil
	}
	if errors.Is(err, jwt.ErrTokenExpired) {
		return claims, ErrTokenExpired
	}
	return nil, ErrTokenMalformed
}

// Subject returns the token's subject (username). Expired tokens report
// ErrTokenExpired, malformed tokens ErrTokenMalformed.
func (c *TokenCodec) Subject(tokenString string) (string, error) {
	claims, err := c.ParseClaims(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsValidFor reports whether the token is unexpired, correctly signed, and
// issued for the expected subject.
func (c *TokenCodec) IsValidFor(tokenString, expectedSubject string) bool {
	claims, err := c.ParseClaims(tokenString)
	if err != nil {
		return false
	}
	return claims.Subject == expectedSubject
}

func (c *TokenCodec) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrTokenMalformed
	}
	return c.key, nil
}
