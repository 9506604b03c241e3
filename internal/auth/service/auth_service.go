package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	accountdomain "credential-auth-service/internal/account/domain"
	"credential-auth-service/internal/audit"
	"credential-auth-service/internal/lockout"
	roledomain "credential-auth-service/internal/role/domain"
	"credential-auth-service/internal/security"
	sessiondomain "credential-auth-service/internal/session/domain"
)

// Sentinel errors for the auth service; the transport layer maps them to wire codes.
var (
	// ErrBadCredentials covers unknown username, wrong password, and refresh
	// of a revoked session. It never reveals which of those happened.
	ErrBadCredentials = errors.New("bad credentials")
	ErrAccountLocked  = errors.New("account locked")
	// ErrRefreshInvalid covers malformed, unknown, rotated-out, and
	// expired-and-purged refresh tokens.
	ErrRefreshInvalid  = errors.New("invalid refresh token")
	ErrAccountNotFound = errors.New("account not found")
	ErrRoleNotFound    = errors.New("role is not in the system")
)

// ConflictError reports a duplicate email and/or username on sign-up.
// When both collide the message names both.
type ConflictError struct {
	Email    string
	Username string
}

func (e *ConflictError) Error() string {
	switch {
	case e.Email != "" && e.Username != "":
		return fmt.Sprintf("the username '%s' and the email '%s' are already taken", e.Username, e.Email)
	case e.Email != "":
		return fmt.Sprintf("the email '%s' is already taken", e.Email)
	default:
		return fmt.Sprintf("the username '%s' is already taken", e.Username)
	}
}

// TokenPair is the result of SignUp, SignIn, and Refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SignUpInput carries the profile, secret, and role for account creation.
type SignUpInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	BirthDate time.Time
	Role      string
}

// AccountRepo is the minimal account repository needed by the auth service.
type AccountRepo interface {
	GetByUsername(ctx context.Context, username string) (*accountdomain.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, a *accountdomain.Account) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// RoleRepo is the minimal role repository needed by the auth service.
type RoleRepo interface {
	GetByID(ctx context.Context, id int64) (*roledomain.Role, error)
	GetByName(ctx context.Context, name string) (*roledomain.Role, error)
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetBySessionID(ctx context.Context, sessionID string) (*sessiondomain.Session, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Rotate(ctx context.Context, sessionID, oldTokenHash, encryptedToken, newTokenHash string, expiresAt time.Time) (bool, error)
	Revoke(ctx context.Context, sessionID string) error
	RevokeAllByAccount(ctx context.Context, accountID int64) error
	Delete(ctx context.Context, sessionID string) error
}

// AuthService implements sign-up, sign-in with lockout, refresh-token
// rotation, and session revocation.
type AuthService struct {
	accounts AccountRepo
	roles    RoleRepo
	sessions SessionRepo
	lockout  *lockout.Policy
	hasher   *security.Hasher
	codec    *security.TokenCodec
	enc      *security.Encryptor
	audit    audit.AuditLogger
	now      func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(
	accounts AccountRepo,
	roles RoleRepo,
	sessions SessionRepo,
	lockoutPolicy *lockout.Policy,
	hasher *security.Hasher,
	codec *security.TokenCodec,
	enc *security.Encryptor,
	auditLogger audit.AuditLogger,
) *AuthService {
	return &AuthService{
		accounts: accounts,
		roles:    roles,
		sessions: sessions,
		lockout:  lockoutPolicy,
		hasher:   hasher,
		codec:    codec,
		enc:      enc,
		audit:    auditLogger,
		now:      time.Now,
	}
}

// logEvent records a best-effort audit event if a logger is configured.
func (s *AuthService) logEvent(ctx context.Context, username, action, resource string) {
	if s.audit != nil {
		s.audit.LogEvent(ctx, username, action, resource, "")
	}
}

// SetClock overrides the service's clock. Tests only.
func (s *AuthService) SetClock(now func() time.Time) { s.now = now }

// SignUp creates an account with the given profile and role and returns an
// initial token pair. Duplicate email/username yields *ConflictError; an
// unknown role yields ErrRoleNotFound.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*TokenPair, error) {
	emailTaken, err := s.accounts.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	usernameTaken, err := s.accounts.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if emailTaken || usernameTaken {
		conflict := &ConflictError{}
		if emailTaken {
			conflict.Email = in.Email
		}
		if usernameTaken {
			conflict.Username = in.Username
		}
		return nil, conflict
	}

	role, err := s.roles.GetByName(ctx, in.Role)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}

	hashed, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	acct := &accountdomain.Account{
		UUID:         uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hashed,
		RoleID:       role.ID,
		BirthDate:    in.BirthDate,
		LastLoginAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := acct.Validate(); err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, acct); err != nil {
		return nil, err
	}

	accessToken, _, err := s.codec.IssueAccess(acct.Username, acct.Email, role.Name)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.createSession(ctx, acct)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, acct.Username, "register", "account")
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// SignIn authenticates username/password and returns a token pair.
// The lockout gate runs before the password is checked: a locked account
// fails with ErrAccountLocked without touching the credential verifier.
func (s *AuthService) SignIn(ctx context.Context, username, password string) (*TokenPair, error) {
	acct, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		s.logEvent(ctx, username, "login_failure", "account")
		return nil, ErrBadCredentials
	}

	state, err := s.lockout.Check(ctx, acct)
	if err != nil {
		return nil, err
	}
	if state == lockout.Locked {
		s.logEvent(ctx, username, "login_locked", "account")
		return nil, ErrAccountLocked
	}

	if err := s.hasher.Compare(acct.PasswordHash, []byte(password)); err != nil {
		if err := s.lockout.RecordFailure(ctx, acct); err != nil {
			return nil, err
		}
		s.logEvent(ctx, username, "login_failure", "account")
		return nil, ErrBadCredentials
	}

	if err := s.lockout.RecordSuccess(ctx, acct); err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateLastLogin(ctx, acct.ID, s.now().UTC()); err != nil {
		return nil, err
	}

	role, err := s.roles.GetByID(ctx, acct.RoleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, fmt.Errorf("account %d references missing role %d", acct.ID, acct.RoleID)
	}

	accessToken, _, err := s.codec.IssueAccess(acct.Username, acct.Email, role.Name)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.createSession(ctx, acct)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, acct.Username, "login_success", "account")
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh validates the refresh token, rotates the session's token in place,
// and returns a new pair. An expired but well-formed token terminates its
// lineage: the session row is deleted and the call fails with ErrRefreshInvalid.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.ParseClaims(refreshToken)
	if errors.Is(err, security.ErrTokenExpired) {
		// Replay of an expired token. Purge the session if it still exists;
		// the caller sees the same ErrRefreshInvalid either way.
		sess, lookupErr := s.sessions.GetByTokenHash(ctx, security.HashRefreshToken(refreshToken))
		if lookupErr != nil {
			return nil, lookupErr
		}
		if sess != nil {
			if delErr := s.sessions.Delete(ctx, sess.SessionID); delErr != nil {
				return nil, delErr
			}
			s.logEvent(ctx, claims.Subject, "refresh_expired", "session")
		}
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, ErrRefreshInvalid
	}
	if claims.SessionID == "" {
		return nil, ErrRefreshInvalid
	}

	sess, err := s.sessions.GetBySessionID(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrRefreshInvalid
	}
	if sess.Revoked {
		// Explicitly terminated lineage; distinct from missing or purged.
		return nil, ErrBadCredentials
	}
	if !security.RefreshTokenHashEqual(refreshToken, sess.TokenHash) {
		// A rotated-out token cannot regenerate the lineage.
		return nil, ErrRefreshInvalid
	}

	acct, err := s.accounts.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrAccountNotFound
	}

	newRefresh, expiresAt, err := s.codec.IssueRefresh(sess.SessionID, acct.Username)
	if err != nil {
		return nil, err
	}
	encrypted, err := s.enc.Encrypt(newRefresh)
	if err != nil {
		return nil, err
	}
	swapped, err := s.sessions.Rotate(ctx, sess.SessionID, sess.TokenHash, encrypted,
		security.HashRefreshToken(newRefresh), expiresAt)
	if err != nil {
		return nil, err
	}
	if !swapped {
		// Lost a concurrent rotation race; exactly one caller wins.
		return nil, ErrRefreshInvalid
	}

	role, err := s.roles.GetByID(ctx, acct.RoleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, fmt.Errorf("account %d references missing role %d", acct.ID, acct.RoleID)
	}
	accessToken, _, err := s.codec.IssueAccess(acct.Username, acct.Email, role.Name)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, acct.Username, "refresh", "session")
	return &TokenPair{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

// SignOut revokes the session lineage the refresh token belongs to.
// Revocation is monotonic; signing out an already-revoked session succeeds.
func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	claims, err := s.codec.ParseClaims(refreshToken)
	if err != nil {
		return ErrRefreshInvalid
	}
	if claims.SessionID == "" {
		return ErrRefreshInvalid
	}
	sess, err := s.sessions.GetBySessionID(ctx, claims.SessionID)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrRefreshInvalid
	}
	if err := s.sessions.Revoke(ctx, sess.SessionID); err != nil {
		return err
	}
	s.logEvent(ctx, claims.Subject, "logout", "session")
	return nil
}

// SignOutAll revokes every session owned by the token's account.
func (s *AuthService) SignOutAll(ctx context.Context, refreshToken string) error {
	claims, err := s.codec.ParseClaims(refreshToken)
	if err != nil {
		return ErrRefreshInvalid
	}
	acct, err := s.accounts.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return err
	}
	if acct == nil {
		return ErrAccountNotFound
	}
	if err := s.sessions.RevokeAllByAccount(ctx, acct.ID); err != nil {
		return err
	}
	s.logEvent(ctx, acct.Username, "logout_all", "session")
	return nil
}

// createSession opens a new lineage for the account and returns the raw
// refresh token. The stored copy is encrypted; the SHA-256 hash is the
// lookup and rotation-binding key.
func (s *AuthService) createSession(ctx context.Context, acct *accountdomain.Account) (string, error) {
	sessionID := uuid.New().String()
	refreshToken, expiresAt, err := s.codec.IssueRefresh(sessionID, acct.Username)
	if err != nil {
		return "", err
	}
	encrypted, err := s.enc.Encrypt(refreshToken)
	if err != nil {
		return "", err
	}
	sess := &sessiondomain.Session{
		SessionID:    sessionID,
		AccountID:    acct.ID,
		RefreshToken: encrypted,
		TokenHash:    security.HashRefreshToken(refreshToken),
		ExpiresAt:    expiresAt,
		Revoked:      false,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return "", err
	}
	return refreshToken, nil
}
