package interceptors

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	accountdomain "credential-auth-service/internal/account/domain"
	"credential-auth-service/internal/security"
)

type fakeDenylist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeDenylist) Contains(_ context.Context, token string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[token], nil
}

type fakeAccounts struct {
	byUsername map[string]*accountdomain.Account
}

func (f *fakeAccounts) GetByUsername(_ context.Context, username string) (*accountdomain.Account, error) {
	return f.byUsername[username], nil
}

const protectedMethod = "/credauth.auth.v1.AuthService/SignOutAll"
const publicMethod = "/credauth.auth.v1.AuthService/SignIn"

type gateFixture struct {
	codec    *security.TokenCodec
	denylist *fakeDenylist
	accounts *fakeAccounts
	gate     grpc.UnaryServerInterceptor
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	codec := security.NewTestTokenCodec(15*time.Minute, time.Hour)
	denylist := &fakeDenylist{revoked: map[string]bool{}}
	accounts := &fakeAccounts{byUsername: map[string]*accountdomain.Account{
		"alice": {ID: 7, Username: "alice", Email: "alice@example.com"},
	}}
	public := map[string]bool{publicMethod: true}
	return &gateFixture{
		codec:    codec,
		denylist: denylist,
		accounts: accounts,
		gate:     RevocationGateUnary(codec, denylist, accounts, public),
	}
}

func (f *gateFixture) call(method, token string) (Principal, bool, error) {
	ctx := context.Background()
	if token != "" {
		ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", "Bearer "+token))
	}
	var principal Principal
	var attached bool
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		principal, attached = PrincipalFrom(ctx)
		return "ok", nil
	}
	_, err := f.gate(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)
	return principal, attached, err
}

func (f *gateFixture) issueAccess(t *testing.T, username string) string {
	t.Helper()
	acct := f.accounts.byUsername[username]
	email, role := "", "USER"
	if acct != nil {
		email = acct.Email
	}
	token, _, err := f.codec.IssueAccess(username, email, role)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	return token
}

func TestGateRejectsMissingToken(t *testing.T) {
	f := newGateFixture(t)
	_, _, err := f.call(protectedMethod, "")
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestGateAllowsPublicMethodWithoutToken(t *testing.T) {
	f := newGateFixture(t)
	_, attached, err := f.call(publicMethod, "")
	if err != nil {
		t.Fatalf("public method blocked: %v", err)
	}
	if attached {
		t.Error("principal attached without a token")
	}
}

func TestGateAttachesPrincipal(t *testing.T) {
	f := newGateFixture(t)
	token := f.issueAccess(t, "alice")
	p, attached, err := f.call(protectedMethod, token)
	if err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if !attached {
		t.Fatal("principal not attached")
	}
	if p.AccountID != 7 || p.Username != "alice" || p.Email != "alice@example.com" || p.Role != "USER" {
		t.Errorf("principal = %+v", p)
	}
}

func TestGateAttachesPrincipalOnPublicMethod(t *testing.T) {
	f := newGateFixture(t)
	token := f.issueAccess(t, "alice")
	_, attached, err := f.call(publicMethod, token)
	if err != nil {
		t.Fatalf("public method with valid token: %v", err)
	}
	if !attached {
		t.Error("valid token on public method should attach the principal")
	}
}

func TestGateRejectsDenylistedToken(t *testing.T) {
	f := newGateFixture(t)
	token := f.issueAccess(t, "alice")
	f.denylist.revoked[token] = true

	_, _, err := f.call(protectedMethod, token)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %v, want Unauthenticated", status.Code(err))
	}
	if status.Convert(err).Message() != "token revoked." {
		t.Errorf("message = %q", status.Convert(err).Message())
	}
}

func TestGateFailsClosedWhenDenylistUnavailable(t *testing.T) {
	f := newGateFixture(t)
	f.denylist.err = errors.New("connection refused")
	token := f.issueAccess(t, "alice")

	_, _, err := f.call(protectedMethod, token)
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("code = %v, want Unavailable", status.Code(err))
	}
}

func TestGateReportsExpiredToken(t *testing.T) {
	f := newGateFixture(t)
	f.codec.SetClock(func() time.Time { return time.Now().Add(-time.Hour) })
	token := f.issueAccess(t, "alice")
	f.codec.SetClock(time.Now)

	_, _, err := f.call(protectedMethod, token)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %v, want Unauthenticated", status.Code(err))
	}
	if status.Convert(err).Message() != "token expired." {
		t.Errorf("message = %q", status.Convert(err).Message())
	}
}

func TestGateReportsMalformedToken(t *testing.T) {
	f := newGateFixture(t)
	_, _, err := f.call(protectedMethod, "not.a.jwt")
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %v, want Unauthenticated", status.Code(err))
	}
	if status.Convert(err).Message() != "token malformed." {
		t.Errorf("message = %q", status.Convert(err).Message())
	}
}

func TestGateRejectsUnknownSubject(t *testing.T) {
	f := newGateFixture(t)
	token := f.issueAccess(t, "ghost")
	_, _, err := f.call(protectedMethod, token)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestExtractBearer(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{"standard", "Bearer abc123", "abc123"},
		{"lowercase scheme", "bearer abc123", "abc123"},
		{"padded", "  Bearer   abc123  ", "abc123"},
		{"wrong scheme", "Basic abc123", ""},
		{"bare token", "abc123", ""},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := metadata.NewIncomingContext(context.Background(),
				metadata.Pairs("authorization", tc.value))
			if got := extractBearer(ctx); got != tc.want {
				t.Errorf("extractBearer(%q) = %q, want %q", tc.value, got, tc.want)
			}
		})
	}
}
