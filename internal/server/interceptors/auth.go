package interceptors

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	accountdomain "credential-auth-service/internal/account/domain"
	"credential-auth-service/internal/security"
)

const bearerPrefix = "bearer "

// DenylistChecker reports whether a presented token has been revoked.
type DenylistChecker interface {
	Contains(ctx context.Context, token string) (bool, error)
}

// AccountResolver looks up the account behind a token subject.
type AccountResolver interface {
	GetByUsername(ctx context.Context, username string) (*accountdomain.Account, error)
}

// RevocationGateUnary returns a unary server interceptor that admits a
// request only if its Bearer token is absent from the denylist, parses and
// verifies against the signing key, and resolves to a live account matching
// the token subject. On success the principal is attached to the context.
//
// publicMethods is the set of full method names that do not require a token
// (sign-up, sign-in, refresh, health). A valid token on a public method
// still attaches the principal.
func RevocationGateUnary(
	codec *security.TokenCodec,
	denylist DenylistChecker,
	accounts AccountResolver,
	publicMethods map[string]bool,
) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		token := extractBearer(ctx)
		public := publicMethods[info.FullMethod]

		if token == "" {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}

		// Denylist membership is checked before any parsing; a revoked token
		// never reaches the verifier.
		revoked, err := denylist.Contains(ctx, token)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			// Fail closed when the revocation store cannot answer.
			return nil, status.Error(codes.Unavailable, "revocation check unavailable")
		}
		if revoked {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "token revoked.")
		}

		claims, err := codec.ParseClaims(token)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			if errors.Is(err, security.ErrTokenExpired) {
				return nil, status.Error(codes.Unauthenticated, "token expired.")
			}
			return nil, status.Error(codes.Unauthenticated, "token malformed.")
		}

		acct, err := accounts.GetByUsername(ctx, claims.Subject)
		if err != nil {
			return nil, status.Error(codes.Internal, "account lookup failed")
		}
		if acct == nil || !codec.IsValidFor(token, acct.Username) {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}

		ctx = WithPrincipal(ctx, Principal{
			AccountID: acct.ID,
			Username:  acct.Username,
			Email:     claims.Email,
			Role:      claims.Role,
		})
		return handler(ctx, req)
	}
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing
// or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
