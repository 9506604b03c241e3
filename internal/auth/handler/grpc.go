// Package handler exposes the auth service over gRPC. Messages are plain
// structs carried by the JSON codec; the service shape mirrors
// credauth.auth.v1.AuthService.
package handler

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"credential-auth-service/internal/auth/service"
	"credential-auth-service/internal/security"
)

// ServiceName is the full gRPC service name registered by RegisterAuthServer.
const ServiceName = "credauth.auth.v1.AuthService"

// PublicMethods is the set of full method names that do not require a
// Bearer token. Wire this into the revocation gate.
var PublicMethods = map[string]bool{
	"/" + ServiceName + "/SignUp":  true,
	"/" + ServiceName + "/SignIn":  true,
	"/" + ServiceName + "/Refresh": true,
}

type SignUpRequest struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	BirthDate time.Time `json:"birth_date"`
	Role      string    `json:"role"`
}

type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SignOutAllRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type StatusResponse struct {
	Message string `json:"message"`
}

// Denylist records revoked access tokens until their natural expiry.
type Denylist interface {
	Add(ctx context.Context, token string, accountID int64, expiresAt time.Time) error
}

// AuthServer serves the auth API backed by the auth service. On sign-out the
// presented access token is added to the denylist so the revocation gate
// rejects it for the rest of its lifetime.
type AuthServer struct {
	auth     *service.AuthService
	codec    *security.TokenCodec
	denylist Denylist
}

// NewAuthServer returns an AuthServer. denylist may be nil; then sign-out
// revokes the session without denylisting the in-flight access token.
func NewAuthServer(auth *service.AuthService, codec *security.TokenCodec, denylist Denylist) *AuthServer {
	return &AuthServer{auth: auth, codec: codec, denylist: denylist}
}

func (s *AuthServer) SignUp(ctx context.Context, req *SignUpRequest) (*TokenPairResponse, error) {
	pair, err := s.auth.SignUp(ctx, service.SignUpInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		Role:      req.Role,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &TokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *AuthServer) SignIn(ctx context.Context, req *SignInRequest) (*TokenPairResponse, error) {
	pair, err := s.auth.SignIn(ctx, req.Username, req.Password)
	if err != nil {
		return nil, mapError(err)
	}
	return &TokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *AuthServer) Refresh(ctx context.Context, req *RefreshRequest) (*TokenPairResponse, error) {
	pair, err := s.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, mapError(err)
	}
	return &TokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *AuthServer) SignOut(ctx context.Context, req *SignOutRequest) (*StatusResponse, error) {
	if err := s.auth.SignOut(ctx, req.RefreshToken); err != nil {
		return nil, mapError(err)
	}
	s.denylistAccessToken(ctx)
	return &StatusResponse{Message: "signed out."}, nil
}

func (s *AuthServer) SignOutAll(ctx context.Context, req *SignOutAllRequest) (*StatusResponse, error) {
	if err := s.auth.SignOutAll(ctx, req.RefreshToken); err != nil {
		return nil, mapError(err)
	}
	s.denylistAccessToken(ctx)
	return &StatusResponse{Message: "signed out everywhere."}, nil
}

// denylistAccessToken adds the caller's Bearer token to the denylist for the
// remainder of its lifetime. Best-effort: failures are logged.
func (s *AuthServer) denylistAccessToken(ctx context.Context) {
	if s.denylist == nil {
		return
	}
	token := bearerFromMetadata(ctx)
	if token == "" {
		return
	}
	claims, err := s.codec.ParseClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return
	}
	if err := s.denylist.Add(ctx, token, 0, claims.ExpiresAt.Time); err != nil {
		log.Printf("handler: denylist access token: %v", err)
	}
}

func bearerFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	const prefix = "bearer "
	if len(v) < len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(v[len(prefix):])
}

// mapError translates service sentinels into gRPC status errors.
func mapError(err error) error {
	var conflict *service.ConflictError
	switch {
	case errors.As(err, &conflict):
		return status.Error(codes.AlreadyExists, conflict.Error())
	case errors.Is(err, service.ErrBadCredentials):
		return status.Error(codes.Unauthenticated, "bad credentials.")
	case errors.Is(err, service.ErrAccountLocked):
		return status.Error(codes.PermissionDenied, "account is locked.")
	case errors.Is(err, service.ErrRefreshInvalid):
		return status.Error(codes.Unauthenticated, "invalid refresh token.")
	case errors.Is(err, service.ErrAccountNotFound):
		return status.Error(codes.NotFound, "account not found.")
	case errors.Is(err, service.ErrRoleNotFound):
		return status.Error(codes.NotFound, "role is not in the system.")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// serviceDesc describes the auth API for grpc registration. Hand-written
// because the messages are JSON-codec structs, not protobuf.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*authServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: signUpHandler},
		{MethodName: "SignIn", Handler: signInHandler},
		{MethodName: "Refresh", Handler: refreshHandler},
		{MethodName: "SignOut", Handler: signOutHandler},
		{MethodName: "SignOutAll", Handler: signOutAllHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "credauth/auth/v1/auth.json",
}

type authServiceServer interface {
	SignUp(ctx context.Context, req *SignUpRequest) (*TokenPairResponse, error)
	SignIn(ctx context.Context, req *SignInRequest) (*TokenPairResponse, error)
	Refresh(ctx context.Context, req *RefreshRequest) (*TokenPairResponse, error)
	SignOut(ctx context.Context, req *SignOutRequest) (*StatusResponse, error)
	SignOutAll(ctx context.Context, req *SignOutAllRequest) (*StatusResponse, error)
}

// RegisterAuthServer registers srv with the gRPC server.
func RegisterAuthServer(s grpc.ServiceRegistrar, srv *AuthServer) {
	s.RegisterService(&serviceDesc, srv)
}

func signUpHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SignUpRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(authServiceServer).SignUp(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/SignUp"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(authServiceServer).SignUp(ctx, req.(*SignUpRequest))
	})
}

func signInHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SignInRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(authServiceServer).SignIn(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/SignIn"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(authServiceServer).SignIn(ctx, req.(*SignInRequest))
	})
}

func refreshHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RefreshRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(authServiceServer).Refresh(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Refresh"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(authServiceServer).Refresh(ctx, req.(*RefreshRequest))
	})
}

func signOutHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SignOutRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(authServiceServer).SignOut(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/SignOut"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(authServiceServer).SignOut(ctx, req.(*SignOutRequest))
	})
}

func signOutAllHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SignOutAllRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(authServiceServer).SignOutAll(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/SignOutAll"}
	return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(authServiceServer).SignOutAll(ctx, req.(*SignOutAllRequest))
	})
}
