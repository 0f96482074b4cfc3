package auth

import (
	"chat-relay/errors"
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const UserIDKey contextKey = "user_id"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserIDFromContext returns the authenticated user, or ErrUnauthenticated.
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok || userID == "" {
		return "", errors.ErrUnauthenticated
	}
	return userID, nil
}

// BearerToken strips the "Bearer " prefix of an Authorization header value.
func BearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// UnaryInterceptor handles JWT validation for incoming gRPC calls.
// Methods listed in public skip it.
func (m *TokenManager) UnaryInterceptor(public ...string) grpc.UnaryServerInterceptor {
	publicMethods := make(map[string]struct{}, len(public))
	for _, method := range public {
		publicMethods[method] = struct{}{}
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := publicMethods[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		authenticated, err := m.authenticate(ctx)
		if err != nil {
			return nil, err
		}
		return handler(authenticated, req)
	}
}

// StreamInterceptor is the streaming counterpart of UnaryInterceptor.
func (m *TokenManager) StreamInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		authenticated, err := m.authenticate(ss.Context())
		if err != nil {
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: authenticated})
	}
}

func (m *TokenManager) authenticate(ctx context.Context) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is missing")
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization token is missing")
	}

	userID, err := m.Validate(BearerToken(values[0]))
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}

	// Inject user identity into context for downstream service layers
	return WithUserID(ctx, userID), nil
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}
