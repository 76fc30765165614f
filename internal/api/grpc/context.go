package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"ridehail-backend-core/internal/domain"
	"ridehail-backend-core/internal/security"
)

// actorFromContext returns the caller the auth interceptor attached.
func actorFromContext(ctx context.Context) (domain.Actor, error) {
	actor, ok := security.ActorFromContext(ctx)
	if !ok {
		return domain.Actor{}, status.Error(codes.Unauthenticated, "caller identity is not provided")
	}
	return actor, nil
}
