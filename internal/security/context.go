package security

import (
	"context"

	"ridehail-backend-core/internal/domain"
)

type actorKey struct{}

// ContextWithActor attaches the authenticated caller to ctx.
func ContextWithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the caller stored by ContextWithActor.
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}
