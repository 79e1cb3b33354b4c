package resolver

import "context"

// actorKey carries the authenticated actor's user id. The id is opaque to the
// core; authentication happens upstream.
type actorKey struct{}

// WithActor returns a context carrying the acting user's id.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorID returns the acting user's id from the context.
func ActorID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorKey{}).(string)
	return id, ok && id != ""
}
