package pipeline

import "context"

// Tier is an integer privilege level. Smaller values carry more privilege.
type Tier int

const (
	TierAdministrator Tier = 0
	TierManager       Tier = 1
	TierCaregiver     Tier = 2
)

func (t Tier) String() string {
	switch t {
	case TierAdministrator:
		return "administrator"
	case TierManager:
		return "manager"
	case TierCaregiver:
		return "caregiver"
	}
	return "unknown"
}

// Actor is the authenticated caller derived from a validated token.
// It is scoped to a single request and never persisted.
type Actor struct {
	ID   int64
	Tier Tier
}

// IsManager reports whether the actor holds manager privilege or higher.
func (a Actor) IsManager() bool {
	return a.Tier <= TierManager
}

type contextKey string

const actorKey contextKey = "actor"

// WithActor returns a context carrying the authenticated actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext returns the actor attached during authentication.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}
