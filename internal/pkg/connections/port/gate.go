package port

import "context"

// Gate is the narrow view of the social-graph service this subsystem needs:
// a single mutual-connection predicate. Implementations must be side-effect
// free and safe to call repeatedly.
type Gate interface {
	// CanConverse reports whether userA and userB are mutually connected and
	// may therefore open a direct conversation.
	CanConverse(ctx context.Context, userA, userB string) (bool, error)
}
