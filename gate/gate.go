// Package gate provides a small Gate/Policy authorization system. The Gate
// is a central registry of policies; each Policy defines authorization rules
// for a specific resource type. The package has no dependencies on domain
// models and uses generics to allow any user/subject type:
//   - Gate[uint] for simple user ID based auth
//   - Gate[Identity] for resolved identity based auth
package gate

import "context"

// Policy defines authorization rules for a resource type.
// U is the user/subject type. Implementations check whether user may
// perform action on resource; for list-level checks resource may be nil.
type Policy[U comparable] interface {
	Can(ctx context.Context, user U, action Action, resource any) bool
}

// Gate is the central authorization checkpoint. Register policies by
// resource type name, then call Authorize or Can.
type Gate[U comparable] struct {
	policies map[string]Policy[U]
}

// NewGate creates an empty Gate ready to register policies.
func NewGate[U comparable]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register adds a policy for a given resource type. Overwrites any existing
// policy for that type.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize checks authorization and returns an error if denied.
// Returns ErrUnauthorized for zero-value user or denied action;
// returns ErrNoPolicyDefined if resourceType has no registered policy.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return ErrUnauthorized
	}
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicyDefined
	}
	if !p.Can(ctx, user, action, resource) {
		return ErrUnauthorized
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}
