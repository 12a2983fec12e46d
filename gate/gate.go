// Package gate is a small authorization checkpoint: a subject resolves to a
// profile of "resource:action" permissions, and optional per-resource policies
// refine the decision once a concrete resource is loaded. It has no
// dependency on domain models.
package gate

import "context"

// Gate combines profile permissions with resource policies.
// U is the subject type; the zero value of U is treated as anonymous.
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
	policies map[string]Policy[U]
}

func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver, policies: make(map[string]Policy[U])}
}

// Register adds a policy for a resource type, replacing any previous one.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize returns ErrUnauthorized for an anonymous subject and ErrForbidden
// when the profile or a registered policy denies the action.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string, resource any) error {
	var zero U
	if user == zero {
		return ErrUnauthorized
	}
	if !g.CanProfile(ctx, user, action, resourceType) {
		return ErrForbidden
	}
	if resource != nil {
		if p, ok := g.policies[resourceType]; ok && !p.Can(ctx, user, action, resource) {
			return ErrForbidden
		}
	}
	return nil
}

// Can is Authorize as a boolean.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, user, action, resourceType, resource) == nil
}

// CanProfile checks only the profile permission, before any resource is loaded.
func (g *Gate[U]) CanProfile(ctx context.Context, user U, action Action, resourceType string) bool {
	var zero U
	if user == zero {
		return false
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return false
	}
	return profile.HasPermission(NewPermission(resourceType, action))
}

// Profile returns the resolved profile of user, or nil.
func (g *Gate[U]) Profile(ctx context.Context, user U) Profile {
	var zero U
	if user == zero {
		return nil
	}
	p, err := g.resolver.Resolve(ctx, user)
	if err != nil {
		return nil
	}
	return p
}
