// Package memtag derives the container tags that partition the memory
// store. Derivation is pure: the same inputs always yield the same tag, so
// writes and later reads land in the same scope without any shared state.
package memtag

import (
	"context"
	"fmt"
)

// Resolver maps a user's primary ID to the stable secondary identity used
// for memory scoping. Keeping memory scopes on a dedicated identifier means
// primary IDs can change without orphaning stored memories.
type Resolver interface {
	SecondaryID(ctx context.Context, userID string) (string, error)
}

// Deriver builds container tags within a single namespace.
type Deriver struct {
	namespace string
	resolver  Resolver
}

// NewDeriver creates a deriver for the given namespace. The resolver is
// optional; without one, tags are derived from the primary user ID.
func NewDeriver(namespace string, resolver Resolver) *Deriver {
	return &Deriver{
		namespace: namespace,
		resolver:  resolver,
	}
}

// scopeID resolves the identifier a user's tags are built from. Resolution
// failures fall back to the primary ID silently: a tag is always produced.
func (d *Deriver) scopeID(ctx context.Context, userID string) string {
	if d.resolver == nil {
		return userID
	}
	id, err := d.resolver.SecondaryID(ctx, userID)
	if err != nil || id == "" {
		return userID
	}
	return id
}

// User returns the tag for a user's cross-conversation memory scope.
func (d *Deriver) User(ctx context.Context, userID string) string {
	return fmt.Sprintf("%s_user_%s", d.namespace, d.scopeID(ctx, userID))
}

// Conversation returns the tag for a single conversation's memory scope.
func (d *Deriver) Conversation(ctx context.Context, userID, conversationID string) string {
	return fmt.Sprintf("%s_conv_%s", d.User(ctx, userID), conversationID)
}

// Preferences returns the tag for a user's stored preferences.
func (d *Deriver) Preferences(ctx context.Context, userID string) string {
	return d.User(ctx, userID) + "_prefs"
}

// Role returns the tag for a role's shared knowledge scope. Role scopes are
// not tied to any user.
func (d *Deriver) Role(roleID string) string {
	return fmt.Sprintf("%s_role_%s", d.namespace, roleID)
}
