package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"paperless/internal/model"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID    uuid.UUID
	Email     string
	Role      model.Role
	TokenID   string
	ExpiresAt time.Time
}

// IsBoss reports whether the caller holds the boss role.
func (i *Identity) IsBoss() bool {
	return i != nil && i.Role == model.RoleBoss
}

// CanRead reports whether the caller may see a document owned by owner.
func (i *Identity) CanRead(owner uuid.UUID) bool {
	return i != nil && (i.UserID == owner || i.IsBoss())
}

// CanModify reports whether the caller may edit or delete a document owned
// by owner. Bosses get no extra rights here.
func (i *Identity) CanModify(owner uuid.UUID) bool {
	return i != nil && i.UserID == owner
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// FromContext returns the identity stored in ctx, or nil.
func FromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityKey{}).(*Identity)
	return identity
}
