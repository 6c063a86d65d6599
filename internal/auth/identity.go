package auth

import "context"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the authenticated caller. RequesterID is the requester every
// reservation is recorded against.
type Identity struct {
	RequesterID string
	Role        string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
