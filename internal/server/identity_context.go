package server

import (
	"context"

	iamtypes "github.com/jacksonlee411/peopleops/modules/iam/domain/types"
)

type identityContextKey struct{}

func withIdentity(ctx context.Context, id iamtypes.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the verified caller. Controllers receive it as
// their IdentityGetter.
func IdentityFromContext(ctx context.Context) (iamtypes.Identity, bool) {
	v := ctx.Value(identityContextKey{})
	if v == nil {
		return iamtypes.Identity{}, false
	}
	id, ok := v.(iamtypes.Identity)
	return id, ok
}
