package auth

import (
	"context"
	"fmt"

	"github.com/UCLALibrary/ftva-lab-data/internal/domain"
)

type contextKey string

const userKey contextKey = "user"

// ContextWithUser returns a new context carrying the authenticated user.
func ContextWithUser(ctx context.Context, user domain.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user from the context, if any.
func UserFromContext(ctx context.Context) (domain.User, bool) {
	if ctx == nil {
		return domain.User{}, false
	}
	value := ctx.Value(userKey)
	if value == nil {
		return domain.User{}, false
	}
	user, ok := value.(domain.User)
	if !ok || user.ID == 0 {
		return domain.User{}, false
	}
	return user, true
}

// RequireAssignPermission ensures the context user may reassign items.
func RequireAssignPermission(ctx context.Context) (domain.User, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return domain.User{}, fmt.Errorf("no authenticated user: %w", domain.ErrPermissionDenied)
	}
	if !user.CanAssign {
		return domain.User{}, fmt.Errorf("user %s may not assign items: %w", user.Username, domain.ErrPermissionDenied)
	}
	return user, nil
}

// RequireEditPermission ensures the context user may edit records.
func RequireEditPermission(ctx context.Context) (domain.User, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return domain.User{}, fmt.Errorf("no authenticated user: %w", domain.ErrPermissionDenied)
	}
	if !user.CanEdit {
		return domain.User{}, fmt.Errorf("user %s may not edit records: %w", user.Username, domain.ErrPermissionDenied)
	}
	return user, nil
}
