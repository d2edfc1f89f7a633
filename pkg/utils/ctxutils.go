package utils

import (
	"context"

	"pool-service/pkg/contextkeys"
	apperrors "pool-service/pkg/errors"
)

// Identity is the authenticated (company, user, role) triple the auth
// middleware stores on the request context. The core trusts it.
type Identity struct {
	UserID    uint64
	CompanyID uint64
	Role      string
}

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrIdentityNotInContext
	}
	return userID, nil
}

func GetCompanyIDFromCtx(ctx context.Context) (uint64, error) {
	companyID, ok := ctx.Value(contextkeys.CompanyIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrIdentityNotInContext
	}
	return companyID, nil
}

func GetUserRoleFromCtx(ctx context.Context) (string, error) {
	role, ok := ctx.Value(contextkeys.UserRoleKey).(string)
	if !ok {
		return "", apperrors.ErrIdentityNotInContext
	}
	return role, nil
}

// GetIdentityFromCtx gathers the full identity triple or fails once.
func GetIdentityFromCtx(ctx context.Context) (Identity, error) {
	userID, err := GetUserIDFromCtx(ctx)
	if err != nil {
		return Identity{}, err
	}
	companyID, err := GetCompanyIDFromCtx(ctx)
	if err != nil {
		return Identity{}, err
	}
	role, err := GetUserRoleFromCtx(ctx)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: userID, CompanyID: companyID, Role: role}, nil
}

// WithIdentity returns a context carrying the identity triple. Used by the
// auth middleware and by tests.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, id.UserID)
	ctx = context.WithValue(ctx, contextkeys.CompanyIDKey, id.CompanyID)
	ctx = context.WithValue(ctx, contextkeys.UserRoleKey, id.Role)
	return ctx
}
