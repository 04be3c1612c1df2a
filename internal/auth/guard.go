package auth

import (
	"context"
	"errors"

	"vocab-manager/internal/domain"
)

// UserLookup resolves token subjects to stored users.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// TokenVerifier is the part of TokenService the guard depends on.
type TokenVerifier interface {
	Verify(raw string) Verification
}

// Guard turns bearer tokens into users and answers authorization questions.
type Guard struct {
	tokens TokenVerifier
	users  UserLookup
}

func NewGuard(tokens TokenVerifier, users UserLookup) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Resolve returns the active user named by the token. Bad tokens, unknown
// subjects and deactivated accounts all yield domain.ErrUnauthenticated.
func (g *Guard) Resolve(ctx context.Context, raw string) (*domain.User, error) {
	if raw == "" {
		return nil, domain.ErrUnauthenticated
	}
	v := g.tokens.Verify(raw)
	if !v.Valid() {
		return nil, domain.ErrUnauthenticated
	}

	user, err := g.users.GetByUsername(ctx, v.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}

// RequireAdmin fails with domain.ErrForbidden unless user is an Admin.
func RequireAdmin(user *domain.User) error {
	if !user.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// CanManageUser is the user-management policy: the user themself or any Admin.
func CanManageUser(targetID int64, user *domain.User) bool {
	if user == nil {
		return false
	}
	return targetID == user.ID || user.IsAdmin()
}

// OwnsVocab is the vocabulary policy: strict ownership, no admin override.
func OwnsVocab(ownerID int64, user *domain.User) bool {
	return user != nil && ownerID == user.ID
}
