package service

import (
	"context"
	"errors"

	"github.com/msomdec/image-gallery/internal/domain"
)

// IdentityService resolves the opaque username attached to a session into
// the user record every other operation is scoped by.
type IdentityService struct {
	users domain.UserRepository
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(users domain.UserRepository) *IdentityService {
	return &IdentityService{users: users}
}

// Resolve returns the user for username. An empty or unknown username is
// ErrUnauthorized: there is no identity to scope the request to.
func (s *IdentityService) Resolve(ctx context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.WrapWithMetadata(domain.CodeUnauthorized, "resolve identity",
				map[string]string{"username": username}, err)
		}
		return nil, translate("resolve identity", err)
	}
	return user, nil
}
