package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"store-api/internal/apperr"
)

func (s *Service) ListUsers(ctx context.Context) ([]PublicUser, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, apperr.Internal("failed to list users", err)
	}

	out := make([]PublicUser, 0, len(users))
	for _, user := range users {
		out = append(out, user.Public())
	}
	return out, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (PublicUser, error) {
	if err := validateID(id); err != nil {
		return PublicUser{}, err
	}

	user, found, err := s.store.FindByID(ctx, id)
	if err != nil {
		return PublicUser{}, apperr.Internal("failed to get user", err)
	}
	if !found {
		return PublicUser{}, apperr.NotFound("user not found")
	}
	return user.Public(), nil
}

// UpdateProfile applies a self-service update to the caller's own record.
// selfID always comes from the authenticated context, never the path.
func (s *Service) UpdateProfile(ctx context.Context, selfID string, update ProfileUpdate) (PublicUser, error) {
	if err := validateID(selfID); err != nil {
		return PublicUser{}, err
	}

	update.FirstName = strings.TrimSpace(update.FirstName)
	update.LastName = strings.TrimSpace(update.LastName)
	update.Email = normalizeEmail(update.Email)
	update.Mobile = strings.TrimSpace(update.Mobile)

	user, found, err := s.store.UpdateProfile(ctx, selfID, update)
	if err != nil {
		if conflict := conflictError(err); conflict != nil {
			return PublicUser{}, conflict
		}
		return PublicUser{}, apperr.Internal("failed to update user", err)
	}
	if !found {
		return PublicUser{}, apperr.NotFound("user not found")
	}
	return user.Public(), nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) (PublicUser, error) {
	if err := validateID(id); err != nil {
		return PublicUser{}, err
	}

	user, found, err := s.store.Delete(ctx, id)
	if err != nil {
		return PublicUser{}, apperr.Internal("failed to delete user", err)
	}
	if !found {
		return PublicUser{}, apperr.NotFound("user not found")
	}
	return user.Public(), nil
}

func (s *Service) SetBlocked(ctx context.Context, id string, blocked bool) (PublicUser, error) {
	if err := validateID(id); err != nil {
		return PublicUser{}, err
	}

	user, found, err := s.store.SetBlocked(ctx, id, blocked)
	if err != nil {
		return PublicUser{}, apperr.Internal("failed to update user", err)
	}
	if !found {
		return PublicUser{}, apperr.NotFound("user not found")
	}
	return user.Public(), nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation(id + " is not a valid id")
	}
	return nil
}
