package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"store-api/internal/apperr"
)

// Store is the credential store the session manager runs against.
// Lookups report absence through the boolean instead of an error.
type Store interface {
	FindByID(ctx context.Context, id string) (User, bool, error)
	FindByEmail(ctx context.Context, email string) (User, bool, error)
	FindByRefreshToken(ctx context.Context, token string) (User, bool, error)
	Create(ctx context.Context, reg Registration, role Role) (User, error)
	SetRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) (bool, error)
	List(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (User, bool, error)
	Delete(ctx context.Context, id string) (User, bool, error)
	SetBlocked(ctx context.Context, id string, blocked bool) (User, bool, error)
	UpsertAdmin(ctx context.Context, email, password string) error
}

type Service struct {
	store Store
	codec *TokenCodec
}

func NewService(store Store, codec *TokenCodec) *Service {
	return &Service{store: store, codec: codec}
}

// RefreshTTL is the lifetime of refresh tokens issued at login.
func (s *Service) RefreshTTL() time.Duration {
	return s.codec.RefreshTTL()
}

func (s *Service) Register(ctx context.Context, reg Registration) (PublicUser, error) {
	reg.Email = normalizeEmail(reg.Email)
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.Mobile = strings.TrimSpace(reg.Mobile)
	if reg.Email == "" || reg.Password == "" {
		return PublicUser{}, apperr.Validation("email and password are required")
	}

	_, exists, err := s.store.FindByEmail(ctx, reg.Email)
	if err != nil {
		return PublicUser{}, apperr.Internal("failed to register user", err)
	}
	if exists {
		return PublicUser{}, apperr.Conflict("user already exists")
	}

	user, err := s.store.Create(ctx, reg, RoleUser)
	if err != nil {
		if conflict := conflictError(err); conflict != nil {
			return PublicUser{}, conflict
		}
		return PublicUser{}, apperr.Internal("failed to register user", err)
	}

	return user.Public(), nil
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, apperr.Unauthorized("invalid email or password")
	}

	user, found, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return Session{}, apperr.Internal("failed to login", err)
	}
	if !found {
		CheckPassword(dummyHash, password)
		return Session{}, apperr.Unauthorized("invalid email or password")
	}
	if !CheckPassword(user.PasswordHash, password) {
		return Session{}, apperr.Unauthorized("invalid email or password")
	}
	if user.Blocked {
		return Session{}, apperr.Forbidden("account is blocked")
	}

	access, _, err := s.codec.IssueAccessToken(user.ID)
	if err != nil {
		return Session{}, apperr.Internal("failed to login", err)
	}
	refresh, refreshExpiresAt, err := s.codec.IssueRefreshToken(user.ID)
	if err != nil {
		return Session{}, apperr.Internal("failed to login", err)
	}

	stored, err := s.store.SetRefreshToken(ctx, user.ID, refresh, refreshExpiresAt)
	if err != nil {
		return Session{}, apperr.Internal("failed to login", err)
	}
	if !stored {
		return Session{}, apperr.Unauthorized("invalid email or password")
	}

	return Session{
		User:             user.Public(),
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// Refresh mints a new access token from a refresh token. The token must
// be the one currently stored for its owner and must still verify; the
// refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", apperr.Unauthorized("no refresh token")
	}

	user, found, err := s.store.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", apperr.Internal("failed to refresh token", err)
	}
	if !found {
		return "", apperr.Unauthorized("no refresh token found")
	}

	claims, err := s.codec.Verify(refreshToken, TokenRefresh)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnauthorized, "invalid refresh token", err)
	}
	if claims.Subject != user.ID {
		return "", apperr.Unauthorized("invalid refresh token")
	}
	if user.Blocked {
		return "", apperr.Forbidden("account is blocked")
	}

	access, _, err := s.codec.IssueAccessToken(user.ID)
	if err != nil {
		return "", apperr.Internal("failed to refresh token", err)
	}

	return access, nil
}

// Logout clears the stored refresh token. An empty or unknown token is not
// an error: the client is already logged out and only needs its cookie
// cleared. The boolean reports whether a session was actually ended.
func (s *Service) Logout(ctx context.Context, refreshToken string) (bool, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return false, nil
	}

	user, found, err := s.store.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		return false, apperr.Internal("failed to logout", err)
	}
	if !found {
		return false, nil
	}

	cleared, err := s.store.SetRefreshToken(ctx, user.ID, "", time.Time{})
	if err != nil {
		return false, apperr.Internal("failed to logout", err)
	}

	return cleared, nil
}

func (s *Service) BootstrapAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	password = strings.TrimSpace(password)

	if email == "" && password == "" {
		return nil
	}
	if email == "" || password == "" {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD are required together")
	}

	return s.store.UpsertAdmin(ctx, email, password)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func conflictError(err error) error {
	switch {
	case errors.Is(err, ErrEmailTaken):
		return apperr.Wrap(apperr.KindConflict, "user already exists", err)
	case errors.Is(err, ErrMobileTaken):
		return apperr.Wrap(apperr.KindConflict, "mobile already in use", err)
	default:
		return nil
	}
}
