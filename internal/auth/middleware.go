package auth

import (
	"context"
	"net/http"
	"strings"

	"store-api/internal/apperr"
	"store-api/internal/respond"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext returns the identity resolved by the gate for this
// request.
func UserFromContext(ctx context.Context) (PublicUser, bool) {
	user, ok := ctx.Value(userContextKey).(PublicUser)
	return user, ok
}

func WithUser(ctx context.Context, user PublicUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// IdentityResolver is the slice of the credential store the gate needs.
type IdentityResolver interface {
	FindByID(ctx context.Context, id string) (User, bool, error)
}

type GateOptions struct {
	// RejectBlocked makes the gate refuse access tokens of blocked
	// accounts. Off by default: blocking only takes effect at login and
	// refresh.
	RejectBlocked bool
}

type Gate struct {
	codec    *TokenCodec
	resolver IdentityResolver
	options  GateOptions
}

func NewGate(codec *TokenCodec, resolver IdentityResolver, options GateOptions) *Gate {
	return &Gate{codec: codec, resolver: resolver, options: options}
}

func (g *Gate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := g.Authenticate(r)
		if err != nil {
			respond.Error(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// Authenticate resolves the bearer token on r to a stored identity.
func (g *Gate) Authenticate(r *http.Request) (PublicUser, error) {
	tokenStr, ok := bearerToken(r)
	if !ok {
		return PublicUser{}, apperr.Unauthorized("not authorized, no token found")
	}

	claims, err := g.codec.Verify(tokenStr, TokenAccess)
	if err != nil {
		return PublicUser{}, apperr.Wrap(apperr.KindUnauthorized, "invalid token", err)
	}

	user, found, err := g.resolver.FindByID(r.Context(), claims.Subject)
	if err != nil {
		return PublicUser{}, apperr.Internal("failed to resolve user", err)
	}
	if !found {
		return PublicUser{}, apperr.Unauthorized("user not found")
	}
	if g.options.RejectBlocked && user.Blocked {
		return PublicUser{}, apperr.Forbidden("account is blocked")
	}

	return user.Public(), nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
