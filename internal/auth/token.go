package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 72 * time.Hour
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token is expired")
	ErrMalformedToken   = errors.New("malformed token")
)

type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Claims struct {
	Subject   string
	Type      TokenType
	ID        string
	ExpiresAt time.Time
}

type tokenClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenCodec(cfg TokenConfig) *TokenCodec {
	codec := &TokenCodec{
		secret:     []byte(cfg.Secret),
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
	}
	if cfg.AccessTTL > 0 {
		codec.accessTTL = cfg.AccessTTL
	}
	if cfg.RefreshTTL > 0 {
		codec.refreshTTL = cfg.RefreshTTL
	}
	return codec
}

func (c *TokenCodec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *TokenCodec) IssueAccessToken(subjectID string) (string, time.Time, error) {
	return c.issue(subjectID, TokenAccess, c.accessTTL)
}

func (c *TokenCodec) IssueRefreshToken(subjectID string) (string, time.Time, error) {
	return c.issue(subjectID, TokenRefresh, c.refreshTTL)
}

func (c *TokenCodec) issue(subjectID string, tokenType TokenType, ttl time.Duration) (string, time.Time, error) {
	if subjectID == "" {
		return "", time.Time{}, fmt.Errorf("sign %s token: empty subject", tokenType)
	}

	now := c.now().UTC()
	expiresAt := now.Add(ttl)
	claims := tokenClaims{
		Type: string(tokenType),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	encoded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", tokenType, err)
	}

	return encoded, expiresAt.Truncate(time.Second), nil
}

// Verify checks signature, expiry and token type. On failure it returns
// exactly one of ErrInvalidSignature, ErrTokenExpired or ErrMalformedToken
// and zero claims.
func (c *TokenCodec) Verify(tokenStr string, want TokenType) (Claims, error) {
	if tokenStr == "" {
		return Claims{}, ErrMalformedToken
	}

	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Claims{}, classifyJWTError(err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidSignature
	}

	if claims.Subject == "" || TokenType(claims.Type) != want {
		return Claims{}, ErrMalformedToken
	}

	return Claims{
		Subject:   claims.Subject,
		Type:      TokenType(claims.Type),
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	default:
		return ErrMalformedToken
	}
}
