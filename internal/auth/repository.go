package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var (
	ErrEmailTaken  = errors.New("email already registered")
	ErrMobileTaken = errors.New("mobile already registered")
)

const userColumns = `id, first_name, last_name, email, COALESCE(mobile, ''), password_hash, role,
	is_blocked, COALESCE(refresh_token, ''), refresh_expires_at, created_at, updated_at`

// Repository is the Postgres-backed credential store. Passwords are hashed
// here, on the write path, so plain passwords never reach a query.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var user User
	var role string
	var refreshExpiresAt sql.NullTime
	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Mobile, &user.PasswordHash, &role,
		&user.Blocked, &user.RefreshToken, &refreshExpiresAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}

	user.Role = Role(role)
	if refreshExpiresAt.Valid {
		value := refreshExpiresAt.Time.UTC()
		user.RefreshExpiresAt = &value
	}
	return user, nil
}

func (r *Repository) findOne(ctx context.Context, column string, value string) (User, bool, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, false, nil
		}
		return User{}, false, fmt.Errorf("query user by %s: %w", column, err)
	}
	return user, true, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (User, bool, error) {
	return r.findOne(ctx, "id", id)
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (User, bool, error) {
	return r.findOne(ctx, "email", email)
}

func (r *Repository) FindByRefreshToken(ctx context.Context, token string) (User, bool, error) {
	if token == "" {
		return User{}, false, nil
	}
	return r.findOne(ctx, "refresh_token", token)
}

func (r *Repository) Create(ctx context.Context, reg Registration, role Role) (User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return User{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	user, err := scanUser(r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, mobile, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $8)
		RETURNING `+userColumns,
		id.String(), reg.FirstName, reg.LastName, reg.Email, reg.Mobile, hash, string(role), now,
	))
	if err != nil {
		if dup := duplicateField(err); dup != nil {
			return User{}, dup
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

func (r *Repository) SetRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) (bool, error) {
	var tokenValue, expiresValue any
	if token != "" {
		tokenValue = token
		expiresValue = expiresAt.UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token = $2, refresh_expires_at = $3, updated_at = $4
		WHERE id = $1
	`, id, tokenValue, expiresValue, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("update refresh token: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("refresh token rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (User, bool, error) {
	var hash string
	if update.Password != "" {
		var err error
		if hash, err = HashPassword(update.Password); err != nil {
			return User{}, false, err
		}
	}

	user, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users
		SET first_name = COALESCE(NULLIF($2, ''), first_name),
			last_name = COALESCE(NULLIF($3, ''), last_name),
			email = COALESCE(NULLIF($4, ''), email),
			mobile = COALESCE(NULLIF($5, ''), mobile),
			password_hash = COALESCE(NULLIF($6, ''), password_hash),
			updated_at = $7
		WHERE id = $1
		RETURNING `+userColumns,
		id, update.FirstName, update.LastName, update.Email, update.Mobile, hash, time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, false, nil
		}
		if dup := duplicateField(err); dup != nil {
			return User{}, false, dup
		}
		return User{}, false, fmt.Errorf("update user: %w", err)
	}

	return user, true, nil
}

func (r *Repository) Delete(ctx context.Context, id string) (User, bool, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, false, nil
		}
		return User{}, false, fmt.Errorf("delete user: %w", err)
	}
	return user, true, nil
}

// SetBlocked flips the block flag. Blocking also drops the stored refresh
// token so the account cannot mint new access tokens.
func (r *Repository) SetBlocked(ctx context.Context, id string, blocked bool) (User, bool, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users
		SET is_blocked = $2,
			refresh_token = CASE WHEN $2 THEN NULL ELSE refresh_token END,
			refresh_expires_at = CASE WHEN $2 THEN NULL ELSE refresh_expires_at END,
			updated_at = $3
		WHERE id = $1
		RETURNING `+userColumns,
		id, blocked, time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, false, nil
		}
		return User{}, false, fmt.Errorf("update block flag: %w", err)
	}
	return user, true, nil
}

func (r *Repository) UpsertAdmin(ctx context.Context, email, plainPassword string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate uuid v7: %w", err)
	}

	hash, err := HashPassword(plainPassword)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, 'admin', $4, $4)
		ON CONFLICT (email)
		DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role = 'admin',
			is_blocked = FALSE,
			updated_at = EXCLUDED.updated_at
	`, id.String(), email, hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert admin user: %w", err)
	}

	return nil
}

// CleanupExpiredRefreshTokens clears stored refresh tokens whose expiry
// has passed, at most batchSize rows per call.
func (r *Repository) CleanupExpiredRefreshTokens(ctx context.Context, now time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	res, err := r.db.ExecContext(ctx, `
		WITH stale AS (
			SELECT id
			FROM users
			WHERE refresh_expires_at IS NOT NULL AND refresh_expires_at < $1
			ORDER BY refresh_expires_at ASC
			LIMIT $2
		)
		UPDATE users u
		SET refresh_token = NULL, refresh_expires_at = NULL
		FROM stale
		WHERE u.id = stale.id
	`, now.UTC(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("clear expired refresh tokens: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired refresh tokens rows affected: %w", err)
	}

	return affected, nil
}

func duplicateField(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	if strings.Contains(pgErr.ConstraintName, "mobile") {
		return ErrMobileTaken
	}
	return ErrEmailTaken
}
