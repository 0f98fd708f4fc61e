package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"go-auth-service/internal/model"
)

// Querier is the slice of pgxpool.Pool the repositories need. Narrowing
// to an interface lets tests substitute a pgxmock pool.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepository struct {
	db Querier
}

func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `uuid, username, email, password, provider, provider_id, is_active, created_at, updated_at`

// Create inserts the user. The advisory uniqueness pre-check in the
// validator and this insert are separate statements with no transaction,
// so a concurrent duplicate can slip through; the unique constraints
// catch it here and the violation is surfaced as the same field-level
// error the validator would have produced.
func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (uuid, username, email, password, provider, provider_id, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.UUID, u.Username, u.Email, u.Password, u.Provider, u.ProviderID, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch {
			case strings.Contains(pgErr.ConstraintName, "email"):
				return model.ErrEmailTaken
			case strings.Contains(pgErr.ConstraintName, "username"):
				return model.ErrUsernameTaken
			}
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindActiveByEmail returns the active user with the given email.
// Inactive users are indistinguishable from missing ones.
func (r *UserRepository) FindActiveByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND is_active = TRUE`, email)
	return r.scanUser(row, email)
}

func (r *UserRepository) FindActiveByUUID(ctx context.Context, uuid string) (model.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE uuid = $1 AND is_active = TRUE`, uuid)
	return r.scanUser(row, uuid)
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// Delete removes a user. Only tests exercise this; no HTTP surface
// deletes users.
func (r *UserRepository) Delete(ctx context.Context, uuid string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE uuid = $1`, uuid)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row pgx.Row, key string) (model.User, error) {
	var u model.User
	err := row.Scan(&u.UUID, &u.Username, &u.Email, &u.Password, &u.Provider,
		&u.ProviderID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user %q: %w", key, err)
	}
	return u, nil
}
