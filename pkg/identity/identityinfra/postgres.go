package identityinfra

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/taskforge/taskforge/pkg/errx"
	"github.com/taskforge/taskforge/pkg/identity"
)

// PostgresUserRepository is the Postgres implementation of UserRepository.
type PostgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository creates a new repository instance.
func NewPostgresUserRepository(db *sqlx.DB) identity.UserRepository {
	return &PostgresUserRepository{db: db}
}

// Save inserts a new account.
func (r *PostgresUserRepository) Save(ctx context.Context, user identity.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (:id, :email, :password_hash, :created_at)`

	_, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return identity.NewAuthorityError(identity.CodeEmailAlreadyInUse, err)
		}
		return errx.Wrap(err, "failed to create user", errx.TypeInternal).
			WithDetail("email", user.Email)
	}
	return nil
}

// FindByEmail looks an account up by its unique email.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	var user identity.User
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, identity.NewAuthorityError(identity.CodeUserNotFound, nil)
		}
		return nil, errx.Wrap(err, "failed to find user by email", errx.TypeInternal)
	}
	return &user, nil
}
