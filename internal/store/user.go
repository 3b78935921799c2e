package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/accountd/apiserver/types"
)

const userColumns = `id, name, email, password, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`
	return r.queryOne(ctx, query, email)
}

// FindByEmailExcludingID looks up a different user holding email.
func (r *UserRepository) FindByEmailExcludingID(ctx context.Context, email string, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1 AND id <> $2`
	return r.queryOne(ctx, query, email, id)
}

func (r *UserRepository) ListAll(ctx context.Context) ([]types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		var user types.User
		if err := scanUser(rows, &user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Insert stores a new user. The database assigns id and both timestamps.
func (r *UserRepository) Insert(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		INSERT INTO users (name, email, password)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrEmailTaken
		}
		return types.User{}, err
	}
	return user, nil
}

// UpdateByID rewrites name, email and password; updated_at comes from the database clock.
func (r *UserRepository) UpdateByID(ctx context.Context, id int, changes types.UserChanges) error {
	const query = `
		UPDATE users
		SET name = $1,
			email = $2,
			password = $3,
			updated_at = NOW()
		WHERE id = $4`
	result, err := r.db.ExecContext(
		ctx,
		query,
		changes.Name,
		changes.Email,
		changes.PasswordHash,
		id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) queryOne(ctx context.Context, query string, args ...any) (types.User, error) {
	var user types.User
	err := scanUser(r.db.QueryRowContext(ctx, query, args...), &user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, user *types.User) error {
	return row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}
