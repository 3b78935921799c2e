package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/accountd/apiserver/types"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{"id", "name", "email", "password", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewUserRepository(db), mock
}

func TestUserRepository_FindByID(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(7, "Ada", "ada@example.com", "hash", now, now))

		user, err := repo.FindByID(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, 7, user.ID)
		assert.Equal(t, "Ada", user.Name)
		assert.Equal(t, "ada@example.com", user.Email)
		assert.Equal(t, "hash", user.PasswordHash)
		assert.Equal(t, now, user.UpdatedAt)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs(8).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByID(context.Background(), 8)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("db error passes through", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM users WHERE id = \$1`).
			WithArgs(9).
			WillReturnError(errors.New("db down"))

		_, err := repo.FindByID(context.Background(), 9)

		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, "db down")
	})
}

func TestUserRepository_FindByEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_FindByEmailExcludingID(t *testing.T) {
	now := time.Now()
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM users WHERE email = \$1 AND id <> \$2`).
		WithArgs("taken@example.com", 1).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(2, "Bob", "taken@example.com", "hash", now, now))

	user, err := repo.FindByEmailExcludingID(context.Background(), "taken@example.com", 1)

	require.NoError(t, err)
	assert.Equal(t, 2, user.ID)
}

func TestUserRepository_ListAll(t *testing.T) {
	now := time.Now()

	t.Run("rows", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM users ORDER BY id`).
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(1, "Ada", "ada@example.com", "h1", now, now).
				AddRow(2, "Bob", "bob@example.com", "h2", now, now))

		users, err := repo.ListAll(context.Background())

		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "Ada", users[0].Name)
		assert.Equal(t, "Bob", users[1].Name)
	})

	t.Run("empty table returns empty slice", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM users ORDER BY id`).
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		users, err := repo.ListAll(context.Background())

		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
	})
}

func TestUserRepository_Insert(t *testing.T) {
	now := time.Now()

	t.Run("assigns id and timestamps", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`INSERT INTO users \(name, email, password\) VALUES \(\$1, \$2, \$3\) RETURNING id, created_at, updated_at`).
			WithArgs("Ada", "ada@example.com", "hash").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(42, now, now))

		user, err := repo.Insert(context.Background(), types.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "hash"})

		require.NoError(t, err)
		assert.Equal(t, 42, user.ID)
		assert.Equal(t, now, user.CreatedAt)
	})

	t.Run("unique violation maps to ErrEmailTaken", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("Ada", "ada@example.com", "hash").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		_, err := repo.Insert(context.Background(), types.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "hash"})

		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestUserRepository_UpdateByID(t *testing.T) {
	changes := types.UserChanges{Name: "Ada L", Email: "ada@example.com", PasswordHash: "newhash"}

	t.Run("updates with database clock", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`UPDATE users SET name = \$1, email = \$2, password = \$3, updated_at = NOW\(\) WHERE id = \$4`).
			WithArgs("Ada L", "ada@example.com", "newhash", 3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateByID(context.Background(), 3, changes))
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`UPDATE users`).
			WithArgs("Ada L", "ada@example.com", "newhash", 4).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.UpdateByID(context.Background(), 4, changes), ErrNotFound)
	})

	t.Run("unique violation", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`UPDATE users`).
			WithArgs("Ada L", "ada@example.com", "newhash", 5).
			WillReturnError(&pq.Error{Code: "23505"})

		assert.ErrorIs(t, repo.UpdateByID(context.Background(), 5, changes), ErrEmailTaken)
	})
}

func TestUserRepository_DeleteByID(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.DeleteByID(context.Background(), 1))
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.DeleteByID(context.Background(), 1), ErrNotFound)
	})
}
