package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vocab-manager/internal/domain"
	"vocab-manager/internal/repository"
)

const userColumns = `id, username, email, firstname, avatar, password_hash, role, is_active, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = domain.RoleUser
	}

	res, err := r.db.ExecContext(ctx, `
INSERT INTO users (username, email, firstname, avatar, password_hash, role, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		nullString(user.Email),
		user.Firstname,
		user.Avatar,
		user.PasswordHash,
		string(user.Role),
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return 0, userWriteError("insert user", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE username = ?`,
		username,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+userColumns+`
FROM users
ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE users
SET username=?, email=?, firstname=?, avatar=?, password_hash=?, role=?, is_active=?, updated_at=?
WHERE id=?`,
		user.Username,
		nullString(user.Email),
		user.Firstname,
		user.Avatar,
		user.PasswordHash,
		string(user.Role),
		user.IsActive,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return userWriteError("update user", err)
	}
	return requireAffected(res, domain.ErrUserNotFound)
}

// Delete removes the user together with everything they own.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	listIDs, err := queryIDs(ctx, tx, `SELECT id FROM vocab_lists WHERE user_id=?`, id)
	if err != nil {
		return fmt.Errorf("query user lists: %w", err)
	}
	for _, listID := range listIDs {
		if err := deleteListTx(ctx, tx, listID); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := requireAffected(res, domain.ErrUserNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit user delete: %w", err)
	}
	return nil
}

func userWriteError(op string, err error) error {
	switch {
	case isUniqueViolation(err, "users.username"):
		return domain.ErrUsernameTaken
	case isUniqueViolation(err, "users.email"):
		return domain.ErrEmailTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user  domain.User
		email sql.NullString
		role  string
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&email,
		&user.Firstname,
		&user.Avatar,
		&user.PasswordHash,
		&role,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Email = email.String
	user.Role = domain.Role(role)
	return &user, nil
}
