package repository

import (
	"context"
	"fmt"

	"github.com/Dan9191/bankcards/internal/apperror"
	"github.com/Dan9191/bankcards/internal/models"
)

const userColumns = `id, email, password_hash, role, created_at, updated_at`

var userSortColumns = map[string]string{
	"id":         "id",
	"email":      "email",
	"created_at": "created_at",
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user                  models.User
		email, hash, roleName string
	)
	if err := row.Scan(&user.ID, &email, &hash, &roleName, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if user.Email, err = models.NewEmail(email); err != nil {
		return nil, err
	}
	if user.Password, err = models.NewPassword(hash); err != nil {
		return nil, err
	}
	user.Role = models.Role(roleName)
	if !user.Role.Valid() {
		return nil, fmt.Errorf("stored user %d has unknown role %q", user.ID, roleName)
	}
	return &user, nil
}

// CreateUser creates a new user in the database
func (q *Queries) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	err := q.db.QueryRowContext(ctx, query, user.Email.String(), user.Password.Hash(), string(user.Role)).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		mapped := mapError(err, apperror.ErrUserNotFound, "create user")
		if apperror.KindOf(mapped) == apperror.KindConflict {
			return apperror.ErrEmailExists.WithCause(err)
		}
		return mapped
	}
	return nil
}

// FindUserByID retrieves a user by id
func (q *Queries) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(q.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, apperror.ErrUserNotFound.WithMessage("user with id=%d not found", id), "find user")
	}
	return user, nil
}

// FindUserByEmail retrieves a user by email
func (q *Queries) FindUserByEmail(ctx context.Context, email models.Email) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(q.db.QueryRowContext(ctx, query, email.String()))
	if err != nil {
		return nil, mapError(err, apperror.ErrUserNotFound, "find user")
	}
	return user, nil
}

// ListUsers returns one page of users.
func (q *Queries) ListUsers(ctx context.Context, page models.Page) (models.PageResult[*models.User], error) {
	result := models.PageResult[*models.User]{Page: page}

	column, ok := userSortColumns[page.SortBy]
	if !ok {
		return result, apperror.Validation("cannot sort users by %q", page.SortBy)
	}

	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + pageClause(page, column, 1)
	rows, err := q.db.QueryContext(ctx, query, page.Size, page.Offset())
	if err != nil {
		return result, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return result, fmt.Errorf("failed to scan user: %w", err)
		}
		result.Items = append(result.Items, user)
	}
	if err := rows.Err(); err != nil {
		return result, fmt.Errorf("failed to list users: %w", err)
	}
	return result, nil
}

// UpdateUser stores the user's email and password hash.
func (q *Queries) UpdateUser(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET email = $1, password_hash = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING updated_at`
	err := q.db.QueryRowContext(ctx, query, user.Email.String(), user.Password.Hash(), user.ID).Scan(&user.UpdatedAt)
	if err != nil {
		mapped := mapError(err, apperror.ErrUserNotFound.WithMessage("user with id=%d not found", user.ID), "update user")
		if apperror.KindOf(mapped) == apperror.KindConflict {
			return apperror.ErrEmailExists.WithCause(err)
		}
		return mapped
	}
	return nil
}

// DeleteUser removes a user that owns no cards or transfers.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err, apperror.ErrUserNotFound, "delete user")
	}
	return checkRowsAffected(res, apperror.ErrUserNotFound.WithMessage("user with id=%d not found", id))
}
