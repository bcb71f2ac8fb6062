package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/db"
	"github.com/yigit/eduschedule/internal/pkg/apperrors"
)

// UserRepository is the read-only user directory
type UserRepository struct {
	db *db.PostgresDB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(database *db.PostgresDB) *UserRepository {
	return &UserRepository{db: database}
}

// FindUserByID retrieves a user by ID
func (r *UserRepository) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	sqlStr, args, err := psql.Select(
		"id", "institute_id", "first_name", "last_name", "role_type", "is_active",
	).From("users").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building user query: %w", err)
	}

	user := &models.User{}
	err = r.db.Querier(ctx).QueryRow(ctx, sqlStr, args...).Scan(
		&user.ID, &user.InstituteID, &user.FirstName, &user.LastName, &user.RoleType, &user.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	return user, nil
}
