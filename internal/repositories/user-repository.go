package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pool-service/internal/entities"
	"pool-service/pkg/constants"
	apperrors "pool-service/pkg/errors"
)

const (
	userTable  = "users"
	userFields = "id, company_id, name, email, role, active, created_at, updated_at"
)

// UserRepositoryInterface is a read-only view on the technician/user
// directory owned by the excluded user management subsystem.
type UserRepositoryInterface interface {
	FindUser(ctx context.Context, companyID, id uint64) (*entities.User, error)
	GetTechnicians(ctx context.Context, companyID uint64) ([]*entities.User, error)
}

type userRepository struct {
	storage *pgxpool.Pool
}

func NewUserRepository(storage *pgxpool.Pool) UserRepositoryInterface {
	return &userRepository{storage: storage}
}

func (r *userRepository) FindUser(ctx context.Context, companyID, id uint64) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND company_id = $2", userFields, userTable)
	var u entities.User
	err := r.storage.QueryRow(ctx, query, id, companyID).Scan(
		&u.ID, &u.CompanyID, &u.Name, &u.Email, &u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan users row: %w", err)
	}
	return &u, nil
}

func (r *userRepository) GetTechnicians(ctx context.Context, companyID uint64) ([]*entities.User, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE company_id = $1 AND role = $2 AND active = TRUE ORDER BY name, id",
		userFields, userTable,
	)
	rows, err := r.storage.Query(ctx, query, companyID, constants.RoleTechnician)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*entities.User, 0)
	for rows.Next() {
		var u entities.User
		if err := rows.Scan(&u.ID, &u.CompanyID, &u.Name, &u.Email, &u.Role, &u.Active,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}
