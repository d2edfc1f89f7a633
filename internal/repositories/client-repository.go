package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pool-service/internal/entities"
	apperrors "pool-service/pkg/errors"
	"pool-service/pkg/types"
)

const (
	clientTable  = "clients"
	clientFields = "id, company_id, name, address, phone, email, preferred_service_day, active, created_at, updated_at"
)

// ClientRepositoryInterface is a read-only view on the client directory
// owned by the client-management subsystem.
type ClientRepositoryInterface interface {
	GetClients(ctx context.Context, companyID uint64, filter types.Filter) ([]*entities.Client, uint64, error)
	FindClient(ctx context.Context, companyID, id uint64) (*entities.Client, error)
	ListAvailableByDay(ctx context.Context, companyID uint64, dayOfWeek int) ([]*entities.Client, error)
}

type clientRepository struct {
	storage *pgxpool.Pool
}

func NewClientRepository(storage *pgxpool.Pool) ClientRepositoryInterface {
	return &clientRepository{storage: storage}
}

func (r *clientRepository) scanRow(row pgx.Row) (*entities.Client, error) {
	var c entities.Client
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Address, &c.Phone, &c.Email,
		&c.PreferredServiceDay, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan clients row: %w", err)
	}
	return &c, nil
}

func (r *clientRepository) GetClients(ctx context.Context, companyID uint64, filter types.Filter) ([]*entities.Client, uint64, error) {
	where := sq.And{sq.Eq{"company_id": companyID, "active": true}}
	if filter.Search != "" {
		where = append(where, sq.ILike{"name": "%" + filter.Search + "%"})
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From(clientTable).Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build client count query: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*entities.Client{}, 0, nil
	}

	builder := psql.Select(clientFields).From(clientTable).Where(where).OrderBy("name", "id")
	if filter.Limit > 0 {
		builder = builder.Limit(filter.Limit).Offset(filter.Offset)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build client listing query: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	clients, err := r.collectRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return clients, total, nil
}

func (r *clientRepository) FindClient(ctx context.Context, companyID, id uint64) (*entities.Client, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 AND company_id = $2", clientFields, clientTable)
	return r.scanRow(r.storage.QueryRow(ctx, query, id, companyID))
}

// ListAvailableByDay returns active clients whose preferred service day
// matches and who have no active assignment for that day with any
// technician. Anti-join keeps it a pure projection.
func (r *clientRepository) ListAvailableByDay(ctx context.Context, companyID uint64, dayOfWeek int) ([]*entities.Client, error) {
	fields := "c.id, c.company_id, c.name, c.address, c.phone, c.email, c.preferred_service_day, c.active, c.created_at, c.updated_at"
	query, args, err := psql.
		Select(fields).
		From(clientTable+" c").
		LeftJoin("recurring_assignments a ON a.client_id = c.id AND a.day_of_week = ? AND a.active = TRUE", dayOfWeek).
		Where(sq.Eq{"c.company_id": companyID, "c.active": true, "c.preferred_service_day": dayOfWeek}).
		Where("a.id IS NULL").
		OrderBy("c.name", "c.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build available clients query: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectRows(rows)
}

func (r *clientRepository) collectRows(rows pgx.Rows) ([]*entities.Client, error) {
	clients := make([]*entities.Client, 0)
	for rows.Next() {
		var c entities.Client
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Address, &c.Phone, &c.Email,
			&c.PreferredServiceDay, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, &c)
	}
	return clients, rows.Err()
}
