package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pool-service/internal/entities"
	apperrors "pool-service/pkg/errors"
)

const (
	assignmentTable  = "recurring_assignments"
	assignmentFields = "id, company_id, technician_id, client_id, day_of_week, route_order, active, created_at, updated_at"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// AssignmentWithClient carries the denormalized client name for the
// admin scheduling screen.
type AssignmentWithClient struct {
	entities.RecurringAssignment
	ClientName string
}

type AssignmentRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RecurringAssignment, error)
	FindTuple(ctx context.Context, tx pgx.Tx, companyID, technicianID, clientID uint64, dayOfWeek int) (*entities.RecurringAssignment, error)
	Create(ctx context.Context, tx pgx.Tx, a entities.RecurringAssignment) (*entities.RecurringAssignment, error)
	Reactivate(ctx context.Context, tx pgx.Tx, id uint64, routeOrder int) (*entities.RecurringAssignment, error)
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
	SetActive(ctx context.Context, tx pgx.Tx, id uint64, active bool) error
	MaxRouteOrder(ctx context.Context, tx pgx.Tx, technicianID uint64, dayOfWeek int) (int, error)
	ListGroup(ctx context.Context, tx pgx.Tx, technicianID uint64, dayOfWeek int) ([]*entities.RecurringAssignment, error)
	ListActiveByCompanyAndDay(ctx context.Context, companyID uint64, dayOfWeek int) ([]*entities.RecurringAssignment, error)
	UpdateRouteOrders(ctx context.Context, tx pgx.Tx, orders map[uint64]int) error
	ListByCompany(ctx context.Context, companyID uint64, technicianID *uint64, dayOfWeek *int) ([]AssignmentWithClient, error)
}

type assignmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewAssignmentRepository(storage *pgxpool.Pool, logger *zap.Logger) AssignmentRepositoryInterface {
	return &assignmentRepository{storage: storage, logger: logger}
}

func (r *assignmentRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *assignmentRepository) scanRow(row pgx.Row) (*entities.RecurringAssignment, error) {
	var a entities.RecurringAssignment
	err := row.Scan(
		&a.ID, &a.CompanyID, &a.TechnicianID, &a.ClientID,
		&a.DayOfWeek, &a.RouteOrder, &a.Active, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan recurring_assignments row: %w", err)
	}
	return &a, nil
}

func (r *assignmentRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RecurringAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", assignmentFields, assignmentTable)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, id))
}

// FindTuple looks up the unique (company, technician, client, day)
// tuple, including soft-disabled rows, so a duplicate can be
// reactivated instead of inserted.
func (r *assignmentRepository) FindTuple(ctx context.Context, tx pgx.Tx, companyID, technicianID, clientID uint64, dayOfWeek int) (*entities.RecurringAssignment, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE company_id = $1 AND technician_id = $2 AND client_id = $3 AND day_of_week = $4",
		assignmentFields, assignmentTable,
	)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, companyID, technicianID, clientID, dayOfWeek))
}

func (r *assignmentRepository) Create(ctx context.Context, tx pgx.Tx, a entities.RecurringAssignment) (*entities.RecurringAssignment, error) {
	query := fmt.Sprintf(
		"INSERT INTO %s (company_id, technician_id, client_id, day_of_week, route_order) VALUES ($1, $2, $3, $4, $5) RETURNING %s",
		assignmentTable, assignmentFields,
	)
	created, err := r.scanRow(r.getQuerier(tx).QueryRow(ctx, query,
		a.CompanyID, a.TechnicianID, a.ClientID, a.DayOfWeek, a.RouteOrder))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrDuplicateAssignment
		}
		return nil, err
	}
	return created, nil
}

func (r *assignmentRepository) Reactivate(ctx context.Context, tx pgx.Tx, id uint64, routeOrder int) (*entities.RecurringAssignment, error) {
	query := fmt.Sprintf(
		"UPDATE %s SET active = TRUE, route_order = $2, updated_at = NOW() WHERE id = $1 RETURNING %s",
		assignmentTable, assignmentFields,
	)
	return r.scanRow(r.getQuerier(tx).QueryRow(ctx, query, id, routeOrder))
}

func (r *assignmentRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", assignmentTable)
	result, err := r.getQuerier(tx).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *assignmentRepository) SetActive(ctx context.Context, tx pgx.Tx, id uint64, active bool) error {
	query := fmt.Sprintf("UPDATE %s SET active = $2, updated_at = NOW() WHERE id = $1", assignmentTable)
	result, err := r.getQuerier(tx).Exec(ctx, query, id, active)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MaxRouteOrder returns -1 when the (technician, day) group is empty,
// so the next position is always max+1.
func (r *assignmentRepository) MaxRouteOrder(ctx context.Context, tx pgx.Tx, technicianID uint64, dayOfWeek int) (int, error) {
	query := fmt.Sprintf(
		"SELECT COALESCE(MAX(route_order), -1) FROM %s WHERE technician_id = $1 AND day_of_week = $2 AND active = TRUE",
		assignmentTable,
	)
	var max int
	if err := r.getQuerier(tx).QueryRow(ctx, query, technicianID, dayOfWeek).Scan(&max); err != nil {
		return 0, fmt.Errorf("failed to read max route_order: %w", err)
	}
	return max, nil
}

func (r *assignmentRepository) ListGroup(ctx context.Context, tx pgx.Tx, technicianID uint64, dayOfWeek int) ([]*entities.RecurringAssignment, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE technician_id = $1 AND day_of_week = $2 AND active = TRUE ORDER BY route_order, id",
		assignmentFields, assignmentTable,
	)
	rows, err := r.getQuerier(tx).Query(ctx, query, technicianID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectRows(rows)
}

func (r *assignmentRepository) ListActiveByCompanyAndDay(ctx context.Context, companyID uint64, dayOfWeek int) ([]*entities.RecurringAssignment, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE company_id = $1 AND day_of_week = $2 AND active = TRUE ORDER BY technician_id, route_order, id",
		assignmentFields, assignmentTable,
	)
	rows, err := r.storage.Query(ctx, query, companyID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectRows(rows)
}

func (r *assignmentRepository) collectRows(rows pgx.Rows) ([]*entities.RecurringAssignment, error) {
	assignments := make([]*entities.RecurringAssignment, 0)
	for rows.Next() {
		var a entities.RecurringAssignment
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.TechnicianID, &a.ClientID,
			&a.DayOfWeek, &a.RouteOrder, &a.Active, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, &a)
	}
	return assignments, rows.Err()
}

func (r *assignmentRepository) UpdateRouteOrders(ctx context.Context, tx pgx.Tx, orders map[uint64]int) error {
	query := fmt.Sprintf("UPDATE %s SET route_order = $2, updated_at = NOW() WHERE id = $1", assignmentTable)
	for id, order := range orders {
		if _, err := r.getQuerier(tx).Exec(ctx, query, id, order); err != nil {
			return fmt.Errorf("failed to update route_order for assignment %d: %w", id, err)
		}
	}
	return nil
}

func (r *assignmentRepository) ListByCompany(ctx context.Context, companyID uint64, technicianID *uint64, dayOfWeek *int) ([]AssignmentWithClient, error) {
	builder := psql.
		Select("a.id", "a.company_id", "a.technician_id", "a.client_id",
			"a.day_of_week", "a.route_order", "a.active", "a.created_at", "a.updated_at", "c.name").
		From(assignmentTable + " a").
		Join("clients c ON c.id = a.client_id").
		Where(sq.Eq{"a.company_id": companyID, "a.active": true}).
		OrderBy("a.technician_id", "a.day_of_week", "a.route_order", "a.id")

	if technicianID != nil {
		builder = builder.Where(sq.Eq{"a.technician_id": *technicianID})
	}
	if dayOfWeek != nil {
		builder = builder.Where(sq.Eq{"a.day_of_week": *dayOfWeek})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build assignment listing query: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]AssignmentWithClient, 0)
	for rows.Next() {
		var row AssignmentWithClient
		if err := rows.Scan(&row.ID, &row.CompanyID, &row.TechnicianID, &row.ClientID,
			&row.DayOfWeek, &row.RouteOrder, &row.Active, &row.CreatedAt, &row.UpdatedAt,
			&row.ClientName); err != nil {
			return nil, err
		}
		list = append(list, row)
	}
	return list, rows.Err()
}
