package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pool-service/internal/entities"
	apperrors "pool-service/pkg/errors"
)

const (
	instanceTable  = "route_instances"
	instanceFields = "id, company_id, technician_id, route_date, status, start_time, completed_at, notes, created_at, updated_at"

	stopTable  = "route_stops"
	stopFields = "id, route_instance_id, client_id, sequence_order, status, skip_reason, actual_arrival, actual_departure, service_record_id, created_at, updated_at"
)

// reorderOffset keeps the per-instance unique index on sequence_order
// satisfied while a reorder is being rewritten: all rows are first
// bumped out of the target range, then written to their final values.
const reorderOffset = 10000

// RouteSummaryRow is the history projection: instance plus stop
// aggregates, no stop detail.
type RouteSummaryRow struct {
	Instance       entities.RouteInstance
	TechnicianName string
	TotalStops     int
	CompletedStops int
	SkippedStops   int
}

type RouteRepositoryInterface interface {
	CreateInstance(ctx context.Context, tx pgx.Tx, inst entities.RouteInstance) (*entities.RouteInstance, error)
	InsertStops(ctx context.Context, tx pgx.Tx, stops []entities.RouteStop) error
	FindInstanceByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RouteInstance, error)
	FindInstanceByTechDate(ctx context.Context, tx pgx.Tx, companyID, technicianID uint64, date time.Time) (*entities.RouteInstance, error)
	LockInstance(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RouteInstance, error)
	UpdateInstanceStatus(ctx context.Context, tx pgx.Tx, id uint64, status string, startTime, completedAt *time.Time) error
	UpdateInstanceNotes(ctx context.Context, id uint64, notes string) error
	ListStops(ctx context.Context, tx pgx.Tx, instanceID uint64) ([]*entities.RouteStop, error)
	FindStopByID(ctx context.Context, tx pgx.Tx, stopID uint64) (*entities.RouteStop, *entities.RouteInstance, error)
	UpdateStop(ctx context.Context, tx pgx.Tx, stop *entities.RouteStop) error
	UpdateStopOrders(ctx context.Context, tx pgx.Tx, instanceID uint64, orders map[uint64]int) error
	ListHistory(ctx context.Context, companyID uint64, technicianID *uint64, limit uint64) ([]RouteSummaryRow, error)
}

type routeRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewRouteRepository(storage *pgxpool.Pool, logger *zap.Logger) RouteRepositoryInterface {
	return &routeRepository{storage: storage, logger: logger}
}

func (r *routeRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *routeRepository) scanInstance(row pgx.Row) (*entities.RouteInstance, error) {
	var inst entities.RouteInstance
	err := row.Scan(
		&inst.ID, &inst.CompanyID, &inst.TechnicianID, &inst.RouteDate, &inst.Status,
		&inst.StartTime, &inst.CompletedAt, &inst.Notes, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan route_instances row: %w", err)
	}
	return &inst, nil
}

func (r *routeRepository) scanStop(row pgx.Row) (*entities.RouteStop, error) {
	var s entities.RouteStop
	err := row.Scan(
		&s.ID, &s.RouteInstanceID, &s.ClientID, &s.SequenceOrder, &s.Status,
		&s.SkipReason, &s.ActualArrival, &s.ActualDeparture, &s.ServiceRecordID,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan route_stops row: %w", err)
	}
	return &s, nil
}

// CreateInstance reports ErrDuplicateInstance when the (company,
// technician, date) tuple already exists. ON CONFLICT DO NOTHING keeps
// a racing duplicate from aborting the caller's transaction, so the
// materializer can count it as "already generated" and carry on.
func (r *routeRepository) CreateInstance(ctx context.Context, tx pgx.Tx, inst entities.RouteInstance) (*entities.RouteInstance, error) {
	query := fmt.Sprintf(
		"INSERT INTO %s (company_id, technician_id, route_date, status) VALUES ($1, $2, $3, $4) ON CONFLICT (company_id, technician_id, route_date) DO NOTHING RETURNING %s",
		instanceTable, instanceFields,
	)
	created, err := r.scanInstance(r.getQuerier(tx).QueryRow(ctx, query,
		inst.CompanyID, inst.TechnicianID, inst.RouteDate, inst.Status))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrDuplicateInstance
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperrors.ErrDuplicateInstance
		}
		return nil, err
	}
	return created, nil
}

func (r *routeRepository) InsertStops(ctx context.Context, tx pgx.Tx, stops []entities.RouteStop) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (route_instance_id, client_id, sequence_order, status) VALUES ($1, $2, $3, $4)",
		stopTable,
	)
	for _, stop := range stops {
		if _, err := r.getQuerier(tx).Exec(ctx, query,
			stop.RouteInstanceID, stop.ClientID, stop.SequenceOrder, stop.Status); err != nil {
			return fmt.Errorf("failed to insert route stop for client %d: %w", stop.ClientID, err)
		}
	}
	return nil
}

func (r *routeRepository) FindInstanceByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RouteInstance, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", instanceFields, instanceTable)
	return r.scanInstance(r.getQuerier(tx).QueryRow(ctx, query, id))
}

func (r *routeRepository) FindInstanceByTechDate(ctx context.Context, tx pgx.Tx, companyID, technicianID uint64, date time.Time) (*entities.RouteInstance, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE company_id = $1 AND technician_id = $2 AND route_date = $3",
		instanceFields, instanceTable,
	)
	return r.scanInstance(r.getQuerier(tx).QueryRow(ctx, query, companyID, technicianID, date))
}

// LockInstance takes a row lock so concurrent reorders on one instance
// serialize instead of interleaving partial writes.
func (r *routeRepository) LockInstance(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RouteInstance, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1 FOR UPDATE", instanceFields, instanceTable)
	return r.scanInstance(r.getQuerier(tx).QueryRow(ctx, query, id))
}

func (r *routeRepository) UpdateInstanceStatus(ctx context.Context, tx pgx.Tx, id uint64, status string, startTime, completedAt *time.Time) error {
	query := fmt.Sprintf(
		"UPDATE %s SET status = $2, start_time = COALESCE($3, start_time), completed_at = COALESCE($4, completed_at), updated_at = NOW() WHERE id = $1",
		instanceTable,
	)
	result, err := r.getQuerier(tx).Exec(ctx, query, id, status, startTime, completedAt)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *routeRepository) UpdateInstanceNotes(ctx context.Context, id uint64, notes string) error {
	query := fmt.Sprintf("UPDATE %s SET notes = $2, updated_at = NOW() WHERE id = $1", instanceTable)
	result, err := r.storage.Exec(ctx, query, id, notes)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListStops returns the stops of one instance in visit order, with the
// client contact fields denormalized for field display.
func (r *routeRepository) ListStops(ctx context.Context, tx pgx.Tx, instanceID uint64) ([]*entities.RouteStop, error) {
	query := fmt.Sprintf(`SELECT s.id, s.route_instance_id, s.client_id, s.sequence_order, s.status,
		s.skip_reason, s.actual_arrival, s.actual_departure, s.service_record_id, s.created_at, s.updated_at,
		c.name, c.address, c.phone
		FROM %s s JOIN clients c ON c.id = s.client_id
		WHERE s.route_instance_id = $1 ORDER BY s.sequence_order`, stopTable)

	rows, err := r.getQuerier(tx).Query(ctx, query, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stops := make([]*entities.RouteStop, 0)
	for rows.Next() {
		var s entities.RouteStop
		if err := rows.Scan(&s.ID, &s.RouteInstanceID, &s.ClientID, &s.SequenceOrder, &s.Status,
			&s.SkipReason, &s.ActualArrival, &s.ActualDeparture, &s.ServiceRecordID,
			&s.CreatedAt, &s.UpdatedAt,
			&s.ClientName, &s.ClientAddress, &s.ClientPhone); err != nil {
			return nil, err
		}
		stops = append(stops, &s)
	}
	return stops, rows.Err()
}

// FindStopByID returns the stop together with its parent instance so
// the service can check ownership and roll up instance status in one
// round trip.
func (r *routeRepository) FindStopByID(ctx context.Context, tx pgx.Tx, stopID uint64) (*entities.RouteStop, *entities.RouteInstance, error) {
	query := fmt.Sprintf(`SELECT s.id, s.route_instance_id, s.client_id, s.sequence_order, s.status,
		s.skip_reason, s.actual_arrival, s.actual_departure, s.service_record_id, s.created_at, s.updated_at,
		i.id, i.company_id, i.technician_id, i.route_date, i.status, i.start_time, i.completed_at, i.notes, i.created_at, i.updated_at
		FROM %s s JOIN %s i ON i.id = s.route_instance_id
		WHERE s.id = $1`, stopTable, instanceTable)

	var s entities.RouteStop
	var inst entities.RouteInstance
	err := r.getQuerier(tx).QueryRow(ctx, query, stopID).Scan(
		&s.ID, &s.RouteInstanceID, &s.ClientID, &s.SequenceOrder, &s.Status,
		&s.SkipReason, &s.ActualArrival, &s.ActualDeparture, &s.ServiceRecordID,
		&s.CreatedAt, &s.UpdatedAt,
		&inst.ID, &inst.CompanyID, &inst.TechnicianID, &inst.RouteDate, &inst.Status,
		&inst.StartTime, &inst.CompletedAt, &inst.Notes, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to load stop %d: %w", stopID, err)
	}
	return &s, &inst, nil
}

func (r *routeRepository) UpdateStop(ctx context.Context, tx pgx.Tx, stop *entities.RouteStop) error {
	query := fmt.Sprintf(
		`UPDATE %s SET status = $2, skip_reason = $3, actual_arrival = $4, actual_departure = $5,
		service_record_id = $6, updated_at = NOW() WHERE id = $1`,
		stopTable,
	)
	result, err := r.getQuerier(tx).Exec(ctx, query,
		stop.ID, stop.Status, stop.SkipReason, stop.ActualArrival, stop.ActualDeparture, stop.ServiceRecordID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateStopOrders rewrites sequence_order in two phases within the
// caller's transaction: first every stop is bumped past the live range,
// then the final 0..N-1 values are written. Readers outside the
// transaction never observe duplicates.
func (r *routeRepository) UpdateStopOrders(ctx context.Context, tx pgx.Tx, instanceID uint64, orders map[uint64]int) error {
	bump := fmt.Sprintf(
		"UPDATE %s SET sequence_order = sequence_order + $2 WHERE route_instance_id = $1",
		stopTable,
	)
	if _, err := r.getQuerier(tx).Exec(ctx, bump, instanceID, reorderOffset); err != nil {
		return fmt.Errorf("failed to shift stop orders: %w", err)
	}

	final := fmt.Sprintf(
		"UPDATE %s SET sequence_order = $3, updated_at = NOW() WHERE id = $1 AND route_instance_id = $2",
		stopTable,
	)
	for id, order := range orders {
		if _, err := r.getQuerier(tx).Exec(ctx, final, id, instanceID, order); err != nil {
			return fmt.Errorf("failed to update sequence_order for stop %d: %w", id, err)
		}
	}
	return nil
}

func (r *routeRepository) ListHistory(ctx context.Context, companyID uint64, technicianID *uint64, limit uint64) ([]RouteSummaryRow, error) {
	builder := psql.
		Select("i.id", "i.company_id", "i.technician_id", "i.route_date", "i.status",
			"i.start_time", "i.completed_at", "i.notes", "i.created_at", "i.updated_at",
			"u.name",
			"COUNT(s.id)",
			"COUNT(s.id) FILTER (WHERE s.status = 'completed')",
			"COUNT(s.id) FILTER (WHERE s.status = 'skipped')").
		From(instanceTable + " i").
		Join("users u ON u.id = i.technician_id").
		LeftJoin(stopTable + " s ON s.route_instance_id = i.id").
		Where(sq.Eq{"i.company_id": companyID}).
		GroupBy("i.id", "u.name").
		OrderBy("i.route_date DESC", "i.id DESC").
		Limit(limit)

	if technicianID != nil {
		builder = builder.Where(sq.Eq{"i.technician_id": *technicianID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build history query: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]RouteSummaryRow, 0)
	for rows.Next() {
		var row RouteSummaryRow
		if err := rows.Scan(
			&row.Instance.ID, &row.Instance.CompanyID, &row.Instance.TechnicianID,
			&row.Instance.RouteDate, &row.Instance.Status, &row.Instance.StartTime,
			&row.Instance.CompletedAt, &row.Instance.Notes, &row.Instance.CreatedAt, &row.Instance.UpdatedAt,
			&row.TechnicianName, &row.TotalStops, &row.CompletedStops, &row.SkippedStops,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, row)
	}
	return summaries, rows.Err()
}
