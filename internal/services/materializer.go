package services

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pool-service/internal/dto"
	"pool-service/internal/entities"
	"pool-service/internal/repositories"
	"pool-service/pkg/constants"
	apperrors "pool-service/pkg/errors"
	"pool-service/pkg/utils"
)

const dateLayout = "2006-01-02"

type MaterializerServiceInterface interface {
	Generate(ctx context.Context, payload dto.GenerateRoutesDTO) (*dto.GenerateResultDTO, error)
}

// MaterializerService converts the weekly template into dated route
// instances and stops. Generation is idempotent: an existing instance
// for a (technician, date) tuple is skipped entirely, stops untouched,
// even if the template changed since. Stop order is a one-time copy of
// the template order, never a live reference.
type MaterializerService struct {
	assignmentRepo repositories.AssignmentRepositoryInterface
	routeRepo      repositories.RouteRepositoryInterface
	txManager      repositories.TxManagerInterface
	maxRangeDays   int
	logger         *zap.Logger
}

func NewMaterializerService(
	assignmentRepo repositories.AssignmentRepositoryInterface,
	routeRepo repositories.RouteRepositoryInterface,
	txManager repositories.TxManagerInterface,
	maxRangeDays int,
	logger *zap.Logger,
) *MaterializerService {
	return &MaterializerService{
		assignmentRepo: assignmentRepo,
		routeRepo:      routeRepo,
		txManager:      txManager,
		maxRangeDays:   maxRangeDays,
		logger:         logger,
	}
}

func (s *MaterializerService) Generate(ctx context.Context, payload dto.GenerateRoutesDTO) (*dto.GenerateResultDTO, error) {
	identity, err := utils.GetIdentityFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if identity.Role != constants.RoleAdmin {
		return nil, apperrors.ErrForbidden
	}

	start, err := time.Parse(dateLayout, payload.StartDate)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, payload.EndDate)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, apperrors.NewInvalidInputError("end_date must not be before start_date")
	}
	if int(end.Sub(start).Hours()/24)+1 > s.maxRangeDays {
		return nil, apperrors.NewInvalidInputError("date range exceeds %d days", s.maxRangeDays)
	}

	result := &dto.GenerateResultDTO{Errors: make([]dto.DateErrorDTO, 0)}

	// Each date is its own transaction: a failure on one date leaves
	// earlier dates committed and later dates still attempted.
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		created, skipped, err := s.generateDate(ctx, identity.CompanyID, date)
		result.Created += created
		result.Skipped += skipped
		if err != nil {
			s.logger.Error("route generation failed for date",
				zap.String("date", date.Format(dateLayout)),
				zap.Error(err))
			result.Errors = append(result.Errors, dto.DateErrorDTO{
				Date:    date.Format(dateLayout),
				Message: err.Error(),
			})
		}
	}

	s.logger.Info("route generation finished",
		zap.Uint64("company_id", identity.CompanyID),
		zap.String("start", payload.StartDate),
		zap.String("end", payload.EndDate),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

func (s *MaterializerService) generateDate(ctx context.Context, companyID uint64, date time.Time) (created, skipped int, err error) {
	dayOfWeek := int(date.Weekday())

	assignments, err := s.assignmentRepo.ListActiveByCompanyAndDay(ctx, companyID, dayOfWeek)
	if err != nil {
		return 0, 0, err
	}
	if len(assignments) == 0 {
		return 0, 0, nil
	}

	// Group by technician; the repository returns rows ordered by
	// technician and route_order, so each group keeps template order.
	groups := make(map[uint64][]*entities.RecurringAssignment)
	technicianOrder := make([]uint64, 0)
	for _, a := range assignments {
		if _, seen := groups[a.TechnicianID]; !seen {
			technicianOrder = append(technicianOrder, a.TechnicianID)
		}
		groups[a.TechnicianID] = append(groups[a.TechnicianID], a)
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		for _, technicianID := range technicianOrder {
			wasCreated, err := s.materializeInstance(ctx, tx, companyID, technicianID, date, groups[technicianID])
			if err != nil {
				return err
			}
			if wasCreated {
				created++
			} else {
				skipped++
			}
		}
		return nil
	})
	if err != nil {
		// The whole date rolled back.
		return 0, 0, err
	}
	return created, skipped, nil
}

func (s *MaterializerService) materializeInstance(ctx context.Context, tx pgx.Tx, companyID, technicianID uint64, date time.Time, group []*entities.RecurringAssignment) (bool, error) {
	_, err := s.routeRepo.FindInstanceByTechDate(ctx, tx, companyID, technicianID, date)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return false, err
	}

	instance, err := s.routeRepo.CreateInstance(ctx, tx, entities.RouteInstance{
		CompanyID:    companyID,
		TechnicianID: technicianID,
		RouteDate:    date,
		Status:       constants.RouteStatusScheduled,
	})
	if err != nil {
		// A racing caller got there first; that is "already generated",
		// not a failure.
		if errors.Is(err, apperrors.ErrDuplicateInstance) {
			return false, nil
		}
		return false, err
	}

	// Seed stop order from template order, re-densified to 0..N-1.
	stops := make([]entities.RouteStop, 0, len(group))
	for position, assignment := range group {
		stops = append(stops, entities.RouteStop{
			RouteInstanceID: instance.ID,
			ClientID:        assignment.ClientID,
			SequenceOrder:   position,
			Status:          constants.StopStatusPending,
		})
	}
	if err := s.routeRepo.InsertStops(ctx, tx, stops); err != nil {
		return false, err
	}
	return true, nil
}
