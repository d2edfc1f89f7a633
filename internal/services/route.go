package services

import (
	"context"
	"math"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pool-service/internal/dto"
	"pool-service/internal/entities"
	"pool-service/internal/repositories"
	"pool-service/pkg/constants"
	apperrors "pool-service/pkg/errors"
	"pool-service/pkg/utils"
)

type RouteServiceInterface interface {
	TodaysRoute(ctx context.Context, technicianID uint64) (*dto.RouteInstanceDTO, error)
	RouteForDate(ctx context.Context, technicianID uint64, date string) (*dto.RouteInstanceDTO, error)
	History(ctx context.Context, technicianID *uint64, limit uint64) ([]dto.RouteSummaryDTO, error)
	ReorderStops(ctx context.Context, instanceID uint64, payload dto.ReorderStopsDTO) error
	UpdateNotes(ctx context.Context, instanceID uint64, payload dto.UpdateNotesDTO) error
}

// RouteService is the dispatch read side plus in-flight mutations of an
// instance (stop reordering, notes). It never materializes on read:
// generation is an explicit admin action, keeping the write path
// predictable.
type RouteService struct {
	routeRepo       repositories.RouteRepositoryInterface
	txManager       repositories.TxManagerInterface
	historyMaxLimit uint64
	logger          *zap.Logger
}

func NewRouteService(
	routeRepo repositories.RouteRepositoryInterface,
	txManager repositories.TxManagerInterface,
	historyMaxLimit uint64,
	logger *zap.Logger,
) *RouteService {
	return &RouteService{
		routeRepo:       routeRepo,
		txManager:       txManager,
		historyMaxLimit: historyMaxLimit,
		logger:          logger,
	}
}

// resolveTechnician applies the scope rule: technicians only ever see
// their own routes; admins may ask for any technician in the company.
func resolveTechnician(identity utils.Identity, technicianID uint64) (uint64, error) {
	if technicianID == 0 {
		technicianID = identity.UserID
	}
	if identity.Role == constants.RoleTechnician && technicianID != identity.UserID {
		return 0, apperrors.ErrNotFound
	}
	return technicianID, nil
}

func (s *RouteService) TodaysRoute(ctx context.Context, technicianID uint64) (*dto.RouteInstanceDTO, error) {
	today := time.Now().Format(dateLayout)
	return s.RouteForDate(ctx, technicianID, today)
}

func (s *RouteService) RouteForDate(ctx context.Context, technicianID uint64, date string) (*dto.RouteInstanceDTO, error) {
	identity, err := utils.GetIdentityFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	technicianID, err = resolveTechnician(identity, technicianID)
	if err != nil {
		return nil, err
	}

	parsed, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("date must be YYYY-MM-DD")
	}

	instance, err := s.routeRepo.FindInstanceByTechDate(ctx, nil, identity.CompanyID, technicianID, parsed)
	if err != nil {
		return nil, err
	}
	stops, err := s.routeRepo.ListStops(ctx, nil, instance.ID)
	if err != nil {
		return nil, err
	}

	routeDTO := instanceToDTO(instance, stops)
	return &routeDTO, nil
}

func (s *RouteService) History(ctx context.Context, technicianID *uint64, limit uint64) ([]dto.RouteSummaryDTO, error) {
	identity, err := utils.GetIdentityFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if identity.Role == constants.RoleTechnician {
		technicianID = &identity.UserID
	}
	if limit == 0 {
		limit = 20
	}
	if limit > s.historyMaxLimit {
		limit = s.historyMaxLimit
	}

	rows, err := s.routeRepo.ListHistory(ctx, identity.CompanyID, technicianID, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.RouteSummaryDTO, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, dto.RouteSummaryDTO{
			ID:             row.Instance.ID,
			TechnicianID:   row.Instance.TechnicianID,
			TechnicianName: row.TechnicianName,
			RouteDate:      row.Instance.RouteDate.Format(dateLayout),
			Status:         row.Instance.Status,
			CompletedAt:    null.TimeFromPtr(row.Instance.CompletedAt),
			TotalStops:     row.TotalStops,
			CompletedStops: row.CompletedStops,
			SkippedStops:   row.SkippedStops,
		})
	}
	return summaries, nil
}

// ReorderStops rewrites sequence_order to 0..N-1 following the payload.
// The instance row is locked for the duration, so concurrent reorders
// serialize; a completed instance is locked for good.
func (s *RouteService) ReorderStops(ctx context.Context, instanceID uint64, payload dto.ReorderStopsDTO) error {
	identity, err := utils.GetIdentityFromCtx(ctx)
	if err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		instance, err := s.routeRepo.LockInstance(ctx, tx, instanceID)
		if err != nil {
			return err
		}
		if err := s.checkInstanceScope(identity, instance); err != nil {
			return err
		}
		if instance.Status == constants.RouteStatusCompleted {
			return apperrors.ErrInstanceLocked
		}

		stops, err := s.routeRepo.ListStops(ctx, tx, instanceID)
		if err != nil {
			return err
		}
		current := make(map[uint64]bool, len(stops))
		for _, stop := range stops {
			current[stop.ID] = true
		}

		if len(payload.OrderedStopIDs) != len(current) {
			return apperrors.ErrInvalidOrderSet
		}
		orders := make(map[uint64]int, len(payload.OrderedStopIDs))
		for position, id := range payload.OrderedStopIDs {
			if !current[id] {
				return apperrors.ErrInvalidOrderSet
			}
			if _, seen := orders[id]; seen {
				return apperrors.ErrInvalidOrderSet
			}
			orders[id] = position
		}

		return s.routeRepo.UpdateStopOrders(ctx, tx, instanceID, orders)
	})
}

func (s *RouteService) UpdateNotes(ctx context.Context, instanceID uint64, payload dto.UpdateNotesDTO) error {
	identity, err := utils.GetIdentityFromCtx(ctx)
	if err != nil {
		return err
	}

	instance, err := s.routeRepo.FindInstanceByID(ctx, nil, instanceID)
	if err != nil {
		return err
	}
	if err := s.checkInstanceScope(identity, instance); err != nil {
		return err
	}

	return s.routeRepo.UpdateInstanceNotes(ctx, instanceID, payload.Notes)
}

func (s *RouteService) checkInstanceScope(identity utils.Identity, instance *entities.RouteInstance) error {
	if instance.CompanyID != identity.CompanyID {
		return apperrors.ErrNotFound
	}
	if identity.Role == constants.RoleTechnician && instance.TechnicianID != identity.UserID {
		return apperrors.ErrNotFound
	}
	return nil
}

// instanceToDTO derives progress on read, never storing it: completed
// counts in the numerator, skipped only in the denominator, so 2 done
// plus 1 skipped reads 2/3 (67%).
func instanceToDTO(inst *entities.RouteInstance, stops []*entities.RouteStop) dto.RouteInstanceDTO {
	stopDTOs := make([]dto.RouteStopDTO, 0, len(stops))
	completed, skipped := 0, 0
	for _, stop := range stops {
		switch stop.Status {
		case constants.StopStatusCompleted:
			completed++
		case constants.StopStatusSkipped:
			skipped++
		}
		stopDTOs = append(stopDTOs, stopToDTO(stop))
	}

	progress := 0
	if len(stops) > 0 {
		progress = int(math.Round(float64(completed) / float64(len(stops)) * 100))
	}

	return dto.RouteInstanceDTO{
		ID:             inst.ID,
		TechnicianID:   inst.TechnicianID,
		RouteDate:      inst.RouteDate.Format(dateLayout),
		Status:         inst.Status,
		StartTime:      null.TimeFromPtr(inst.StartTime),
		CompletedAt:    null.TimeFromPtr(inst.CompletedAt),
		Notes:          null.StringFromPtr(inst.Notes),
		Stops:          stopDTOs,
		TotalStops:     len(stops),
		CompletedStops: completed,
		SkippedStops:   skipped,
		ProgressPct:    progress,
	}
}
