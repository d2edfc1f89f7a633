package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pool-service/internal/dto"
	"pool-service/internal/entities"
	"pool-service/internal/repositories"
	"pool-service/pkg/constants"
	apperrors "pool-service/pkg/errors"
	"pool-service/pkg/utils"
)

type ScheduleServiceInterface interface {
	AddAssignment(ctx context.Context, payload dto.CreateAssignmentDTO) (*dto.AssignmentDTO, error)
	RemoveAssignment(ctx context.Context, id uint64) error
	DisableAssignment(ctx context.Context, id uint64) error
	ReorderAssignments(ctx context.Context, payload dto.ReorderAssignmentsDTO) error
	ListAssignments(ctx context.Context, technicianID *uint64, dayOfWeek *int) (*dto.AssignmentListDTO, error)
	ListAvailableClients(ctx context.Context, dayOfWeek int) ([]dto.ClientDTO, error)
}

// ScheduleService owns the weekly template: which clients a technician
// visits on which day, in what order. Editing it never touches
// already-materialized route instances.
type ScheduleService struct {
	assignmentRepo repositories.AssignmentRepositoryInterface
	clientRepo     repositories.ClientRepositoryInterface
	userRepo       repositories.UserRepositoryInterface
	txManager      repositories.TxManagerInterface
	logger         *zap.Logger
}

func NewScheduleService(
	assignmentRepo repositories.AssignmentRepositoryInterface,
	clientRepo repositories.ClientRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	txManager repositories.TxManagerInterface,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		assignmentRepo: assignmentRepo,
		clientRepo:     clientRepo,
		userRepo:       userRepo,
		txManager:      txManager,
		logger:         logger,
	}
}

func (s *ScheduleService) requireAdmin(ctx context.Context) (utils.Identity, error) {
	identity, err := utils.GetIdentityFromCtx(ctx)
	if err != nil {
		return utils.Identity{}, err
	}
	if identity.Role != constants.RoleAdmin {
		return utils.Identity{}, apperrors.ErrForbidden
	}
	return identity, nil
}

func (s *ScheduleService) AddAssignment(ctx context.Context, payload dto.CreateAssignmentDTO) (*dto.AssignmentDTO, error) {
	identity, err := s.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	technician, err := s.userRepo.FindUser(ctx, identity.CompanyID, payload.TechnicianID)
	if err != nil {
		return nil, err
	}
	if technician.Role != constants.RoleTechnician || !technician.Active {
		return nil, apperrors.NewInvalidInputError("user %d is not an active technician", payload.TechnicianID)
	}
	if _, err := s.clientRepo.FindClient(ctx, identity.CompanyID, payload.ClientID); err != nil {
		return nil, err
	}

	var result *entities.RecurringAssignment
	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.assignmentRepo.FindTuple(ctx, tx,
			identity.CompanyID, payload.TechnicianID, payload.ClientID, payload.DayOfWeek)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if existing != nil && existing.Active {
			return apperrors.ErrDuplicateAssignment
		}

		maxOrder, err := s.assignmentRepo.MaxRouteOrder(ctx, tx, payload.TechnicianID, payload.DayOfWeek)
		if err != nil {
			return err
		}
		nextOrder := maxOrder + 1

		if existing != nil {
			// Disabled row for the same tuple: reactivate at the end of
			// the group rather than inserting a duplicate.
			result, err = s.assignmentRepo.Reactivate(ctx, tx, existing.ID, nextOrder)
			return err
		}

		result, err = s.assignmentRepo.Create(ctx, tx, entities.RecurringAssignment{
			CompanyID:    identity.CompanyID,
			TechnicianID: payload.TechnicianID,
			ClientID:     payload.ClientID,
			DayOfWeek:    payload.DayOfWeek,
			RouteOrder:   nextOrder,
		})
		return err
	})
	if err != nil {
		s.logger.Warn("failed to add assignment",
			zap.Uint64("technician_id", payload.TechnicianID),
			zap.Uint64("client_id", payload.ClientID),
			zap.Int("day_of_week", payload.DayOfWeek),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("assignment added",
		zap.Uint64("assignment_id", result.ID),
		zap.Uint64("technician_id", result.TechnicianID),
		zap.Int("day_of_week", result.DayOfWeek),
		zap.Int("route_order", result.RouteOrder))

	assignmentDTO := assignmentToDTO(result, "")
	return &assignmentDTO, nil
}

// RemoveAssignment hard-deletes the template row. Instances already
// materialized from it are untouched.
func (s *ScheduleService) RemoveAssignment(ctx context.Context, id uint64) error {
	identity, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}

	assignment, err := s.assignmentRepo.FindByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if assignment.CompanyID != identity.CompanyID {
		return apperrors.ErrNotFound
	}

	return s.assignmentRepo.Delete(ctx, nil, id)
}

// DisableAssignment soft-disables the row, keeping it for reactivation
// and audit history.
func (s *ScheduleService) DisableAssignment(ctx context.Context, id uint64) error {
	identity, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}

	assignment, err := s.assignmentRepo.FindByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if assignment.CompanyID != identity.CompanyID {
		return apperrors.ErrNotFound
	}

	return s.assignmentRepo.SetActive(ctx, nil, id, false)
}

// ReorderAssignments rewrites route_order to 0..N-1 following the given
// sequence. The payload must name exactly the current active members of
// the (technician, day) group.
func (s *ScheduleService) ReorderAssignments(ctx context.Context, payload dto.ReorderAssignmentsDTO) error {
	identity, err := s.requireAdmin(ctx)
	if err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		group, err := s.assignmentRepo.ListGroup(ctx, tx, payload.TechnicianID, payload.DayOfWeek)
		if err != nil {
			return err
		}

		members := make(map[uint64]*entities.RecurringAssignment, len(group))
		for _, a := range group {
			if a.CompanyID != identity.CompanyID {
				return apperrors.ErrNotFound
			}
			members[a.ID] = a
		}

		if len(payload.OrderedIDs) != len(members) {
			return apperrors.ErrInvalidOrderSet
		}
		orders := make(map[uint64]int, len(payload.OrderedIDs))
		for position, id := range payload.OrderedIDs {
			if _, ok := members[id]; !ok {
				return apperrors.ErrInvalidOrderSet
			}
			if _, seen := orders[id]; seen {
				return apperrors.ErrInvalidOrderSet
			}
			orders[id] = position
		}

		return s.assignmentRepo.UpdateRouteOrders(ctx, tx, orders)
	})
}

func (s *ScheduleService) ListAssignments(ctx context.Context, technicianID *uint64, dayOfWeek *int) (*dto.AssignmentListDTO, error) {
	identity, err := utils.GetIdentityFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if identity.Role == constants.RoleTechnician {
		technicianID = &identity.UserID
	}

	rows, err := s.assignmentRepo.ListByCompany(ctx, identity.CompanyID, technicianID, dayOfWeek)
	if err != nil {
		return nil, err
	}

	list := make([]dto.AssignmentDTO, 0, len(rows))
	for i := range rows {
		list = append(list, assignmentToDTO(&rows[i].RecurringAssignment, rows[i].ClientName))
	}
	return &dto.AssignmentListDTO{List: list, TotalCount: uint64(len(list))}, nil
}

func (s *ScheduleService) ListAvailableClients(ctx context.Context, dayOfWeek int) ([]dto.ClientDTO, error) {
	identity, err := utils.GetIdentityFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if dayOfWeek < constants.MinDayOfWeek || dayOfWeek > constants.MaxDayOfWeek {
		return nil, apperrors.NewInvalidInputError("day must be between %d and %d", constants.MinDayOfWeek, constants.MaxDayOfWeek)
	}

	clients, err := s.clientRepo.ListAvailableByDay(ctx, identity.CompanyID, dayOfWeek)
	if err != nil {
		return nil, err
	}

	list := make([]dto.ClientDTO, 0, len(clients))
	for _, c := range clients {
		list = append(list, clientToDTO(c))
	}
	return list, nil
}

func assignmentToDTO(a *entities.RecurringAssignment, clientName string) dto.AssignmentDTO {
	return dto.AssignmentDTO{
		ID:           a.ID,
		TechnicianID: a.TechnicianID,
		ClientID:     a.ClientID,
		ClientName:   clientName,
		DayOfWeek:    a.DayOfWeek,
		RouteOrder:   a.RouteOrder,
		Active:       a.Active,
		CreatedAt:    a.CreatedAt.Local().Format("2006-01-02 15:04:05"),
	}
}
