package services

import (
	"context"
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

type StopServiceInterface interface {
	StartStop(ctx context.Context, stopID uint64) (*dto.RouteStopDTO, error)
	CompleteStop(ctx context.Context, stopID uint64, payload dto.CompleteStopDTO) (*dto.RouteStopDTO, error)
	SkipStop(ctx context.Context, stopID uint64, payload dto.SkipStopDTO) (*dto.RouteStopDTO, error)
}

// StopService drives the visit lifecycle:
// pending -> in_progress -> completed, or pending/in_progress -> skipped.
// Terminal states never transition again. Starting the first stop flips
// the instance to in_progress; once every stop is terminal the instance
// completes.
type StopService struct {
	routeRepo repositories.RouteRepositoryInterface
	txManager repositories.TxManagerInterface
	logger    *zap.Logger
}

func NewStopService(
	routeRepo repositories.RouteRepositoryInterface,
	txManager repositories.TxManagerInterface,
	logger *zap.Logger,
) *StopService {
	return &StopService{
		routeRepo: routeRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// loadScopedStop fetches the stop with its instance and enforces
// ownership: a technician may only touch stops of their own instances.
// Scope violations read as NotFound so other technicians' data stays
// invisible.
func (s *StopService) loadScopedStop(ctx context.Context, tx pgx.Tx, stopID uint64) (*entities.RouteStop, *entities.RouteInstance, error) {
	identity, err := utils.GetIdentityFromCtx(ctx)
	if err != nil {
		return nil, nil, err
	}

	stop, instance, err := s.routeRepo.FindStopByID(ctx, tx, stopID)
	if err != nil {
		return nil, nil, err
	}
	if instance.CompanyID != identity.CompanyID {
		return nil, nil, apperrors.ErrNotFound
	}
	if identity.Role == constants.RoleTechnician && instance.TechnicianID != identity.UserID {
		return nil, nil, apperrors.ErrNotFound
	}
	return stop, instance, nil
}

// StartStop is idempotent: starting an already-running stop returns the
// current state instead of an error, so a flaky mobile connection can
// safely retry.
func (s *StopService) StartStop(ctx context.Context, stopID uint64) (*dto.RouteStopDTO, error) {
	var result *entities.RouteStop
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		stop, instance, err := s.loadScopedStop(ctx, tx, stopID)
		if err != nil {
			return err
		}

		if stop.Status == constants.StopStatusInProgress {
			result = stop
			return nil
		}
		if stop.Status != constants.StopStatusPending {
			return apperrors.NewInvalidTransitionError(stop.Status, constants.StopStatusInProgress)
		}

		now := time.Now()
		stop.Status = constants.StopStatusInProgress
		stop.ActualArrival = &now
		if err := s.routeRepo.UpdateStop(ctx, tx, stop); err != nil {
			return err
		}

		if instance.Status == constants.RouteStatusScheduled {
			if err := s.routeRepo.UpdateInstanceStatus(ctx, tx, instance.ID,
				constants.RouteStatusInProgress, &now, nil); err != nil {
				return err
			}
		}

		result = stop
		return nil
	})
	if err != nil {
		return nil, err
	}

	stopDTO := stopToDTO(result)
	return &stopDTO, nil
}

func (s *StopService) CompleteStop(ctx context.Context, stopID uint64, payload dto.CompleteStopDTO) (*dto.RouteStopDTO, error) {
	var result *entities.RouteStop
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		stop, instance, err := s.loadScopedStop(ctx, tx, stopID)
		if err != nil {
			return err
		}

		if stop.Status != constants.StopStatusInProgress {
			return apperrors.NewInvalidTransitionError(stop.Status, constants.StopStatusCompleted)
		}

		now := time.Now()
		stop.Status = constants.StopStatusCompleted
		stop.ActualDeparture = &now
		if payload.ServiceRecordID != nil {
			stop.ServiceRecordID = payload.ServiceRecordID
		}
		if err := s.routeRepo.UpdateStop(ctx, tx, stop); err != nil {
			return err
		}

		if err := s.rollUpInstance(ctx, tx, instance, now); err != nil {
			return err
		}

		result = stop
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stop completed", zap.Uint64("stop_id", stopID))
	stopDTO := stopToDTO(result)
	return &stopDTO, nil
}

func (s *StopService) SkipStop(ctx context.Context, stopID uint64, payload dto.SkipStopDTO) (*dto.RouteStopDTO, error) {
	var result *entities.RouteStop
	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		stop, instance, err := s.loadScopedStop(ctx, tx, stopID)
		if err != nil {
			return err
		}

		if stop.IsTerminal() {
			return apperrors.NewInvalidTransitionError(stop.Status, constants.StopStatusSkipped)
		}

		now := time.Now()
		stop.Status = constants.StopStatusSkipped
		stop.SkipReason = &payload.Reason
		stop.ActualDeparture = &now
		if err := s.routeRepo.UpdateStop(ctx, tx, stop); err != nil {
			return err
		}

		if err := s.rollUpInstance(ctx, tx, instance, now); err != nil {
			return err
		}

		result = stop
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stop skipped", zap.Uint64("stop_id", stopID), zap.String("reason", payload.Reason))
	stopDTO := stopToDTO(result)
	return &stopDTO, nil
}

// rollUpInstance completes the instance once every stop is terminal.
// The stops are re-read inside the transaction so the check sees the
// update that was just written.
func (s *StopService) rollUpInstance(ctx context.Context, tx pgx.Tx, instance *entities.RouteInstance, now time.Time) error {
	stops, err := s.routeRepo.ListStops(ctx, tx, instance.ID)
	if err != nil {
		return err
	}
	for _, stop := range stops {
		if !stop.IsTerminal() {
			return nil
		}
	}
	return s.routeRepo.UpdateInstanceStatus(ctx, tx, instance.ID,
		constants.RouteStatusCompleted, nil, &now)
}

func stopToDTO(s *entities.RouteStop) dto.RouteStopDTO {
	return dto.RouteStopDTO{
		ID:              s.ID,
		RouteInstanceID: s.RouteInstanceID,
		ClientID:        s.ClientID,
		ClientName:      s.ClientName,
		ClientAddress:   s.ClientAddress,
		ClientPhone:     s.ClientPhone,
		SequenceOrder:   s.SequenceOrder,
		Status:          s.Status,
		SkipReason:      null.StringFromPtr(s.SkipReason),
		ActualArrival:   null.TimeFromPtr(s.ActualArrival),
		ActualDeparture: null.TimeFromPtr(s.ActualDeparture),
		ServiceRecordID: null.Uint64FromPtr(s.ServiceRecordID),
	}
}
