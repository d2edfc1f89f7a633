package services

import (
	"context"

	"github.com/aarondl/null/v8"
	"go.uber.org/zap"

	"pool-service/internal/dto"
	"pool-service/internal/entities"
	"pool-service/internal/repositories"
	"pool-service/pkg/types"
	"pool-service/pkg/utils"
)

type ClientServiceInterface interface {
	GetClients(ctx context.Context, filter types.Filter) (*dto.ClientListDTO, error)
	FindClient(ctx context.Context, id uint64) (*dto.ClientDTO, error)
	GetTechnicians(ctx context.Context) ([]dto.TechnicianDTO, error)
}

// ClientService exposes read-only directory lookups. The directories
// themselves are owned by the excluded client/user management
// subsystems.
type ClientService struct {
	clientRepo repositories.ClientRepositoryInterface
	userRepo   repositories.UserRepositoryInterface
	logger     *zap.Logger
}

func NewClientService(
	clientRepo repositories.ClientRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		userRepo:   userRepo,
		logger:     logger,
	}
}

func (s *ClientService) GetClients(ctx context.Context, filter types.Filter) (*dto.ClientListDTO, error) {
	companyID, err := utils.GetCompanyIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	clients, total, err := s.clientRepo.GetClients(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}

	list := make([]dto.ClientDTO, 0, len(clients))
	for _, c := range clients {
		list = append(list, clientToDTO(c))
	}
	return &dto.ClientListDTO{List: list, TotalCount: total}, nil
}

func (s *ClientService) FindClient(ctx context.Context, id uint64) (*dto.ClientDTO, error) {
	companyID, err := utils.GetCompanyIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	client, err := s.clientRepo.FindClient(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	clientDTO := clientToDTO(client)
	return &clientDTO, nil
}

func (s *ClientService) GetTechnicians(ctx context.Context) ([]dto.TechnicianDTO, error) {
	companyID, err := utils.GetCompanyIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	technicians, err := s.userRepo.GetTechnicians(ctx, companyID)
	if err != nil {
		return nil, err
	}

	list := make([]dto.TechnicianDTO, 0, len(technicians))
	for _, t := range technicians {
		list = append(list, dto.TechnicianDTO{
			ID:     t.ID,
			Name:   t.Name,
			Email:  t.Email,
			Active: t.Active,
		})
	}
	return list, nil
}

func clientToDTO(c *entities.Client) dto.ClientDTO {
	return dto.ClientDTO{
		ID:                  c.ID,
		Name:                c.Name,
		Address:             c.Address,
		Phone:               c.Phone,
		Email:               c.Email,
		PreferredServiceDay: null.IntFromPtr(c.PreferredServiceDay),
		Active:              c.Active,
		CreatedAt:           c.CreatedAt.Local().Format("2006-01-02 15:04:05"),
	}
}
