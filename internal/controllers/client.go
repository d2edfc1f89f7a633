package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pool-service/internal/services"
	apperrors "pool-service/pkg/errors"
	"pool-service/pkg/types"
	"pool-service/pkg/utils"
)

const (
	defaultClientLimit = 50
	maxClientLimit     = 200
)

type ClientController struct {
	clientService services.ClientServiceInterface
	logger        *zap.Logger
}

func NewClientController(clientService services.ClientServiceInterface, logger *zap.Logger) *ClientController {
	return &ClientController{clientService: clientService, logger: logger}
}

func (c *ClientController) GetClients(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	filter := types.Filter{
		Search: ctx.QueryParam("search"),
		Limit:  defaultClientLimit,
	}
	if raw := ctx.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil && parsed > 0 {
			filter.Limit = parsed
		}
	}
	if filter.Limit > maxClientLimit {
		filter.Limit = maxClientLimit
	}
	if raw := ctx.QueryParam("offset"); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.Offset = parsed
		}
	}

	res, err := c.clientService.GetClients(reqCtx, filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "clients listed", http.StatusOK)
}

func (c *ClientController) FindClient(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "invalid id", err,
				map[string]interface{}{"param": ctx.Param("id")}),
			c.logger)
	}

	res, err := c.clientService.FindClient(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "client found", http.StatusOK)
}

func (c *ClientController) GetTechnicians(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	res, err := c.clientService.GetTechnicians(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "technicians listed", http.StatusOK)
}
