package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pool-service/internal/dto"
	"pool-service/internal/services"
	apperrors "pool-service/pkg/errors"
	"pool-service/pkg/utils"
)

type StopController struct {
	stopService services.StopServiceInterface
	logger      *zap.Logger
}

func NewStopController(stopService services.StopServiceInterface, logger *zap.Logger) *StopController {
	return &StopController{stopService: stopService, logger: logger}
}

func (c *StopController) stopIDParam(ctx echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, apperrors.NewHttpError(http.StatusBadRequest, "invalid id", err,
			map[string]interface{}{"param": ctx.Param("id")})
	}
	return id, nil
}

func (c *StopController) StartStop(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	id, err := c.stopIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.stopService.StartStop(reqCtx, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "stop started", http.StatusOK)
}

func (c *StopController) CompleteStop(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	id, err := c.stopIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.CompleteStopDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "invalid request body", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.stopService.CompleteStop(reqCtx, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "stop completed", http.StatusOK)
}

func (c *StopController) SkipStop(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	id, err := c.stopIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var payload dto.SkipStopDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "invalid request body", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.stopService.SkipStop(reqCtx, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "stop skipped", http.StatusOK)
}
