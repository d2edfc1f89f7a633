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

type ScheduleController struct {
	scheduleService services.ScheduleServiceInterface
	logger          *zap.Logger
}

func NewScheduleController(scheduleService services.ScheduleServiceInterface, logger *zap.Logger) *ScheduleController {
	return &ScheduleController{scheduleService: scheduleService, logger: logger}
}

func (c *ScheduleController) CreateAssignment(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.CreateAssignmentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "invalid request body", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	created, err := c.scheduleService.AddAssignment(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, created, "assignment created", http.StatusCreated)
}

func (c *ScheduleController) DeleteAssignment(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "invalid id", err,
				map[string]interface{}{"param": ctx.Param("id")}),
			c.logger)
	}

	if err := c.scheduleService.RemoveAssignment(reqCtx, id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "assignment removed", http.StatusOK)
}

func (c *ScheduleController) DisableAssignment(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "invalid id", err,
				map[string]interface{}{"param": ctx.Param("id")}),
			c.logger)
	}

	if err := c.scheduleService.DisableAssignment(reqCtx, id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "assignment disabled", http.StatusOK)
}

func (c *ScheduleController) ReorderAssignments(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var payload dto.ReorderAssignmentsDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "invalid request body", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.scheduleService.ReorderAssignments(reqCtx, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "assignments reordered", http.StatusOK)
}

func (c *ScheduleController) GetAssignments(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var technicianID *uint64
	if raw := ctx.QueryParam("technician_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.ErrorResponse(ctx,
				apperrors.NewHttpError(http.StatusBadRequest, "invalid technician_id", err, nil),
				c.logger)
		}
		technicianID = &parsed
	}
	var dayOfWeek *int
	if raw := ctx.QueryParam("day"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return utils.ErrorResponse(ctx,
				apperrors.NewHttpError(http.StatusBadRequest, "invalid day", err, nil),
				c.logger)
		}
		dayOfWeek = &parsed
	}

	res, err := c.scheduleService.ListAssignments(reqCtx, technicianID, dayOfWeek)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "assignments listed", http.StatusOK)
}

func (c *ScheduleController) GetAvailableClients(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	day, err := strconv.Atoi(ctx.QueryParam("day"))
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "day query parameter is required", err,
				map[string]interface{}{"day": ctx.QueryParam("day")}),
			c.logger)
	}

	res, err := c.scheduleService.ListAvailableClients(reqCtx, day)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "available clients listed", http.StatusOK)
}
