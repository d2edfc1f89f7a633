package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pool-service/internal/dto"
	"pool-service/internal/services"
	"pool-service/pkg/constants"
	apperrors "pool-service/pkg/errors"
	"pool-service/pkg/ratelimit"
	"pool-service/pkg/utils"
)

type RouteController struct {
	routeService        services.RouteServiceInterface
	materializer        services.MaterializerServiceInterface
	generateRateLimiter ratelimit.Limiter
	logger              *zap.Logger
}

func NewRouteController(
	routeService services.RouteServiceInterface,
	materializer services.MaterializerServiceInterface,
	generateRateLimiter ratelimit.Limiter,
	logger *zap.Logger,
) *RouteController {
	return &RouteController{
		routeService:        routeService,
		materializer:        materializer,
		generateRateLimiter: generateRateLimiter,
		logger:              logger,
	}
}

func (c *RouteController) GenerateRoutes(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	userID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	allowed, err := c.generateRateLimiter.Allow(reqCtx, fmt.Sprintf(constants.CacheKeyGenerateRate, userID))
	if err != nil {
		c.logger.Error("rate limiter unavailable", zap.Error(err))
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if !allowed {
		return utils.ErrorResponse(ctx, apperrors.ErrRateLimited, c.logger)
	}

	var payload dto.GenerateRoutesDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "invalid request body", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	result, err := c.materializer.Generate(reqCtx, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, result, "route generation finished", http.StatusOK)
}

func (c *RouteController) GetTodaysRoute(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	technicianID, err := c.technicianParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.routeService.TodaysRoute(reqCtx, technicianID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "route found", http.StatusOK)
}

func (c *RouteController) GetRouteForDate(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	technicianID, err := c.technicianParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.routeService.RouteForDate(reqCtx, technicianID, ctx.Param("date"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "route found", http.StatusOK)
}

func (c *RouteController) GetHistory(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var limit uint64
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return utils.ErrorResponse(ctx,
				apperrors.NewHttpError(http.StatusBadRequest, "invalid limit", err, nil),
				c.logger)
		}
		limit = parsed
	}
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

	res, err := c.routeService.History(reqCtx, technicianID, limit)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "route history listed", http.StatusOK)
}

func (c *RouteController) ReorderStops(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	instanceID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "invalid id", err,
				map[string]interface{}{"param": ctx.Param("id")}),
			c.logger)
	}

	var payload dto.ReorderStopsDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "invalid request body", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.routeService.ReorderStops(reqCtx, instanceID, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "stops reordered", http.StatusOK)
}

func (c *RouteController) UpdateNotes(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	instanceID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "invalid id", err,
				map[string]interface{}{"param": ctx.Param("id")}),
			c.logger)
	}

	var payload dto.UpdateNotesDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "invalid request body", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if err := c.routeService.UpdateNotes(reqCtx, instanceID, payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "notes updated", http.StatusOK)
}

// technicianParam reads the optional technician_id query parameter.
// Zero means "the acting user": only admins may name someone else, and
// the role check happens in the service.
func (c *RouteController) technicianParam(ctx echo.Context) (uint64, error) {
	raw := ctx.QueryParam("technician_id")
	if raw == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apperrors.NewHttpError(http.StatusBadRequest, "invalid technician_id", err, nil)
	}
	return parsed, nil
}
