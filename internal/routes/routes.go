package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pool-service/internal/controllers"
	"pool-service/internal/repositories"
	"pool-service/internal/services"
	"pool-service/pkg/config"
	"pool-service/pkg/middleware"
	"pool-service/pkg/ratelimit"
	"pool-service/pkg/service"
)

// InitRouter wires repositories, services and controllers, and mounts
// everything under /api behind the auth middleware.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, logger *zap.Logger, cfg *config.Config) {
	api := e.Group("/api")
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)
	secureGroup := api.Group("", authMW.Auth)

	txManager := repositories.NewTxManager(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)

	assignmentRepo := repositories.NewAssignmentRepository(dbConn, logger)
	routeRepo := repositories.NewRouteRepository(dbConn, logger)
	clientRepo := repositories.NewClientRepository(dbConn)
	userRepo := repositories.NewUserRepository(dbConn)

	scheduleService := services.NewScheduleService(assignmentRepo, clientRepo, userRepo, txManager, logger)
	materializerService := services.NewMaterializerService(assignmentRepo, routeRepo, txManager, cfg.Schedule.MaxGenerateRangeDays, logger)
	stopService := services.NewStopService(routeRepo, txManager, logger)
	routeService := services.NewRouteService(routeRepo, txManager, uint64(cfg.Schedule.HistoryMaxLimit), logger)
	clientService := services.NewClientService(clientRepo, userRepo, logger)

	generateLimiter := ratelimit.NewFixedWindowLimiter(cacheRepo, cfg.RateLimit.GenerateLimit, cfg.RateLimit.GenerateWindow)

	scheduleCtrl := controllers.NewScheduleController(scheduleService, logger)
	routeCtrl := controllers.NewRouteController(routeService, materializerService, generateLimiter, logger)
	stopCtrl := controllers.NewStopController(stopService, logger)
	clientCtrl := controllers.NewClientController(clientService, logger)

	runScheduleRouter(secureGroup, scheduleCtrl)
	runRouteRouter(secureGroup, routeCtrl, stopCtrl)
	runClientRouter(secureGroup, clientCtrl)
}
