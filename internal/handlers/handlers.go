package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"WarehouseApp/internal/config"
	"WarehouseApp/internal/middleware"
	"WarehouseApp/internal/service"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	coordinator *service.Coordinator,
	operators *service.OperatorService,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithMetrics)
	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)
	r.Use(middleware.WithAuth(config.AuthSecret))

	operatorHandler := NewOperatorHandler(operators, logger, config)
	containerHandler := NewContainerHandler(coordinator, logger)

	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/operator/login", operatorHandler.Login)
	r.Get("/api/status", containerHandler.Status)
	r.Get("/api/containers", containerHandler.List)
	r.Get("/api/containers/{id}", containerHandler.Get)
	r.Get("/api/current", containerHandler.Current)

	// изменяющие маршруты требуют оператора, если включён код доступа
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOperator(operators.Enabled()))

		r.Post("/api/containers", containerHandler.Create)
		r.Put("/api/containers/{id}", containerHandler.Update)
		r.Delete("/api/containers/{id}", containerHandler.Delete)
		r.Post("/api/containers/{id}/complete", containerHandler.Complete)
		r.Put("/api/current", containerHandler.SetCurrent)
		r.Post("/api/sync", containerHandler.Sync)
		r.Post("/api/refresh", containerHandler.Refresh)
	})

	return &Handler{Router: r}
}
