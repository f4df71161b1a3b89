package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "two_point_controller/docs"
	"two_point_controller/internal/logger"
	"two_point_controller/internal/service"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Attribute stream over WebSocket on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.operatorMiddleware)
	{
		h.registerControllerRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerControllerRoutes(api *gin.RouterGroup) {
	ctrl := api.Group("/controller")
	{
		ctrl.GET("/attributes", h.getAttributes)
		ctrl.GET("/sensor-value", h.getSensorValue)
		ctrl.GET("/actor-value", h.getActorValue)
		ctrl.GET("/difference", h.getDifference)
		ctrl.GET("/target", h.getTarget)
		ctrl.GET("/enabled", h.getEnabled)

		// Attribute writes; refused up front on a fixed-target controller.
		// Body example: {"value":21.5} / {"value":true}
		ctrl.PUT("/target", h.writableMiddleware, h.setTarget)
		ctrl.PUT("/enabled", h.writableMiddleware, h.setEnabled)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
