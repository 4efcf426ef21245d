package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/brynevale/admincore-backend/internal/http/handlers"
	httpMW "github.com/brynevale/admincore-backend/internal/http/middleware"
	"github.com/brynevale/admincore-backend/internal/observability"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler       *httpH.HealthHandler
	TenantHandler       *httpH.TenantHandler
	OrganizationHandler *httpH.OrganizationHandler
	DepartmentHandler   *httpH.DepartmentHandler
	AdminUserHandler    *httpH.AdminUserHandler
	TemplateHandler     *httpH.TemplateHandler
	ViewHandler         *httpH.ViewHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Metrics
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api/v1")

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Tenants
		if cfg.TenantHandler != nil {
			protected.POST("/tenants", cfg.TenantHandler.Create)
			protected.PATCH("/tenants/:id", cfg.TenantHandler.UpdateInfo)
			protected.POST("/tenants/:id/status", cfg.TenantHandler.ChangeStatus)
			protected.DELETE("/tenants/:id", cfg.TenantHandler.Delete)
		}

		// Organizations
		if cfg.OrganizationHandler != nil {
			protected.POST("/organizations", cfg.OrganizationHandler.Create)
			protected.PATCH("/organizations/:id", cfg.OrganizationHandler.UpdateInfo)
			protected.POST("/organizations/:id/status", cfg.OrganizationHandler.ChangeStatus)
			protected.DELETE("/organizations/:id", cfg.OrganizationHandler.Delete)
		}

		// Departments
		if cfg.DepartmentHandler != nil {
			protected.POST("/departments", cfg.DepartmentHandler.Create)
			protected.PATCH("/departments/:id", cfg.DepartmentHandler.UpdateInfo)
			protected.POST("/departments/:id/parent", cfg.DepartmentHandler.AssignParent)
			protected.POST("/departments/:id/organization", cfg.DepartmentHandler.AssignToOrganization)
			protected.POST("/departments/:id/status", cfg.DepartmentHandler.ChangeStatus)
			protected.DELETE("/departments/:id", cfg.DepartmentHandler.Delete)
		}

		// Admin users
		if cfg.AdminUserHandler != nil {
			protected.POST("/admin-users", cfg.AdminUserHandler.Create)
			protected.PATCH("/admin-users/:id", cfg.AdminUserHandler.UpdateInfo)
			protected.POST("/admin-users/:id/organization", cfg.AdminUserHandler.AssignToOrganization)
			protected.POST("/admin-users/:id/status", cfg.AdminUserHandler.ChangeStatus)
			protected.DELETE("/admin-users/:id", cfg.AdminUserHandler.Delete)
		}

		// Notification templates
		if cfg.TemplateHandler != nil {
			protected.POST("/templates", cfg.TemplateHandler.Create)
			protected.PATCH("/templates/:id", cfg.TemplateHandler.UpdateInfo)
			protected.POST("/templates/:id/status", cfg.TemplateHandler.ChangeStatus)
			protected.DELETE("/templates/:id", cfg.TemplateHandler.Delete)
		}

		// Projected views (read side)
		if cfg.ViewHandler != nil {
			protected.GET("/views", cfg.ViewHandler.List)
			protected.GET("/views/:id", cfg.ViewHandler.Get)
			protected.GET("/view-keys/:aggregate_type/:key", cfg.ViewHandler.GetByNaturalKey)
		}
	}

	return r
}
