package app

import (
	"github.com/brynevale/admincore-backend/internal/http"
	httpH "github.com/brynevale/admincore-backend/internal/http/handlers"
	httpMW "github.com/brynevale/admincore-backend/internal/http/middleware"
	"github.com/brynevale/admincore-backend/internal/observability"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Tenant       *httpH.TenantHandler
	Organization *httpH.OrganizationHandler
	Department   *httpH.DepartmentHandler
	AdminUser    *httpH.AdminUserHandler
	Template     *httpH.TemplateHandler
	View         *httpH.ViewHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(),
		Tenant:       httpH.NewTenantHandler(services.Tenant),
		Organization: httpH.NewOrganizationHandler(services.Organization),
		Department:   httpH.NewDepartmentHandler(services.Department),
		AdminUser:    httpH.NewAdminUserHandler(services.AdminUser),
		Template:     httpH.NewTemplateHandler(services.Template),
		View:         httpH.NewViewHandler(services.Query),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:         log,
		Metrics:     metrics,
		ServiceName: cfg.ServiceName,
		CORSOrigins: cfg.CORSOrigins,

		AuthMiddleware: middleware.Auth,

		HealthHandler:       handlers.Health,
		TenantHandler:       handlers.Tenant,
		OrganizationHandler: handlers.Organization,
		DepartmentHandler:   handlers.Department,
		AdminUserHandler:    handlers.AdminUser,
		TemplateHandler:     handlers.Template,
		ViewHandler:         handlers.View,
	})
}
