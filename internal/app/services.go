package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/aggregates"
	"github.com/brynevale/admincore-backend/internal/observability"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"github.com/brynevale/admincore-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	Tenant       services.TenantService
	Organization services.OrganizationService
	Department   services.DepartmentService
	AdminUser    services.AdminUserService
	Template     services.TemplateService
	Query        services.QueryService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	authService, err := services.NewAuthService(log, cfg.JWTSecretKey)
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	deps := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewMetricsHooks(metrics),
	}.WithDefaults()

	return Services{
		Auth:         authService,
		Tenant:       services.NewTenantService(deps, reposet.Tenant, reposet.Outbox, clients.EventBus),
		Organization: services.NewOrganizationService(deps, reposet.Organization, reposet.Tenant, reposet.AdminUser, reposet.Outbox, clients.EventBus),
		Department:   services.NewDepartmentService(deps, reposet.Department, reposet.Organization, reposet.Tenant, reposet.Outbox, clients.EventBus),
		AdminUser:    services.NewAdminUserService(deps, reposet.AdminUser, reposet.Organization, reposet.Department, reposet.Tenant, reposet.Outbox, clients.EventBus),
		Template:     services.NewTemplateService(deps, reposet.Template, reposet.Tenant, reposet.Outbox, clients.EventBus),
		Query:        services.NewQueryService(db, log, reposet.Views),
	}, nil
}
