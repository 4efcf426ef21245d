package app

import (
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/readmodel"
	"github.com/brynevale/admincore-backend/internal/data/repos"
	"github.com/brynevale/admincore-backend/internal/observability"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
)

type Repos struct {
	Tenant       repos.TenantRepo
	Organization repos.OrganizationRepo
	Department   repos.DepartmentRepo
	AdminUser    repos.AdminUserRepo
	Template     repos.TemplateRepo
	Outbox       repos.OutboxRepo
	Views        readmodel.ViewRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger, metrics *observability.Metrics) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Tenant:       repos.NewTenantRepo(db, log),
		Organization: repos.NewOrganizationRepo(db, log),
		Department:   repos.NewDepartmentRepo(db, log),
		AdminUser:    repos.NewAdminUserRepo(db, log),
		Template:     repos.NewTemplateRepo(db, log),
		Outbox:       repos.NewOutboxRepo(db, log, metrics),
		Views:        readmodel.NewViewRepo(db, log),
	}
}
