package repos

import (
	"gorm.io/gorm"

	"github.com/brynevale/admincore-backend/internal/data/repos/directory"
	"github.com/brynevale/admincore-backend/internal/data/repos/notification"
	"github.com/brynevale/admincore-backend/internal/data/repos/outbox"
	"github.com/brynevale/admincore-backend/internal/observability"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
)

type TenantRepo = directory.TenantRepo
type OrganizationRepo = directory.OrganizationRepo
type DepartmentRepo = directory.DepartmentRepo
type AdminUserRepo = directory.AdminUserRepo

type TemplateRepo = notification.TemplateRepo

type OutboxRepo = outbox.OutboxRepo

func NewTenantRepo(db *gorm.DB, baseLog *logger.Logger) TenantRepo {
	return directory.NewTenantRepo(db, baseLog)
}
func NewOrganizationRepo(db *gorm.DB, baseLog *logger.Logger) OrganizationRepo {
	return directory.NewOrganizationRepo(db, baseLog)
}
func NewDepartmentRepo(db *gorm.DB, baseLog *logger.Logger) DepartmentRepo {
	return directory.NewDepartmentRepo(db, baseLog)
}
func NewAdminUserRepo(db *gorm.DB, baseLog *logger.Logger) AdminUserRepo {
	return directory.NewAdminUserRepo(db, baseLog)
}
func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	return notification.NewTemplateRepo(db, baseLog)
}
func NewOutboxRepo(db *gorm.DB, baseLog *logger.Logger, metrics *observability.Metrics) OutboxRepo {
	return outbox.NewOutboxRepo(db, baseLog, metrics)
}
