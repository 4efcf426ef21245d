package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brynevale/admincore-backend/internal/domain/directory"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/http/response"
	"github.com/brynevale/admincore-backend/internal/services"
)

type OrganizationHandler struct {
	orgService services.OrganizationService
}

func NewOrganizationHandler(orgService services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// POST /organizations
func (oh *OrganizationHandler) Create(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	var req struct {
		TenantID      string  `json:"tenant_id"`
		Name          string  `json:"name"`
		Code          string  `json:"code"`
		Description   string  `json:"description"`
		ManagerUserID *string `json:"manager_user_id"`
		Privacy       string  `json:"privacy"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tenantID, _ := uuid.Parse(req.TenantID)
	managerID, err := parseUUIDPtr(req.ManagerUserID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	org, err := oh.orgService.Create(c.Request.Context(), accessor, services.CreateOrganizationInput{
		TenantID:      tenantID,
		Name:          req.Name,
		Code:          req.Code,
		Description:   req.Description,
		ManagerUserID: managerID,
		Privacy:       scope.PrivacyLevel(req.Privacy),
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"organization": org})
}

// PATCH /organizations/:id
func (oh *OrganizationHandler) UpdateInfo(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name          *string `json:"name"`
		Description   *string `json:"description"`
		ManagerUserID *string `json:"manager_user_id"`
		ClearManager  bool    `json:"clear_manager"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	managerID, err := parseUUIDPtr(req.ManagerUserID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	org, err := oh.orgService.UpdateInfo(c.Request.Context(), accessor, id, directory.OrganizationInfoUpdate{
		Name:          req.Name,
		Description:   req.Description,
		ManagerUserID: managerID,
		ClearManager:  req.ClearManager,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"organization": org})
}

// POST /organizations/:id/status
func (oh *OrganizationHandler) ChangeStatus(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	to, ok := bindStatus(c)
	if !ok {
		return
	}
	org, err := oh.orgService.ChangeStatus(c.Request.Context(), accessor, id, to)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"organization": org})
}

// DELETE /organizations/:id
func (oh *OrganizationHandler) Delete(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := oh.orgService.Delete(c.Request.Context(), accessor, id); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
