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

type DepartmentHandler struct {
	deptService services.DepartmentService
}

func NewDepartmentHandler(deptService services.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{deptService: deptService}
}

// POST /departments
func (dh *DepartmentHandler) Create(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	var req struct {
		TenantID           string  `json:"tenant_id"`
		OrganizationID     string  `json:"organization_id"`
		Name               string  `json:"name"`
		Code               string  `json:"code"`
		Description        string  `json:"description"`
		ParentDepartmentID *string `json:"parent_department_id"`
		ManagerUserID      *string `json:"manager_user_id"`
		Privacy            string  `json:"privacy"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tenantID, _ := uuid.Parse(req.TenantID)
	orgID, _ := uuid.Parse(req.OrganizationID)
	parentID, err := parseUUIDPtr(req.ParentDepartmentID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	managerID, err := parseUUIDPtr(req.ManagerUserID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dept, err := dh.deptService.Create(c.Request.Context(), accessor, services.CreateDepartmentInput{
		TenantID:           tenantID,
		OrganizationID:     orgID,
		Name:               req.Name,
		Code:               req.Code,
		Description:        req.Description,
		ParentDepartmentID: parentID,
		ManagerUserID:      managerID,
		Privacy:            scope.PrivacyLevel(req.Privacy),
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"department": dept})
}

// PATCH /departments/:id
func (dh *DepartmentHandler) UpdateInfo(c *gin.Context) {
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
	dept, err := dh.deptService.UpdateInfo(c.Request.Context(), accessor, id, directory.DepartmentInfoUpdate{
		Name:          req.Name,
		Description:   req.Description,
		ManagerUserID: managerID,
		ClearManager:  req.ClearManager,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"department": dept})
}

// POST /departments/:id/parent
// body: { "parent_department_id": "<uuid>" } — null detaches to root.
func (dh *DepartmentHandler) AssignParent(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ParentDepartmentID *string `json:"parent_department_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	parentID, err := parseUUIDPtr(req.ParentDepartmentID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dept, err := dh.deptService.AssignParent(c.Request.Context(), accessor, id, parentID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"department": dept})
}

// POST /departments/:id/organization
func (dh *DepartmentHandler) AssignToOrganization(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		OrganizationID string `json:"organization_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	dept, err := dh.deptService.AssignToOrganization(c.Request.Context(), accessor, id, orgID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"department": dept})
}

// POST /departments/:id/status
func (dh *DepartmentHandler) ChangeStatus(c *gin.Context) {
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
	dept, err := dh.deptService.ChangeStatus(c.Request.Context(), accessor, id, to)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"department": dept})
}

// DELETE /departments/:id
func (dh *DepartmentHandler) Delete(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := dh.deptService.Delete(c.Request.Context(), accessor, id); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
