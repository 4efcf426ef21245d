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

type AdminUserHandler struct {
	userService services.AdminUserService
}

func NewAdminUserHandler(userService services.AdminUserService) *AdminUserHandler {
	return &AdminUserHandler{userService: userService}
}

// POST /admin-users
func (ah *AdminUserHandler) Create(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	var req struct {
		TenantID       string   `json:"tenant_id"`
		OrganizationID *string  `json:"organization_id"`
		DepartmentIDs  []string `json:"department_ids"`
		Email          string   `json:"email"`
		Username       string   `json:"username"`
		DisplayName    string   `json:"display_name"`
		Title          string   `json:"title"`
		Privacy        string   `json:"privacy"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tenantID, _ := uuid.Parse(req.TenantID)
	orgID, err := parseUUIDPtr(req.OrganizationID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	deptIDs, err := parseUUIDs(req.DepartmentIDs)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	u, err := ah.userService.Create(c.Request.Context(), accessor, services.CreateAdminUserInput{
		TenantID:       tenantID,
		OrganizationID: orgID,
		DepartmentIDs:  deptIDs,
		Email:          req.Email,
		Username:       req.Username,
		DisplayName:    req.DisplayName,
		Title:          req.Title,
		Privacy:        scope.PrivacyLevel(req.Privacy),
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"admin_user": u})
}

// PATCH /admin-users/:id
func (ah *AdminUserHandler) UpdateInfo(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Email       *string `json:"email"`
		Username    *string `json:"username"`
		DisplayName *string `json:"display_name"`
		Title       *string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	u, err := ah.userService.UpdateInfo(c.Request.Context(), accessor, id, directory.AdminUserInfoUpdate{
		Email:       req.Email,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Title:       req.Title,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"admin_user": u})
}

// POST /admin-users/:id/organization
// body: { "organization_id": "<uuid>", "department_ids": ["<uuid>", ...] }
func (ah *AdminUserHandler) AssignToOrganization(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		OrganizationID string   `json:"organization_id"`
		DepartmentIDs  []string `json:"department_ids"`
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
	deptIDs, err := parseUUIDs(req.DepartmentIDs)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	u, err := ah.userService.AssignToOrganization(c.Request.Context(), accessor, id, orgID, deptIDs)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"admin_user": u})
}

// POST /admin-users/:id/status
func (ah *AdminUserHandler) ChangeStatus(c *gin.Context) {
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
	u, err := ah.userService.ChangeStatus(c.Request.Context(), accessor, id, to)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"admin_user": u})
}

// DELETE /admin-users/:id
func (ah *AdminUserHandler) Delete(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := ah.userService.Delete(c.Request.Context(), accessor, id); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
