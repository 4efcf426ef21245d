package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brynevale/admincore-backend/internal/domain/directory"
	"github.com/brynevale/admincore-backend/internal/http/response"
	"github.com/brynevale/admincore-backend/internal/services"
)

type TenantHandler struct {
	tenantService services.TenantService
}

func NewTenantHandler(tenantService services.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// POST /tenants
// body: { "name": "...", "code": "ACME", "description": "...", "contact_email": "..." }
func (th *TenantHandler) Create(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	var req struct {
		Name         string `json:"name"`
		Code         string `json:"code"`
		Description  string `json:"description"`
		ContactEmail string `json:"contact_email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	t, err := th.tenantService.Create(c.Request.Context(), accessor, services.CreateTenantInput{
		Name:         req.Name,
		Code:         req.Code,
		Description:  req.Description,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"tenant": t})
}

// PATCH /tenants/:id
func (th *TenantHandler) UpdateInfo(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name         *string `json:"name"`
		Description  *string `json:"description"`
		ContactEmail *string `json:"contact_email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	t, err := th.tenantService.UpdateInfo(c.Request.Context(), accessor, id, directory.TenantInfoUpdate{
		Name:         req.Name,
		Description:  req.Description,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tenant": t})
}

// POST /tenants/:id/status
// body: { "status": "SUSPENDED" }
func (th *TenantHandler) ChangeStatus(c *gin.Context) {
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
	t, err := th.tenantService.ChangeStatus(c.Request.Context(), accessor, id, to)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tenant": t})
}

// DELETE /tenants/:id
func (th *TenantHandler) Delete(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := th.tenantService.Delete(c.Request.Context(), accessor, id); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
