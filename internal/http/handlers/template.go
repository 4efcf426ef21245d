package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brynevale/admincore-backend/internal/domain/notification"
	"github.com/brynevale/admincore-backend/internal/http/response"
	"github.com/brynevale/admincore-backend/internal/services"
)

type TemplateHandler struct {
	templateService services.TemplateService
}

func NewTemplateHandler(templateService services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// POST /templates
func (th *TemplateHandler) Create(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	var req struct {
		TenantID string `json:"tenant_id"`
		Code     string `json:"code"`
		Name     string `json:"name"`
		Channel  string `json:"channel"`
		Subject  string `json:"subject"`
		Body     string `json:"body"`
		Locale   string `json:"locale"`
		IsSystem bool   `json:"is_system"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tenantID, _ := uuid.Parse(req.TenantID)
	tpl, err := th.templateService.Create(c.Request.Context(), accessor, services.CreateTemplateInput{
		TenantID: tenantID,
		Code:     req.Code,
		Name:     req.Name,
		Channel:  req.Channel,
		Subject:  req.Subject,
		Body:     req.Body,
		Locale:   req.Locale,
		IsSystem: req.IsSystem,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"template": tpl})
}

// PATCH /templates/:id
func (th *TemplateHandler) UpdateInfo(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name    *string `json:"name"`
		Subject *string `json:"subject"`
		Body    *string `json:"body"`
		Locale  *string `json:"locale"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	tpl, err := th.templateService.UpdateInfo(c.Request.Context(), accessor, id, notification.TemplateInfoUpdate{
		Name:    req.Name,
		Subject: req.Subject,
		Body:    req.Body,
		Locale:  req.Locale,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"template": tpl})
}

// POST /templates/:id/status
func (th *TemplateHandler) ChangeStatus(c *gin.Context) {
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
	tpl, err := th.templateService.ChangeStatus(c.Request.Context(), accessor, id, to)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"template": tpl})
}

// DELETE /templates/:id
func (th *TemplateHandler) Delete(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := th.templateService.Delete(c.Request.Context(), accessor, id); err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
