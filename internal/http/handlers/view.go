package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brynevale/admincore-backend/internal/http/response"
	"github.com/brynevale/admincore-backend/internal/services"
)

type ViewHandler struct {
	queryService services.QueryService
}

func NewViewHandler(queryService services.QueryService) *ViewHandler {
	return &ViewHandler{queryService: queryService}
}

// GET /views/:id
func (vh *ViewHandler) Get(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	doc, err := vh.queryService.Get(c.Request.Context(), accessor, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"view": doc})
}

// GET /view-keys/:aggregate_type/:key — lookup by natural key (code,
// email, ...) within the caller's tenant.
func (vh *ViewHandler) GetByNaturalKey(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	aggregateType := strings.TrimSpace(c.Param("aggregate_type"))
	key := strings.TrimSpace(c.Param("key"))
	doc, err := vh.queryService.GetByNaturalKey(c.Request.Context(), accessor, aggregateType, key)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"view": doc})
}

// GET /views?aggregate_type=...&tenant_id=...&organization_id=...&status=...&search=...&page=1&size=20
func (vh *ViewHandler) List(c *gin.Context) {
	accessor, ok := accessorFrom(c)
	if !ok {
		return
	}
	in := services.ListViewsInput{
		AggregateType: strings.TrimSpace(c.Query("aggregate_type")),
		Status:        strings.TrimSpace(c.Query("status")),
		Search:        strings.TrimSpace(c.Query("search")),
	}
	if raw := strings.TrimSpace(c.Query("tenant_id")); raw != "" {
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		in.TenantID = tenantID
	}
	if raw := strings.TrimSpace(c.Query("organization_id")); raw != "" {
		orgID, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		in.OrganizationID = &orgID
	}
	if raw := c.Query("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil {
			in.Page = page
		}
	}
	if raw := c.Query("size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil {
			in.Size = size
		}
	}
	page, err := vh.queryService.List(c.Request.Context(), accessor, in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, page)
}
