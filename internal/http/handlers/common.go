package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brynevale/admincore-backend/internal/domain/lifecycle"
	"github.com/brynevale/admincore-backend/internal/domain/scope"
	"github.com/brynevale/admincore-backend/internal/http/response"
	"github.com/brynevale/admincore-backend/internal/requestdata"
)

// accessorFrom pulls the authenticated scope out of the request context.
// Auth middleware guarantees it on protected routes; the false branch
// only fires when a handler is mounted without RequireAuth.
func accessorFrom(c *gin.Context) (scope.Accessor, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.Accessor.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errMissingScope)
		return scope.Accessor{}, false
	}
	return rd.Accessor, true
}

var errMissingScope = &scopeError{"missing request scope"}

type scopeError struct{ msg string }

func (e *scopeError) Error() string { return e.msg }

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return uuid.Nil, false
	}
	return id, true
}

func parseUUIDPtr(raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func bindStatus(c *gin.Context) (lifecycle.Status, bool) {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return "", false
	}
	return lifecycle.Status(strings.ToUpper(strings.TrimSpace(req.Status))), true
}
