package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/brynevale/admincore-backend/internal/domain/aggregates"
)

type APIError struct {
	Message    string   `json:"message"`
	Code       string   `json:"code,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondDomainError maps a typed domain error onto an HTTP status.
// Validation failures include the full violation list; everything the
// server cannot attribute to the caller collapses onto a generic 500.
func RespondDomainError(c *gin.Context, err error) {
	code := domainagg.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case domainagg.CodeValidation:
		status = http.StatusBadRequest
	case domainagg.CodeBusinessRule:
		status = http.StatusUnprocessableEntity
	case domainagg.CodeNotFound:
		status = http.StatusNotFound
	case domainagg.CodeConflict:
		status = http.StatusConflict
	case domainagg.CodeInfrastructure, domainagg.CodeProjection:
		status = http.StatusServiceUnavailable
	}

	msg := "internal error"
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message:    msg,
			Code:       string(code),
			Violations: domainagg.ViolationsOf(err),
		},
	})
}
