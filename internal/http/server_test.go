package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/brynevale/admincore-backend/internal/http/handlers"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
)

func TestNewServerServesRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	srv := NewServer(RouterConfig{
		Log:           log,
		HealthHandler: httpH.NewHealthHandler(),
	})
	if srv.Engine == nil {
		t.Fatal("server must carry the configured engine")
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	srv.Engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthcheck: want=%d got=%d", http.StatusOK, rec.Code)
	}
}
