package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func corsEngine(allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(corsMiddleware(allowed))
	engine.GET("/api/v1/previews", func(c *gin.Context) { c.Status(http.StatusOK) })
	return engine
}

func TestCORSEchoesAllowedOrigin(t *testing.T) {
	engine := corsEngine("https://app.getflowetic.com/")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/previews", nil)
	req.Header.Set("Origin", "https://APP.getflowetic.com")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, "https://APP.getflowetic.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", rec.Header().Get("Vary"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/previews", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	engine := corsEngine()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/previews", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	require.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
}
