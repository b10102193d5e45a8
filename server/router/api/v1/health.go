package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// DatabaseHealth handles GET /api/v1/health/database.
func (s *APIV1Service) DatabaseHealth(c echo.Context) error {
	if err := s.Store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "database connection failed",
			"error":  err.Error(),
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// AIHealth handles GET /api/v1/health/ai: reports the configured model and
// whether the generation service was initialized.
func (s *APIV1Service) AIHealth(c echo.Context) error {
	info := s.Summarizer.ModelInfo()
	status := "ready"
	if !info.Initialized {
		status = "unavailable"
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":      status,
		"model_name":  info.ModelName,
		"initialized": info.Initialized,
	})
}
