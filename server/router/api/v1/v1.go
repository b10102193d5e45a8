// Package v1 exposes the REST API surface: admission CRUD, the summarize
// workflow and health probes.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medforge/healthagent/internal/profile"
	"github.com/medforge/healthagent/server/service/summarizer"
	"github.com/medforge/healthagent/store"
)

// APIV1Service holds the dependencies of the v1 REST handlers.
type APIV1Service struct {
	Profile    *profile.Profile
	Store      *store.Store
	Summarizer *summarizer.Summarizer
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, summarizer *summarizer.Summarizer) *APIV1Service {
	return &APIV1Service{
		Profile:    profile,
		Store:      store,
		Summarizer: summarizer,
	}
}

// RegisterRoutes registers all v1 routes on the echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	apiV1 := e.Group("/api/v1")

	// Health
	apiV1.GET("/health/database", s.DatabaseHealth)
	apiV1.GET("/health/ai", s.AIHealth)

	// Admissions
	apiV1.POST("/admissions", s.CreateAdmission)
	apiV1.GET("/admissions", s.ListAdmissions)
	apiV1.GET("/admissions/:hadmID", s.GetAdmission)
	apiV1.DELETE("/admissions/:hadmID", s.DeleteAdmission)

	// AI
	apiV1.POST("/ai/summarize", s.Summarize)
	apiV1.GET("/ai/summaries", s.ListSummaries)
	apiV1.DELETE("/ai/summaries/admission/:hadmID", s.DeleteSummaries)
}

// echoErr translates workflow and store errors into HTTP status codes. All
// failures surface as a status plus message; nothing is silently swallowed.
func echoErr(err error) *echo.HTTPError {
	var generationErr *summarizer.GenerationError
	var persistenceErr *summarizer.PersistenceError

	switch {
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidArgument):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrForeignKeyViolation):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, summarizer.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &generationErr):
		// Retryable by the caller; the workflow performs no internal retry.
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	case errors.As(err, &persistenceErr):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
