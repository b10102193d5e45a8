package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medforge/healthagent/store"
)

// SummarizeRequest is the JSON body accepted by POST /ai/summarize.
type SummarizeRequest struct {
	HadmID int32 `json:"hadm_id"`
}

// SummaryResponse is the JSON shape of a stored summary. Reused reports that
// an existing summary was returned without a new generation call.
type SummaryResponse struct {
	ID             int32   `json:"id"`
	HadmID         int32   `json:"hadm_id"`
	Summary        string  `json:"summary"`
	OriginalLength int32   `json:"original_length"`
	ProcessingTime float64 `json:"processing_time"`
	ModelUsed      string  `json:"model_used"`
	CreatedAt      string  `json:"created_at"`
	Reused         bool    `json:"reused"`
}

// SummaryListResponse is the JSON shape of the recent-summary listing.
type SummaryListResponse struct {
	Summaries  []*SummaryResponse `json:"summaries"`
	TotalCount int64              `json:"total_count"`
	ShownCount int                `json:"shown_count"`
}

// Summarize handles POST /api/v1/ai/summarize: return the stored summary for
// the admission or generate and persist a new one.
func (s *APIV1Service) Summarize(c echo.Context) error {
	ctx := c.Request().Context()

	request := &SummarizeRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.HadmID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "hadm_id is required")
	}

	summary, created, err := s.Summarizer.Summarize(ctx, request.HadmID)
	if err != nil {
		return echoErr(err)
	}
	return c.JSON(http.StatusOK, convertSummary(summary, !created))
}

// ListSummaries handles GET /api/v1/ai/summaries?limit=N.
func (s *APIV1Service) ListSummaries(c echo.Context) error {
	ctx := c.Request().Context()

	limit := store.DefaultSummaryListLimit
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		limit = parsed
	}

	totalCount, err := s.Store.CountSummaries(ctx)
	if err != nil {
		return echoErr(err)
	}

	response := &SummaryListResponse{
		Summaries:  []*SummaryResponse{},
		TotalCount: totalCount,
	}
	// Short-circuit the empty set; the limit is still validated.
	if totalCount == 0 {
		if limit < 1 || limit > store.MaxSummaryListLimit {
			return echoErr(store.ErrInvalidArgument)
		}
		return c.JSON(http.StatusOK, response)
	}

	summaries, err := s.Store.ListRecentSummaries(ctx, limit)
	if err != nil {
		return echoErr(err)
	}
	for _, summary := range summaries {
		response.Summaries = append(response.Summaries, convertSummary(summary, false))
	}
	response.ShownCount = len(response.Summaries)
	return c.JSON(http.StatusOK, response)
}

// DeleteSummariesResponse reports a summary deletion.
type DeleteSummariesResponse struct {
	Message string `json:"message"`
	HadmID  int32  `json:"hadm_id"`
	Deleted int64  `json:"deleted"`
}

// DeleteSummaries handles DELETE /api/v1/ai/summaries/admission/:hadmID.
// Zero existing rows reports not-found without any destructive side effect.
func (s *APIV1Service) DeleteSummaries(c echo.Context) error {
	ctx := c.Request().Context()

	hadmID, err := pathParamHadmID(c)
	if err != nil {
		return err
	}

	deleted, err := s.Store.DeleteSummariesByAdmission(ctx, hadmID)
	if err != nil {
		return echoErr(err)
	}
	if deleted == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "no summaries found for admission "+strconv.FormatInt(int64(hadmID), 10))
	}

	return c.JSON(http.StatusOK, &DeleteSummariesResponse{
		Message: "summaries deleted",
		HadmID:  hadmID,
		Deleted: deleted,
	})
}

func convertSummary(summary *store.Summary, reused bool) *SummaryResponse {
	return &SummaryResponse{
		ID:             summary.ID,
		HadmID:         summary.HadmID,
		Summary:        summary.SummaryText,
		OriginalLength: summary.OriginalLength,
		ProcessingTime: summary.ProcessingTime,
		ModelUsed:      summary.ModelUsed,
		CreatedAt:      time.Unix(summary.CreatedTs, 0).UTC().Format(time.RFC3339),
		Reused:         reused,
	}
}
