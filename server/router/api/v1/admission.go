package v1

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medforge/healthagent/store"
)

const textPreviewLength = 200

// AdmissionResponse is the JSON shape of an admission. Text carries the full
// narrative on detail endpoints; list endpoints send TextPreview instead.
type AdmissionResponse struct {
	HadmID             int32    `json:"hadm_id"`
	SubjectID          int32    `json:"subject_id"`
	Gender             string   `json:"gender"`
	Age                *int32   `json:"age,omitempty"`
	AdmissionType      string   `json:"admission_type"`
	Diagnosis          string   `json:"diagnosis"`
	HospitalExpireFlag bool     `json:"hospital_expire_flag"`
	EDLOSHours         *float64 `json:"ed_los_hours,omitempty"`
	TotalLOSHours      *float64 `json:"total_los_hours,omitempty"`
	Charttime          *string  `json:"charttime,omitempty"`
	Category           string   `json:"category"`
	Description        string   `json:"description"`
	Text               string   `json:"text,omitempty"`
	TextPreview        string   `json:"text_preview,omitempty"`
}

// AdmissionListResponse is the JSON shape of an admission listing.
type AdmissionListResponse struct {
	Admissions []*AdmissionResponse `json:"admissions"`
	Total      int64                `json:"total"`
	Shown      int                  `json:"shown"`
}

// CreateAdmissionRequest is the JSON body accepted by POST /admissions.
type CreateAdmissionRequest struct {
	HadmID             int32    `json:"hadm_id"`
	SubjectID          int32    `json:"subject_id"`
	Gender             string   `json:"gender"`
	Age                *int32   `json:"age"`
	AdmissionType      string   `json:"admission_type"`
	Diagnosis          string   `json:"diagnosis"`
	HospitalExpireFlag bool     `json:"hospital_expire_flag"`
	EDLOSHours         *float64 `json:"ed_los_hours"`
	TotalLOSHours      *float64 `json:"total_los_hours"`
	Charttime          *string  `json:"charttime"` // RFC3339
	Category           string   `json:"category"`
	Description        string   `json:"description"`
	Text               string   `json:"text"`
}

// CreateAdmission handles POST /api/v1/admissions.
func (s *APIV1Service) CreateAdmission(c echo.Context) error {
	ctx := c.Request().Context()

	request := &CreateAdmissionRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body").SetInternal(err)
	}
	if request.HadmID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "hadm_id is required")
	}
	if request.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	if request.Category == "" {
		request.Category = "Discharge summary"
	}
	if request.Description == "" {
		request.Description = "Discharge summary"
	}

	var charttimeTs *int64
	if request.Charttime != nil && *request.Charttime != "" {
		t, err := time.Parse(time.RFC3339, *request.Charttime)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "charttime must be RFC3339").SetInternal(err)
		}
		ts := t.UTC().Unix()
		charttimeTs = &ts
	}

	admission, err := s.Store.CreateAdmission(ctx, &store.Admission{
		HadmID:             request.HadmID,
		SubjectID:          request.SubjectID,
		Gender:             strings.ToUpper(request.Gender),
		Age:                request.Age,
		AdmissionType:      request.AdmissionType,
		Diagnosis:          request.Diagnosis,
		HospitalExpireFlag: request.HospitalExpireFlag,
		EDLOSHours:         request.EDLOSHours,
		TotalLOSHours:      request.TotalLOSHours,
		CharttimeTs:        charttimeTs,
		Category:           request.Category,
		Description:        request.Description,
		Text:               request.Text,
	})
	if err != nil {
		return echoErr(err)
	}

	return c.JSON(http.StatusOK, convertAdmission(admission, true))
}

// ListAdmissions handles GET /api/v1/admissions with optional search and
// filtering.
func (s *APIV1Service) ListAdmissions(c echo.Context) error {
	ctx := c.Request().Context()

	find := &store.FindAdmission{}
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		if len(q) < 2 {
			return echo.NewHTTPError(http.StatusBadRequest, "search term must be at least 2 characters")
		}
		find.Query = &q
	}
	if gender := strings.TrimSpace(c.QueryParam("gender")); gender != "" {
		upper := strings.ToUpper(gender)
		find.Gender = &upper
	}
	if admissionType := strings.TrimSpace(c.QueryParam("admission_type")); admissionType != "" {
		find.AdmissionType = &admissionType
	}
	var err error
	if find.AgeMin, err = queryParamInt32(c, "age_min"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "age_min must be an integer")
	}
	if find.AgeMax, err = queryParamInt32(c, "age_max"); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "age_max must be an integer")
	}
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		find.Limit = &limit
	}

	admissions, err := s.Store.ListAdmissions(ctx, find)
	if err != nil {
		return echoErr(err)
	}
	total, err := s.Store.CountAdmissions(ctx, find)
	if err != nil {
		return echoErr(err)
	}

	response := &AdmissionListResponse{
		Admissions: make([]*AdmissionResponse, 0, len(admissions)),
		Total:      total,
		Shown:      len(admissions),
	}
	for _, admission := range admissions {
		item := convertAdmission(admission, false)
		item.TextPreview = textPreview(admission.Text)
		response.Admissions = append(response.Admissions, item)
	}
	return c.JSON(http.StatusOK, response)
}

// GetAdmission handles GET /api/v1/admissions/:hadmID.
func (s *APIV1Service) GetAdmission(c echo.Context) error {
	ctx := c.Request().Context()

	hadmID, err := pathParamHadmID(c)
	if err != nil {
		return err
	}

	admission, err := s.Store.GetAdmission(ctx, hadmID)
	if err != nil {
		return echoErr(err)
	}
	if admission == nil {
		return echo.NewHTTPError(http.StatusNotFound, "admission not found")
	}
	return c.JSON(http.StatusOK, convertAdmission(admission, true))
}

// DeleteAdmissionResponse reports what a cascading admission delete removed.
type DeleteAdmissionResponse struct {
	Message          string `json:"message"`
	HadmID           int32  `json:"hadm_id"`
	DeletedSummaries int64  `json:"deleted_summaries"`
	SubjectID        int32  `json:"subject_id"`
	Diagnosis        string `json:"diagnosis"`
}

// DeleteAdmission handles DELETE /api/v1/admissions/:hadmID. The admission's
// summary rows go with it in the same transaction.
func (s *APIV1Service) DeleteAdmission(c echo.Context) error {
	ctx := c.Request().Context()

	hadmID, err := pathParamHadmID(c)
	if err != nil {
		return err
	}

	admission, err := s.Store.GetAdmission(ctx, hadmID)
	if err != nil {
		return echoErr(err)
	}
	if admission == nil {
		return echo.NewHTTPError(http.StatusNotFound, "admission not found")
	}

	deletedSummaries, err := s.Store.DeleteAdmission(ctx, hadmID)
	if err != nil {
		return echoErr(err)
	}

	return c.JSON(http.StatusOK, &DeleteAdmissionResponse{
		Message:          "admission deleted",
		HadmID:           hadmID,
		DeletedSummaries: deletedSummaries,
		SubjectID:        admission.SubjectID,
		Diagnosis:        admission.Diagnosis,
	})
}

func pathParamHadmID(c echo.Context) (int32, error) {
	hadmID, err := strconv.ParseInt(c.Param("hadmID"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "hadm_id must be an integer")
	}
	return int32(hadmID), nil
}

func queryParamInt32(c echo.Context, name string) (*int32, error) {
	param := c.QueryParam(name)
	if param == "" {
		return nil, nil
	}
	value, err := strconv.ParseInt(param, 10, 32)
	if err != nil {
		return nil, err
	}
	v := int32(value)
	return &v, nil
}

func textPreview(text string) string {
	if len(text) > textPreviewLength {
		return text[:textPreviewLength] + "..."
	}
	return text
}

func convertAdmission(admission *store.Admission, includeText bool) *AdmissionResponse {
	response := &AdmissionResponse{
		HadmID:             admission.HadmID,
		SubjectID:          admission.SubjectID,
		Gender:             admission.Gender,
		Age:                admission.Age,
		AdmissionType:      admission.AdmissionType,
		Diagnosis:          admission.Diagnosis,
		HospitalExpireFlag: admission.HospitalExpireFlag,
		EDLOSHours:         admission.EDLOSHours,
		TotalLOSHours:      admission.TotalLOSHours,
		Category:           admission.Category,
		Description:        admission.Description,
	}
	if admission.CharttimeTs != nil {
		formatted := time.Unix(*admission.CharttimeTs, 0).UTC().Format(time.RFC3339)
		response.Charttime = &formatted
	}
	if includeText {
		response.Text = admission.Text
	}
	return response
}
