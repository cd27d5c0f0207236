package handler

import (
	"encoding/csv"
	"net/http"
	"strings"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/middleware"
	"github.com/codepinky/ruptura/ruptura-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ReportHandler handles report builder, export, tab and preset requests
type ReportHandler struct {
	reportService *service.ReportService
	presetService *service.PresetService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService, presetService *service.PresetService) *ReportHandler {
	return &ReportHandler{reportService: reportService, presetService: presetService}
}

// BuildReportRequest is the body of POST /reports/build. When PresetID is
// set the preset's options are used and the inline options are ignored.
type BuildReportRequest struct {
	PresetID string `json:"presetId"`
	domain.ReportOptions
}

// PresetRequest is the create/update body of a report preset
type PresetRequest struct {
	Name       string                  `json:"name"`
	Fields     []domain.ReportField    `json:"fields"`
	Type       *domain.TransactionType `json:"type"`
	CategoryID string                  `json:"categoryId"`
	StartDate  *Date                   `json:"startDate"`
	EndDate    *Date                   `json:"endDate"`
	GroupBy    domain.GroupBy          `json:"groupBy"`
	SortBy     domain.SortBy           `json:"sortBy"`
}

func (r PresetRequest) toPreset(id string) *domain.Preset {
	return &domain.Preset{
		ID:         id,
		Name:       r.Name,
		Fields:     r.Fields,
		Type:       r.Type,
		CategoryID: r.CategoryID,
		StartDate:  r.StartDate.Ptr(),
		EndDate:    r.EndDate.Ptr(),
		GroupBy:    r.GroupBy,
		SortBy:     r.SortBy,
	}
}

// Build handles POST /api/v1/reports/build
func (h *ReportHandler) Build(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	var req BuildReportRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	opts := req.ReportOptions
	if req.PresetID != "" {
		preset, err := h.presetService.Get(c.Request().Context(), userID, req.PresetID)
		if err != nil {
			return respondError(c, err, userID, "load preset")
		}
		opts = preset.Options()
	}

	report, err := h.reportService.Build(userID, opts, acceptLanguage(c))
	if err != nil {
		return respondError(c, err, userID, "build report")
	}
	return c.JSON(http.StatusOK, report)
}

// Export handles POST /api/v1/reports/export. ?format=csv streams a CSV
// file; the default is the JSON table.
func (h *ReportHandler) Export(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	var filters domain.ReportFilters
	if err := c.Bind(&filters); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	table, err := h.reportService.Export(userID, filters, acceptLanguage(c))
	if err != nil {
		return respondError(c, err, userID, "export report")
	}

	switch strings.ToLower(c.QueryParam("format")) {
	case "", "json":
		return c.JSON(http.StatusOK, table)
	case "csv":
		return writeCSV(c, table)
	default:
		return NewValidationError(c, "Unknown export format", []ValidationError{{Field: "format", Message: "Must be json or csv"}})
	}
}

func writeCSV(c echo.Context, table *service.ExportTable) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="report.csv"`)
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	header := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = string(col)
	}
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(table.Rows); err != nil {
		log.Error().Err(err).Msg("Failed to write CSV export")
		return err
	}
	return nil
}

// GetTab handles GET /api/v1/reports?tab=&start=&end=
func (h *ReportHandler) GetTab(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	tab, err := service.ParseReportTab(c.QueryParam("tab"))
	if err != nil {
		return NewValidationError(c, err.Error(), []ValidationError{{Field: "tab", Message: "Must be overview, categories, trends or builder"}})
	}
	period, err := parsePeriod(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	view, err := h.reportService.GetTab(userID, tab, period, acceptLanguage(c))
	if err != nil {
		return respondError(c, err, userID, "build report tab")
	}
	return c.JSON(http.StatusOK, view)
}

// ListPresets handles GET /api/v1/reports/presets
func (h *ReportHandler) ListPresets(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	presets, err := h.presetService.List(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err, userID, "list presets")
	}
	return c.JSON(http.StatusOK, presets)
}

// GetPreset handles GET /api/v1/reports/presets/:id
func (h *ReportHandler) GetPreset(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	preset, err := h.presetService.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return respondError(c, err, userID, "get preset")
	}
	return c.JSON(http.StatusOK, preset)
}

// CreatePreset handles POST /api/v1/reports/presets
func (h *ReportHandler) CreatePreset(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	var req PresetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	preset, err := h.presetService.Save(c.Request().Context(), userID, req.toPreset(""))
	if err != nil {
		return respondError(c, err, userID, "save preset")
	}

	log.Info().Str("user_id", userID).Str("preset_id", preset.ID).Str("name", preset.Name).Msg("Report preset created")
	return c.JSON(http.StatusCreated, preset)
}

// UpdatePreset handles PUT /api/v1/reports/presets/:id
func (h *ReportHandler) UpdatePreset(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	id := c.Param("id")
	if _, err := h.presetService.Get(c.Request().Context(), userID, id); err != nil {
		return respondError(c, err, userID, "update preset")
	}

	var req PresetRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	preset, err := h.presetService.Save(c.Request().Context(), userID, req.toPreset(id))
	if err != nil {
		return respondError(c, err, userID, "save preset")
	}

	log.Info().Str("user_id", userID).Str("preset_id", preset.ID).Msg("Report preset updated")
	return c.JSON(http.StatusOK, preset)
}

// DeletePreset handles DELETE /api/v1/reports/presets/:id
func (h *ReportHandler) DeletePreset(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	if err := h.presetService.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return respondError(c, err, userID, "delete preset")
	}

	log.Info().Str("user_id", userID).Str("preset_id", c.Param("id")).Msg("Report preset deleted")
	return c.NoContent(http.StatusNoContent)
}
