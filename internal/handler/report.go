package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rmstudio/salon-booking/internal/repository"
)

// ReportHandler serves the revenue reports for administrators.
type ReportHandler struct {
	Reports *repository.ReportRepo
}

func NewReportHandler(r *repository.ReportRepo) *ReportHandler {
	return &ReportHandler{Reports: r}
}

// Revenue returns the billable revenue of one month, broken down by
// service.  year and month default to the current month.
func (h *ReportHandler) Revenue(c echo.Context) error {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	if v := c.QueryParam("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2000 || n > 2100 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid year"})
		}
		year = n
	}
	if v := c.QueryParam("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid month"})
		}
		month = n
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rep, err := h.Reports.Revenue(ctx, year, month)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	type line struct {
		Service    string `json:"service"`
		Count      int    `json:"count"`
		TotalCents int64  `json:"total_cents"`
	}
	lines := make([]line, 0, len(rep.PerService))
	for _, l := range rep.PerService {
		lines = append(lines, line{Service: l.ServiceName, Count: l.Count, TotalCents: l.TotalCents})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"year":        rep.Year,
		"month":       rep.Month,
		"count":       rep.Count,
		"total_cents": rep.TotalCents,
		"per_service": lines,
	})
}
