// Package httpapi exposes the aggregation pipeline over HTTP.
package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/mrusso19/covid-data-aggregation/internal/covid"
	"github.com/mrusso19/covid-data-aggregation/internal/export"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *covid.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/regions", func(c *fiber.Ctx) error {
		req, err := parseRegionsQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		target, ok := req.reportDate()
		if !ok {
			target = service.Today()
		}

		rows, err := service.RegionData(c.UserContext(), target, req.sortOptions())
		if err != nil {
			return pipelineError(err)
		}
		return c.JSON(rows)
	})

	// Export serves only stored data; it never triggers ingestion.
	v1.Get("/export/regions.xlsx", func(c *fiber.Ctx) error {
		req, err := parseRegionsQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var rows []covid.RegionDay
		if target, ok := req.reportDate(); ok {
			rows, err = service.StoredByDate(c.UserContext(), target, req.sortOptions())
		} else {
			rows, err = service.LatestAvailable(c.UserContext(), req.sortOptions())
		}
		if err != nil {
			return pipelineError(err)
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no data available to export")
		}

		reportDate := rows[0].SubmissionDate
		buf, err := export.RegionsWorkbook(rows, reportDate)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render export")
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename=`+export.Filename(reportDate))
		return c.Send(buf.Bytes())
	})
}

// regionsQuery holds the query parameters shared by the data and export
// endpoints.
type regionsQuery struct {
	ReportDate string `validate:"omitempty,datetime=2006-01-02"`
	SortBy     string
	SortOrder  string `validate:"omitempty,oneof=asc desc"`
}

func parseRegionsQuery(c *fiber.Ctx) (regionsQuery, error) {
	q := regionsQuery{
		ReportDate: c.Query("report_date"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// reportDate returns the requested date, if one was given. The format is
// already validated.
func (q regionsQuery) reportDate() (time.Time, bool) {
	if q.ReportDate == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(covid.DateLayout, q.ReportDate)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// sortOptions passes the raw field tag through; unknown fields fall back to
// the default order downstream instead of failing here.
func (q regionsQuery) sortOptions() covid.SortOptions {
	return covid.SortOptions{
		Field: covid.SortField(q.SortBy),
		Order: covid.SortOrder(q.SortOrder),
	}
}

// pipelineError maps pipeline outcome kinds onto HTTP statuses.
func pipelineError(err error) error {
	switch {
	case errors.Is(err, covid.ErrSourceDataUnavailable):
		return fiber.NewError(fiber.StatusNotFound, "no data available for the requested date")
	case errors.Is(err, covid.ErrUpstreamFailure):
		return fiber.NewError(fiber.StatusBadGateway, "failed to fetch data from the external source")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal error while preparing data")
	}
}
