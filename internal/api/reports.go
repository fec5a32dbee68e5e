package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quakepredict/quakepredict-go/internal/errors"
	"github.com/quakepredict/quakepredict-go/internal/model"
	"github.com/quakepredict/quakepredict-go/internal/weather"
)

// HandleGetRegions returns the monitored region catalog ordered by name.
//
// GET /api/v1/regions
func (c *Controller) HandleGetRegions(ctx echo.Context) error {
	regions := c.registry.ListByName()
	return ctx.JSON(http.StatusOK, regions)
}

// HandleGetRiskReport returns today's per-region risk snapshot, computing and
// persisting it on the first request of the day.
//
// GET /api/v1/risk/report
func (c *Controller) HandleGetRiskReport(ctx echo.Context) error {
	records, err := c.riskService.GetOrCompute(ctx.Request().Context())
	if err != nil {
		switch {
		case errors.Is(err, model.ErrModelUnavailable):
			return c.HandleError(ctx, err, "Risk model is unavailable and no cached report exists for today", http.StatusServiceUnavailable)
		case errors.Is(err, weather.ErrUpstream):
			return c.HandleError(ctx, err, "Weather provider is unavailable", http.StatusBadGateway)
		default:
			return c.HandleError(ctx, err, "Failed to produce risk report", http.StatusInternalServerError)
		}
	}
	return ctx.JSON(http.StatusOK, records)
}
