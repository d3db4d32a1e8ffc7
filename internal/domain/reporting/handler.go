package reporting

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/domain/clinic"
	"github.com/clinic/clinic/internal/platform/auth"
)

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports", auth.RequireRole("admin", "physician", "registrar"))
	reportGroup.GET("", h.ListReports)
	reportGroup.GET("/:id/run", h.RunReport)
}

func (h *Handler) ListReports(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.List())
}

// RunReport evaluates a report, taking its parameters from the query string.
func (h *Handler) RunReport(c echo.Context) error {
	raw := map[string]string{}
	for name, values := range c.QueryParams() {
		if len(values) > 0 {
			raw[name] = values[0]
		}
	}

	report, err := h.svc.Run(c.Request().Context(), c.Param("id"), raw)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, report)
	case errors.Is(err, ErrReportNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case clinic.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
