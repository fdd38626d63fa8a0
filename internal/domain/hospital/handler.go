package hospital

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ems/transport/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	group := api.Group("", auth.RequireRole(auth.RoleEMS, auth.RoleHospital))
	group.GET("/hospitals/suggest", h.Suggest)
}

// Suggest powers the destination picker's typeahead.
func (h *Handler) Suggest(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	hospitals, err := h.svc.Suggest(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if hospitals == nil {
		hospitals = []*Hospital{}
	}
	return c.JSON(http.StatusOK, hospitals)
}
