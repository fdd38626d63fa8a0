package transfer

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ems/transport/internal/platform/auth"
	"github.com/ems/transport/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// EMS-facing endpoints
	emsGroup := api.Group("", auth.RequireRole(auth.RoleEMS))
	emsGroup.POST("/transfer-requests", h.SendRequest)
	emsGroup.GET("/transfer-requests/aggregate", h.Aggregate)
	emsGroup.PATCH("/paramedics/requests/:targetId/decision", h.Decide)

	// Hospital-facing endpoints
	hospGroup := api.Group("", auth.RequireRole(auth.RoleHospital))
	hospGroup.GET("/hospitals/requests", h.ListForHospital)
	hospGroup.GET("/hospitals/requests/:targetId", h.GetDetail)
	hospGroup.PATCH("/hospitals/requests/:targetId/status", h.Respond)
	hospGroup.GET("/hospitals/patients", h.ListPatients)

	// Audit trail is visible to both sides
	sharedGroup := api.Group("", auth.RequireRole(auth.RoleEMS, auth.RoleHospital))
	sharedGroup.GET("/hospitals/requests/:targetId/events", h.ListEvents)
}

func (h *Handler) SendRequest(c echo.Context) error {
	var in SendRequestInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.SendRequest(c.Request().Context(), actorFrom(c), &in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListForHospital(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListForHospital(c.Request().Context(), actorFrom(c), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetDetail(c echo.Context) error {
	targetID, err := targetIDParam(c)
	if err != nil {
		return err
	}
	detail, err := h.svc.GetDetail(c.Request().Context(), actorFrom(c), targetID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

type respondInput struct {
	Status string  `json:"status"`
	Note   *string `json:"note"`
}

func (h *Handler) Respond(c echo.Context) error {
	targetID, err := targetIDParam(c)
	if err != nil {
		return err
	}
	var in respondInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	target, err := h.svc.Respond(c.Request().Context(), actorFrom(c), targetID, in.Status, in.Note)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, target)
}

func (h *Handler) Decide(c echo.Context) error {
	targetID, err := targetIDParam(c)
	if err != nil {
		return err
	}
	var in respondInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	target, err := h.svc.Decide(c.Request().Context(), actorFrom(c), targetID, in.Status, in.Note)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, target)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPatients(c.Request().Context(), actorFrom(c), pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListEvents(c echo.Context) error {
	targetID, err := targetIDParam(c)
	if err != nil {
		return err
	}
	events, err := h.svc.ListEvents(c.Request().Context(), actorFrom(c), targetID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, events)
}

func (h *Handler) Aggregate(c echo.Context) error {
	caseID := c.QueryParam("case_id")
	var requestIDs []string
	for _, raw := range strings.Split(c.QueryParam("request_ids"), ",") {
		if raw = strings.TrimSpace(raw); raw != "" {
			requestIDs = append(requestIDs, raw)
		}
	}
	summaries, err := h.svc.Aggregate(c.Request().Context(), caseID, requestIDs)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summaries)
}

// actorFrom translates the identity layer's actor into the workflow's.
func actorFrom(c echo.Context) *Actor {
	a := auth.ActorFromContext(c.Request().Context())
	if a == nil {
		return nil
	}
	return &Actor{
		ID:         a.ID,
		Role:       Role(a.Role),
		TeamID:     a.TeamID,
		HospitalID: a.HospitalID,
	}
}

func targetIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("targetId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid target id")
	}
	return id, nil
}

// httpError maps workflow errors onto HTTP status codes. Rejected
// transitions are client errors, not server faults.
func httpError(err error) error {
	var te *TransitionError
	switch {
	case errors.Is(err, ErrValidation), errors.As(err, &te):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
