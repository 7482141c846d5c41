package visit

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/platform/pipeline"
	"github.com/caretrack/caretrack/pkg/pagination"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(e *echo.Echo) {
	e.POST("/visit", pipeline.H(h.Create))
	e.GET("/visit", pipeline.H(h.List))
	e.GET("/visit/:id", pipeline.H(h.Get))
	e.PUT("/visit/:id", pipeline.H(h.Update))
	e.DELETE("/visit/:id", pipeline.H(h.Delete))
	e.GET("/report/visits", pipeline.H(h.Report))
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, pipeline.Errorf(http.StatusBadRequest, "Invalid id parameter")
	}
	return id, nil
}

func actorFrom(c echo.Context) (pipeline.Actor, error) {
	actor, ok := pipeline.ActorFromContext(c.Request().Context())
	if !ok {
		return pipeline.Actor{}, pipeline.NewError(http.StatusUnauthorized, "Authorization header is required")
	}
	return actor, nil
}

// timeParam accepts a full timestamp or a bare date. Unparseable values
// behave like an absent parameter.
func timeParam(c echo.Context, name string) time.Time {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts
	}
	if ts, err := time.Parse("2006-01-02", raw); err == nil {
		return ts
	}
	return time.Time{}
}

func intParam(c echo.Context, name string) int64 {
	n, err := strconv.ParseInt(c.QueryParam(name), 10, 64)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func (h *Handler) Create(c echo.Context) (any, error) {
	var payload CreatePayload
	if err := pipeline.BindBody(c, &payload); err != nil {
		return nil, err
	}
	v, err := h.svc.Create(c.Request().Context(), &payload)
	if errors.Is(err, ErrInvalidReference) {
		return nil, pipeline.NewError(http.StatusUnprocessableEntity, "Referenced patient or caregiver does not exist")
	}
	if err != nil {
		return nil, err
	}
	return pipeline.Created(v), nil
}

func (h *Handler) List(c echo.Context) (any, error) {
	actor, err := actorFrom(c)
	if err != nil {
		return nil, err
	}
	f := ListFilter{
		PatientID:   intParam(c, "patient_id"),
		CaregiverID: intParam(c, "caregiver_id"),
		Status:      c.QueryParam("status"),
		From:        timeParam(c, "from"),
		To:          timeParam(c, "to"),
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), actor, f, pg)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Visit{}
	}
	return pagination.NewResponse(items, total, pg), nil
}

func (h *Handler) Get(c echo.Context) (any, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	v, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (h *Handler) Update(c echo.Context) (any, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	actor, err := actorFrom(c)
	if err != nil {
		return nil, err
	}
	v, err := h.svc.Update(c.Request().Context(), actor, id, pipeline.Body(c))
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, nil
	case errors.Is(err, ErrNotOwner):
		return nil, pipeline.NewError(http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, ErrInvalidReference):
		return nil, pipeline.NewError(http.StatusUnprocessableEntity, "Referenced patient or caregiver does not exist")
	case err != nil:
		return nil, err
	}
	return v, nil
}

func (h *Handler) Delete(c echo.Context) (any, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	actor, err := actorFrom(c)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Delete(c.Request().Context(), actor, id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, nil
		case errors.Is(err, ErrNotOwner):
			return nil, pipeline.NewError(http.StatusForbidden, "insufficient permissions")
		}
		return nil, err
	}
	return map[string]any{"id": id}, nil
}

func (h *Handler) Report(c echo.Context) (any, error) {
	counts, err := h.svc.Report(c.Request().Context(), timeParam(c, "from"), timeParam(c, "to"))
	if err != nil {
		return nil, err
	}
	return counts, nil
}
