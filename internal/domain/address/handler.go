package address

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/platform/pipeline"
	"github.com/caretrack/caretrack/pkg/pagination"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(e *echo.Echo) {
	e.POST("/address", pipeline.H(h.Create))
	e.GET("/address", pipeline.H(h.List))
	e.GET("/address/:id", pipeline.H(h.Get))
	e.PUT("/address/:id", pipeline.H(h.Update))
	e.DELETE("/address/:id", pipeline.H(h.Delete))
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, pipeline.Errorf(http.StatusBadRequest, "Invalid id parameter")
	}
	return id, nil
}

func (h *Handler) Create(c echo.Context) (any, error) {
	var payload CreatePayload
	if err := pipeline.BindBody(c, &payload); err != nil {
		return nil, err
	}
	a, err := h.svc.Create(c.Request().Context(), &payload)
	if errors.Is(err, ErrInvalidReference) {
		return nil, pipeline.NewError(http.StatusUnprocessableEntity, "Referenced patient does not exist")
	}
	if err != nil {
		return nil, err
	}
	return pipeline.Created(a), nil
}

func (h *Handler) List(c echo.Context) (any, error) {
	patientID, _ := strconv.ParseInt(c.QueryParam("patient_id"), 10, 64)
	if patientID < 0 {
		patientID = 0
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), patientID, pg)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Address{}
	}
	return pagination.NewResponse(items, total, pg), nil
}

func (h *Handler) Get(c echo.Context) (any, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (h *Handler) Update(c echo.Context) (any, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	a, err := h.svc.Update(c.Request().Context(), id, pipeline.Body(c))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (h *Handler) Delete(c echo.Context) (any, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return map[string]any{"id": id}, nil
}
