package patient

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
	e.POST("/patient", pipeline.H(h.Create))
	e.GET("/patient", pipeline.H(h.List))
	e.GET("/patient/:id", pipeline.H(h.Get))
	e.PUT("/patient/:id", pipeline.H(h.Update))
	e.DELETE("/patient/:id", pipeline.H(h.Delete))
	e.POST("/patient/:id/upload", pipeline.H(h.Upload))
	e.GET("/patient/:id/photo", pipeline.H(h.Photo))
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
	p, err := h.svc.Create(c.Request().Context(), &payload)
	if err != nil {
		return nil, err
	}
	return pipeline.Created(p), nil
}

func (h *Handler) List(c echo.Context) (any, error) {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("q"), pg)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Patient{}
	}
	return pagination.NewResponse(items, total, pg), nil
}

func (h *Handler) Get(c echo.Context) (any, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (h *Handler) Update(c echo.Context) (any, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	p, err := h.svc.Update(c.Request().Context(), id, pipeline.Body(c))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
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

func (h *Handler) Upload(c echo.Context) (any, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	fh, ok := pipeline.File(c, "photo")
	if !ok {
		return nil, pipeline.NewError(http.StatusBadRequest, "photo file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := h.svc.AttachPhoto(c.Request().Context(), id, f)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Photo streams the stored image directly, bypassing the JSON envelope.
func (h *Handler) Photo(c echo.Context) (any, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	f, contentType, err := h.svc.OpenPhoto(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return nil, c.Stream(http.StatusOK, contentType, f)
}
