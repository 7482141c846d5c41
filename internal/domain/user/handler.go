package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/platform/pipeline"
	"github.com/caretrack/caretrack/pkg/pagination"
)

// Activation responses are HTML because the link lands in a mail client,
// not in the app. They bypass the JSON envelope entirely.
const (
	activatedHTML = `<!DOCTYPE html>
<html>
<head><title>Account activated</title></head>
<body>
<h1>Account activated</h1>
<p>Your account is now active. You can sign in from the app.</p>
</body>
</html>`

	activationInvalidHTML = `<!DOCTYPE html>
<html>
<head><title>Invalid activation link</title></head>
<body>
<h1>Invalid activation link</h1>
<p>This activation link is invalid or has already been used.</p>
</body>
</html>`

	activationFailedHTML = `<!DOCTYPE html>
<html>
<head><title>Activation failed</title></head>
<body>
<h1>Activation failed</h1>
<p>Something went wrong on our side. Please try the link again later.</p>
</body>
</html>`
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the user routes. Middleware passed in loginMW is applied
// to the login route only, which is where the rate limiter goes.
func (h *Handler) Register(e *echo.Echo, loginMW ...echo.MiddlewareFunc) {
	e.POST("/user/login", pipeline.H(h.Login), loginMW...)
	e.GET("/user/activate/:code", pipeline.H(h.Activate))
	e.POST("/user/logout", pipeline.H(h.Logout))
	e.POST("/user/renew", pipeline.H(h.Renew))
	e.POST("/user/update/photo", pipeline.H(h.UpdateOwnPhoto))
	e.POST("/user/:id/update/photo", pipeline.H(h.UpdatePhoto))
	e.POST("/user", pipeline.H(h.Create))
	e.GET("/user", pipeline.H(h.List))
	e.GET("/user/:id", pipeline.H(h.Get))
	e.PUT("/user/:id", pipeline.H(h.Update))
	e.DELETE("/user/:id", pipeline.H(h.Delete))
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, pipeline.Errorf(http.StatusBadRequest, "Invalid id parameter")
	}
	return id, nil
}

func actorID(c echo.Context) (int64, error) {
	actor, ok := pipeline.ActorFromContext(c.Request().Context())
	if !ok {
		return 0, pipeline.NewError(http.StatusUnauthorized, "Authorization header is required")
	}
	return actor.ID, nil
}

func (h *Handler) Login(c echo.Context) (any, error) {
	var payload LoginPayload
	if err := pipeline.BindBody(c, &payload); err != nil {
		return nil, err
	}
	result, err := h.svc.Login(c.Request().Context(), &payload)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return nil, pipeline.NewError(http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, ErrNotActivated):
		return nil, pipeline.NewError(http.StatusForbidden, "Account is not activated")
	case err != nil:
		return nil, err
	}
	return result, nil
}

func (h *Handler) Logout(c echo.Context) (any, error) {
	id, err := actorID(c)
	if err != nil {
		return nil, err
	}
	if err := h.svc.Logout(c.Request().Context(), id); err != nil {
		return nil, err
	}
	return map[string]any{"logged_out": true}, nil
}

func (h *Handler) Renew(c echo.Context) (any, error) {
	id, err := actorID(c)
	if err != nil {
		return nil, err
	}
	result, err := h.svc.Renew(c.Request().Context(), id)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, nil
	case errors.Is(err, ErrNotActivated):
		return nil, pipeline.NewError(http.StatusForbidden, "Account is not activated")
	case err != nil:
		return nil, err
	}
	return result, nil
}

// Activate responds with HTML, not the JSON envelope: the link is opened
// from a mail client. A service fault here still must not leak, so it is
// logged and replaced with a generic page.
func (h *Handler) Activate(c echo.Context) (any, error) {
	code := c.Param("code")
	_, err := h.svc.Activate(c.Request().Context(), code)
	if errors.Is(err, ErrNotFound) {
		return nil, c.HTML(http.StatusNotFound, activationInvalidHTML)
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("account activation failed")
		return nil, c.HTML(http.StatusInternalServerError, activationFailedHTML)
	}
	return nil, c.HTML(http.StatusOK, activatedHTML)
}

func (h *Handler) Create(c echo.Context) (any, error) {
	var payload CreatePayload
	if err := pipeline.BindBody(c, &payload); err != nil {
		return nil, err
	}
	u, err := h.svc.Create(c.Request().Context(), &payload)
	if errors.Is(err, ErrDuplicateEmail) {
		return nil, pipeline.NewError(http.StatusConflict, "Email is already registered")
	}
	if err != nil {
		return nil, err
	}
	return pipeline.Created(u), nil
}

func (h *Handler) List(c echo.Context) (any, error) {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*User{}
	}
	return pagination.NewResponse(items, total, pg), nil
}

func (h *Handler) Get(c echo.Context) (any, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (h *Handler) Update(c echo.Context) (any, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	u, err := h.svc.Update(c.Request().Context(), id, pipeline.Body(c))
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, nil
	case errors.Is(err, ErrDuplicateEmail):
		return nil, pipeline.NewError(http.StatusConflict, "Email is already registered")
	case err != nil:
		return nil, err
	}
	return u, nil
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

func (h *Handler) UpdateOwnPhoto(c echo.Context) (any, error) {
	id, err := actorID(c)
	if err != nil {
		return nil, err
	}
	return h.updatePhoto(c, id)
}

func (h *Handler) UpdatePhoto(c echo.Context) (any, error) {
	id, err := parseID(c)
	if err != nil {
		return nil, err
	}
	return h.updatePhoto(c, id)
}

func (h *Handler) updatePhoto(c echo.Context, id int64) (any, error) {
	fh, ok := pipeline.File(c, "photo")
	if !ok {
		return nil, pipeline.NewError(http.StatusBadRequest, "photo file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	u, err := h.svc.SetPhoto(c.Request().Context(), id, f)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
