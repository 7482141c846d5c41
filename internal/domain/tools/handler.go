// Package tools serves the static reference data clients need to render
// forms: role tiers, visit statuses and state codes. The route is public
// so login screens can use it before authentication.
package tools

import (
	"github.com/labstack/echo/v4"

	"github.com/caretrack/caretrack/internal/domain/visit"
	"github.com/caretrack/caretrack/internal/platform/pipeline"
)

type Role struct {
	Tier int    `json:"tier"`
	Name string `json:"name"`
}

var states = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "DC", "FL",
	"GA", "HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME",
	"MD", "MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH",
	"NJ", "NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI",
	"SC", "SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/tools", pipeline.H(h.Reference))
}

func (h *Handler) Reference(echo.Context) (any, error) {
	roles := make([]Role, 0, 3)
	for _, t := range []pipeline.Tier{pipeline.TierAdministrator, pipeline.TierManager, pipeline.TierCaregiver} {
		roles = append(roles, Role{Tier: int(t), Name: t.String()})
	}
	return map[string]any{
		"roles":          roles,
		"visit_statuses": visit.Statuses(),
		"states":         states,
	}, nil
}
