package presences

import (
	"github.com/hirebridge/api/internal/global"
	"github.com/hirebridge/api/internal/rest/rest"
	"github.com/hirebridge/api/internal/rest/v1/middleware"
	"github.com/seventv/common/errors"
)

type Route struct {
	Ctx global.Context
}

func New(gctx global.Context) rest.Route {
	return &Route{gctx}
}

func (r *Route) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/presences/{user.id}",
		Method: rest.GET,
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx),
		},
	}
}

type Response struct {
	UserID string `json:"user_id"`
	Online bool   `json:"online"`
}

// @Summary Get Presence
// @Description Whether a user currently has a live realtime connection
// @Param userID path string true "ID of the user"
// @Tags presences
// @Security Bearer
// @Produce json
// @Success 200 {object} Response
// @Router /presences/{user.id} [get]
func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	userID, ok := ctx.UserValue("user.id").String()
	if !ok {
		return errors.ErrUnknownUser()
	}

	return ctx.JSON(rest.OK, &Response{
		UserID: userID,
		Online: r.Ctx.Inst().Presences.Online(userID),
	})
}
