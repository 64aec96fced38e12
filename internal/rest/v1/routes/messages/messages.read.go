package messages

import (
	"github.com/hirebridge/api/internal/global"
	"github.com/hirebridge/api/internal/rest/rest"
	"github.com/hirebridge/api/internal/rest/v1/middleware"
	"github.com/seventv/common/errors"
)

type readRoute struct {
	Ctx global.Context
}

func newRead(gctx global.Context) rest.Route {
	return &readRoute{gctx}
}

func (r *readRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/read",
		Method: rest.POST,
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx),
		},
	}
}

type ReadResponse struct {
	Updated int64 `json:"updated"`
}

// @Summary Mark Conversation Read
// @Description Mark every message the caller received from a user as read
// @Param userID path string true "ID of the sender"
// @Tags messages
// @Security Bearer
// @Produce json
// @Success 200 {object} ReadResponse
// @Router /messages/{user.id}/read [post]
func (r *readRoute) Handler(ctx *rest.Ctx) rest.APIError {
	actor, _ := ctx.GetActor()

	userID, ok := ctx.UserValue("user.id").String()
	if !ok {
		return errors.ErrUnknownUser()
	}

	n, err := r.Ctx.Inst().Mutate.ReadConversation(ctx, actor, userID)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, &ReadResponse{Updated: n})
}
