package messages

import (
	"github.com/hirebridge/api/internal/data/query"
	"github.com/hirebridge/api/internal/global"
	"github.com/hirebridge/api/internal/rest/rest"
	"github.com/hirebridge/api/internal/rest/v1/middleware"
	"github.com/seventv/common/errors"
)

type conversationRoute struct {
	Ctx global.Context
}

func newConversation(gctx global.Context) rest.Route {
	return &conversationRoute{gctx}
}

func (r *conversationRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/{user.id}",
		Method: rest.GET,
		Children: []rest.Route{
			newRead(r.Ctx),
		},
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx),
		},
	}
}

// @Summary Get Conversation
// @Description Messages exchanged between the caller and a user, oldest first
// @Param userID path string true "ID of the other user"
// @Param limit query int false "page size"
// @Param before query string false "only messages older than this message id"
// @Tags messages
// @Security Bearer
// @Produce json
// @Success 200 {array} model.ChatMessage
// @Router /messages/{user.id} [get]
func (r *conversationRoute) Handler(ctx *rest.Ctx) rest.APIError {
	actor, _ := ctx.GetActor()

	userID, ok := ctx.UserValue("user.id").String()
	if !ok {
		return errors.ErrUnknownUser()
	}

	limit, err := ctx.QueryInt64("limit", query.DefaultPageSize)
	if err != nil {
		return errors.From(err)
	}

	result, err := r.Ctx.Inst().Query.Conversation(ctx, actor, userID, query.PageOptions{
		Limit:  limit,
		Before: string(ctx.QueryArgs().Peek("before")),
	})
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, result)
}
