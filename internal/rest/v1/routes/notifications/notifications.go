package notifications

import (
	"github.com/hirebridge/api/internal/data/query"
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
		URI:    "/notifications",
		Method: rest.GET,
		Children: []rest.Route{
			newRead(r.Ctx),
		},
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx),
		},
	}
}

// @Summary List Notifications
// @Description The caller's notifications, newest first
// @Param limit query int false "page size"
// @Param before query string false "only notifications older than this id"
// @Tags notifications
// @Security Bearer
// @Produce json
// @Success 200 {array} model.Notification
// @Router /notifications [get]
func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	actor, _ := ctx.GetActor()

	limit, err := ctx.QueryInt64("limit", query.DefaultPageSize)
	if err != nil {
		return errors.From(err)
	}

	result, err := r.Ctx.Inst().Query.Notifications(ctx, actor, query.PageOptions{
		Limit:  limit,
		Before: string(ctx.QueryArgs().Peek("before")),
	})
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, result)
}
