package notifications

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
		URI:    "/{notification.id}/read",
		Method: rest.POST,
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx),
		},
	}
}

// @Summary Mark Notification Read
// @Param notificationID path string true "ID of the notification"
// @Tags notifications
// @Security Bearer
// @Produce json
// @Success 200 {object} model.Notification
// @Router /notifications/{notification.id}/read [post]
func (r *readRoute) Handler(ctx *rest.Ctx) rest.APIError {
	actor, _ := ctx.GetActor()

	id, err := ctx.UserValue("notification.id").ObjectID()
	if err != nil {
		return errors.From(err)
	}

	n, err := r.Ctx.Inst().Mutate.ReadNotification(ctx, actor, id)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, n)
}
