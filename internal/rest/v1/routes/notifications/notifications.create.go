package notifications

import (
	"time"

	"github.com/hirebridge/api/internal/data/model"
	"github.com/hirebridge/api/internal/data/mutate"
	"github.com/hirebridge/api/internal/global"
	"github.com/hirebridge/api/internal/rest/rest"
	"github.com/hirebridge/api/internal/rest/v1/middleware"
	"github.com/seventv/common/errors"
	"github.com/seventv/common/utils"
)

type createRoute struct {
	Ctx global.Context

	producers utils.Set[string]
}

func NewCreate(gctx global.Context) rest.Route {
	producers := utils.Set[string]{}
	producers.Fill(gctx.Config().Credentials.Producers...)

	return &createRoute{gctx, producers}
}

func (r *createRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/notifications",
		Method: rest.POST,
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx),
			middleware.RateLimit(r.Ctx, "notifications", 30, time.Minute),
		},
	}
}

type createBody struct {
	UserID  string                 `json:"user_id"`
	Kind    model.NotificationKind `json:"kind"`
	Title   string                 `json:"title"`
	Content string                 `json:"content"`
	Link    string                 `json:"link,omitempty"`
}

type CreateResponse struct {
	Notification model.Notification `json:"notification"`
	Delivered    bool               `json:"delivered"`
}

// @Summary Create Notification
// @Description Persist a notification and push it to its owner when online.
// @Description Only configured producers may notify users other than themselves.
// @Tags notifications
// @Security Bearer
// @Accept json
// @Produce json
// @Success 201 {object} CreateResponse
// @Failure 403 {object} rest.APIErrorResponse
// @Router /notifications [post]
func (r *createRoute) Handler(ctx *rest.Ctx) rest.APIError {
	var body createBody
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	actor, _ := ctx.GetActor()

	n, delivered, err := r.Ctx.Inst().Mutate.CreateNotification(ctx, mutate.CreateNotificationOptions{
		Actor:    actor,
		Producer: r.producers.Has(actor),
		UserID:   body.UserID,
		Kind:     body.Kind,
		Title:    body.Title,
		Content:  body.Content,
		Link:     body.Link,
	})
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.Created, &CreateResponse{
		Notification: n,
		Delivered:    delivered,
	})
}
