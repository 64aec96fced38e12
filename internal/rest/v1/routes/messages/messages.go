package messages

import (
	"time"

	"github.com/hirebridge/api/internal/data/model"
	"github.com/hirebridge/api/internal/data/mutate"
	"github.com/hirebridge/api/internal/global"
	"github.com/hirebridge/api/internal/rest/rest"
	"github.com/hirebridge/api/internal/rest/v1/middleware"
	"github.com/seventv/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Route struct {
	Ctx global.Context
}

func New(gctx global.Context) rest.Route {
	return &Route{gctx}
}

func (r *Route) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/messages",
		Method: rest.POST,
		Children: []rest.Route{
			newConversation(r.Ctx),
		},
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx),
			middleware.RateLimit(r.Ctx, "messages", 30, time.Minute),
		},
	}
}

type sendMessageBody struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
	JobID       string `json:"job_id,omitempty"`
}

type SendMessageResponse struct {
	Message model.ChatMessage `json:"message"`
	// whether the recipient was online and the message was pushed to them
	Delivered bool `json:"delivered"`
}

// @Summary Send Message
// @Description Persist a chat message and push it to the recipient when online
// @Tags messages
// @Security Bearer
// @Accept json
// @Produce json
// @Success 201 {object} SendMessageResponse
// @Router /messages [post]
func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	actor, _ := ctx.GetActor()

	var body sendMessageBody
	if err := ctx.Bind(&body); err != nil {
		return err
	}

	var jobID *primitive.ObjectID
	if body.JobID != "" {
		id, err := primitive.ObjectIDFromHex(body.JobID)
		if err != nil {
			return errors.ErrBadObjectID().SetDetail("job_id")
		}

		jobID = &id
	}

	msg, delivered, err := r.Ctx.Inst().Mutate.SendMessage(ctx, mutate.SendMessageOptions{
		Actor:       actor,
		RecipientID: body.RecipientID,
		Content:     body.Content,
		JobID:       jobID,
	})
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.Created, &SendMessageResponse{
		Message:   msg,
		Delivered: delivered,
	})
}
