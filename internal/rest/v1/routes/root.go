package routes

import (
	"time"

	"github.com/hirebridge/api/internal/global"
	"github.com/hirebridge/api/internal/rest/rest"
	"github.com/hirebridge/api/internal/rest/v1/routes/messages"
	"github.com/hirebridge/api/internal/rest/v1/routes/notifications"
	"github.com/hirebridge/api/internal/rest/v1/routes/presences"
)

type Route struct {
	Ctx     global.Context
	started time.Time
}

func New(gctx global.Context) rest.Route {
	return &Route{gctx, time.Now()}
}

func (r *Route) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/v1",
		Method: rest.GET,
		Children: []rest.Route{
			messages.New(r.Ctx),
			notifications.New(r.Ctx),
			notifications.NewCreate(r.Ctx),
			presences.New(r.Ctx),
		},
	}
}

func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	return ctx.JSON(rest.OK, &Response{
		Online:  true,
		Uptime:  int64(time.Since(r.started) / time.Second),
		Clients: r.Ctx.Inst().Presences.Len(),
	})
}

type Response struct {
	Online bool `json:"online"`
	// seconds since the process started
	Uptime int64 `json:"uptime"`
	// users currently reachable for push delivery
	Clients int `json:"clients"`
}
