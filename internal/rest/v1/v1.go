package v1

import (
	"github.com/hirebridge/api/internal/global"
	"github.com/hirebridge/api/internal/rest/rest"
	"github.com/hirebridge/api/internal/rest/v1/routes"
)

// @title Job Portal Realtime API
// @version 1.0
// @description Messages, notifications and presence for the job portal

// @host localhost:3000
// @BasePath /v1
// @schemes http
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func API(gctx global.Context) rest.Route {
	return routes.New(gctx)
}
