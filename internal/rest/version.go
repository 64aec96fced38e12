package rest

import (
	"runtime/debug"

	"github.com/fasthttp/router"
	"github.com/hirebridge/api/internal/global"
	"github.com/hirebridge/api/internal/rest/rest"
	v1 "github.com/hirebridge/api/internal/rest/v1"
	jsoniter "github.com/json-iterator/go"
	"github.com/seventv/common/errors"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Router interface {
	Group(path string) *router.Group
	Handle(method, path string, handler fasthttp.RequestHandler)
}

func (s *HttpServer) V1(gctx global.Context) {
	n := s.mount(v1.API(gctx), s.router)

	zap.S().Infow("rest, v1 mounted",
		"routes", n,
	)
}

func (s *HttpServer) SetupHandlers() {
	s.router.NotFound = func(ctx *fasthttp.RequestCtx) {
		writeError(&rest.Ctx{RequestCtx: ctx}, rest.NotFound, errors.ErrUnknownRoute().SetFields(errors.Fields{
			"message": "The API endpoint requested does not exist",
		}))
	}

	s.router.MethodNotAllowed = func(ctx *fasthttp.RequestCtx) {
		writeError(&rest.Ctx{RequestCtx: ctx}, rest.MethodNotAllowed, errors.ErrUnknownRoute().SetFields(errors.Fields{
			"message": "The API endpoint does not accept this method",
		}))
	}

	s.router.PanicHandler = func(ctx *fasthttp.RequestCtx, i interface{}) {
		rctx := &rest.Ctx{RequestCtx: ctx}

		rctx.Log().Errorw("rest, handler panicked",
			"panic", i,
			"stack", string(debug.Stack()),
		)

		writeError(rctx, rest.InternalServerError, errors.ErrInternalServerError().SetDetail("%v", i))
	}
}

// mount registers a route under its parent and recurses into its children,
// returning the number of handlers registered.
func (s *HttpServer) mount(r rest.Route, parent Router) int {
	c := r.Config()

	parent.Handle(string(c.Method), c.URI, chain(r, c.Middleware))

	zap.S().Debugw("rest, route registered",
		"method", c.Method,
		"uri", c.URI,
		"middleware", len(c.Middleware),
		"children", len(c.Children),
	)

	n := 1

	if len(c.Children) > 0 {
		group := parent.Group(c.URI)
		for _, child := range c.Children {
			n += s.mount(child, group)
		}
	}

	return n
}

// chain runs a route's middleware in order and then its handler, stopping
// at the first error.
func chain(r rest.Route, middleware []rest.Middleware) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		rctx := &rest.Ctx{RequestCtx: ctx}

		for _, mw := range middleware {
			if err := mw(rctx); err != nil {
				fail(rctx, err)
				return
			}
		}

		if err := r.Handler(rctx); err != nil {
			fail(rctx, err)
		}
	}
}

func fail(rctx *rest.Ctx, err rest.APIError) {
	status := rctx.StatusCode()
	if status < 400 {
		status = rest.HttpStatusCode(err.ExpectedHTTPStatus())
	}

	l := rctx.Log().With(
		"status", status,
		"error_code", err.Code(),
	)

	switch {
	case status >= 500:
		l.Errorw("rest, request failed",
			"error", err,
		)
	case status == rest.Forbidden:
		l.Warnw("rest, request forbidden",
			"error", err.Message(),
		)
	}

	writeError(rctx, status, err)
}

func writeError(rctx *rest.Ctx, status rest.HttpStatusCode, err rest.APIError) {
	b, _ := json.Marshal(&rest.APIErrorResponse{
		Status:     status.String(),
		StatusCode: status,
		Error:      err.Message(),
		ErrorCode:  err.Code(),
		Details:    err.GetFields(),
	})

	rctx.SetStatusCode(status)
	rctx.SetContentType("application/json")
	rctx.SetBody(b)
}
