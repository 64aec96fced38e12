package rest

import (
	"testing"

	"github.com/fasthttp/router"
	"github.com/hirebridge/api/internal/rest/rest"
	"github.com/hirebridge/api/internal/testutil"
	"github.com/seventv/common/errors"
	"github.com/valyala/fasthttp"
)

type stubRoute struct {
	cfg rest.RouteConfig
	err rest.APIError
}

func (r *stubRoute) Config() rest.RouteConfig {
	return r.cfg
}

func (r *stubRoute) Handler(ctx *rest.Ctx) rest.APIError {
	if r.err != nil {
		return r.err
	}

	return ctx.JSON(rest.OK, map[string]string{"uri": r.cfg.URI})
}

func serve(s *HttpServer, method, uri string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)

	s.router.Handler(ctx)

	return ctx
}

func TestMountNestedRoutes(t *testing.T) {
	s := &HttpServer{router: router.New()}
	s.SetupHandlers()

	var order []string

	tree := &stubRoute{cfg: rest.RouteConfig{
		URI:    "/v1",
		Method: rest.GET,
		Children: []rest.Route{
			&stubRoute{cfg: rest.RouteConfig{
				URI:    "/messages",
				Method: rest.POST,
				Children: []rest.Route{
					&stubRoute{cfg: rest.RouteConfig{
						URI:    "/{user.id}",
						Method: rest.GET,
						Children: []rest.Route{
							&stubRoute{cfg: rest.RouteConfig{URI: "/read", Method: rest.POST}},
						},
					}},
				},
			}},
			&stubRoute{
				cfg: rest.RouteConfig{
					URI:    "/guarded",
					Method: rest.GET,
					Middleware: []rest.Middleware{
						func(ctx *rest.Ctx) rest.APIError {
							order = append(order, "first")
							return nil
						},
						func(ctx *rest.Ctx) rest.APIError {
							order = append(order, "second")
							return errors.ErrInsufficientPrivilege()
						},
					},
				},
			},
		},
	}}

	testutil.Assert(t, 5, s.mount(tree, s.router), "routes registered")

	cases := []struct {
		method string
		uri    string
		status int
	}{
		{"GET", "/v1", 200},
		{"POST", "/v1/messages", 200},
		{"GET", "/v1/messages/emp1", 200},
		{"POST", "/v1/messages/emp1/read", 200},
		{"GET", "/v1/messages/emp1/read", 405},
		{"GET", "/v1/unknown", 404},
	}

	for _, c := range cases {
		ctx := serve(s, c.method, c.uri)
		testutil.Assert(t, c.status, ctx.Response.StatusCode(), c.method+" "+c.uri)
	}

	ctx := serve(s, "GET", "/v1/guarded")
	testutil.Assert(t, 403, ctx.Response.StatusCode(), "middleware error status")
	testutil.Assert(t, 2, len(order), "middleware ran in order up to the failure")
	testutil.Assert(t, "second", order[1], "second middleware")

	var body rest.APIErrorResponse
	testutil.IsNil(t, json.Unmarshal(ctx.Response.Body(), &body), "decode error")
	testutil.Assert(t, errors.ErrInsufficientPrivilege().Code(), body.ErrorCode, "error code")
	testutil.Assert(t, "Forbidden", body.Status, "status text")
}

func TestHandlerErrorStatus(t *testing.T) {
	s := &HttpServer{router: router.New()}
	s.SetupHandlers()

	s.mount(&stubRoute{
		cfg: rest.RouteConfig{URI: "/broken", Method: rest.GET},
		err: errors.ErrInternalServerError().SetDetail("store unavailable"),
	}, s.router)

	ctx := serve(s, "GET", "/broken")
	testutil.Assert(t, 500, ctx.Response.StatusCode(), "status")

	var body rest.APIErrorResponse
	testutil.IsNil(t, json.Unmarshal(ctx.Response.Body(), &body), "decode error")
	testutil.Assert(t, "Internal Server Error: store unavailable", body.Error, "message carries the detail")
}
