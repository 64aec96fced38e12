package rest

import (
	"github.com/fasthttp/router"
	"github.com/seventv/common/errors"
)

type Route interface {
	Config() RouteConfig
	Handler(ctx *Ctx) APIError
}

type Router = router.Router

type APIError = errors.APIError

type RouteConfig struct {
	URI        string
	Method     RouteMethod
	Children   []Route
	Middleware []Middleware
}

type RouteMethod string

const (
	GET     RouteMethod = "GET"
	POST    RouteMethod = "POST"
	PUT     RouteMethod = "PUT"
	PATCH   RouteMethod = "PATCH"
	DELETE  RouteMethod = "DELETE"
	OPTIONS RouteMethod = "OPTIONS"
)

type Middleware = func(ctx *Ctx) APIError

type APIErrorResponse struct {
	StatusCode HttpStatusCode `json:"status_code"`
	Status     string         `json:"status"`
	Error      string         `json:"error"`
	ErrorCode  int            `json:"error_code"`
	Details    errors.Fields  `json:"details,omitempty"`
}

type HttpStatusCode int

const (
	OK        HttpStatusCode = 200
	Created   HttpStatusCode = 201
	NoContent HttpStatusCode = 204

	BadRequest       HttpStatusCode = 400
	Unauthorized     HttpStatusCode = 401
	Forbidden        HttpStatusCode = 403
	NotFound         HttpStatusCode = 404
	MethodNotAllowed HttpStatusCode = 405
	TooManyRequests  HttpStatusCode = 429

	InternalServerError HttpStatusCode = 500
	ServiceUnavailable  HttpStatusCode = 503
)

func (c HttpStatusCode) String() string {
	return codeTextMap[c]
}

var codeTextMap = map[HttpStatusCode]string{
	OK:                  "OK",
	Created:             "Created",
	NoContent:           "No Content",
	BadRequest:          "Bad Request",
	Unauthorized:        "Unauthorized",
	Forbidden:           "Forbidden",
	NotFound:            "Not Found",
	MethodNotAllowed:    "Method Not Allowed",
	TooManyRequests:     "Too Many Requests",
	InternalServerError: "Internal Server Error",
	ServiceUnavailable:  "Service Unavailable",
}
