package rest

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/seventv/common/errors"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Ctx struct {
	*fasthttp.RequestCtx
}

func (c *Ctx) JSON(status HttpStatusCode, v interface{}) APIError {
	b, err := json.Marshal(v)
	if err != nil {
		c.SetStatusCode(InternalServerError)
		return errors.ErrInternalServerError().
			SetDetail("JSON Parsing Failed").
			SetFields(errors.Fields{"JSON_ERROR": err.Error()})
	}

	c.SetStatusCode(status)
	c.SetContentType("application/json")
	c.SetBody(b)

	return nil
}

// Bind decodes the JSON request body into v.
func (c *Ctx) Bind(v interface{}) APIError {
	body := c.PostBody()
	if len(body) == 0 {
		return errors.ErrInvalidRequest().SetDetail("Empty Body")
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.ErrInvalidRequest().SetDetail("Malformed JSON").SetFields(errors.Fields{
			"JSON_ERROR": err.Error(),
		})
	}

	return nil
}

func (c *Ctx) SetStatusCode(code HttpStatusCode) {
	c.RequestCtx.SetStatusCode(int(code))
}

func (c *Ctx) StatusCode() HttpStatusCode {
	return HttpStatusCode(c.RequestCtx.Response.StatusCode())
}

// Set the current authenticated user
func (c *Ctx) SetActor(userID string) {
	c.SetUserValue(string(AuthUserKey), userID)
}

// Get the current authenticated user
func (c *Ctx) GetActor() (string, bool) {
	return c.UserValue(AuthUserKey).String()
}

// Log returns a logger carrying the request's method, path and actor.
func (c *Ctx) Log() *zap.SugaredLogger {
	l := zap.S().With(
		"method", string(c.Method()),
		"path", string(c.Path()),
	)

	if actor, ok := c.GetActor(); ok {
		l = l.With("actor", actor)
	}

	return l
}
