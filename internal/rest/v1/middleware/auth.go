package middleware

import (
	"strings"

	"github.com/hirebridge/api/internal/global"
	"github.com/hirebridge/api/internal/rest/rest"
	"github.com/seventv/common/errors"
)

func Auth(gctx global.Context) rest.Middleware {
	return func(ctx *rest.Ctx) rest.APIError {
		// Parse token from header
		h := string(ctx.Request.Header.Peek("Authorization"))
		s := strings.Split(h, "Bearer ")

		if len(s) != 2 || s[1] == "" {
			return errors.ErrUnauthorized().SetFields(errors.Fields{"message": "Bad Authorization Header"})
		}

		userID, err := gctx.Inst().Identity.VerifyToken(s[1])
		if err != nil {
			return errors.ErrUnauthorized().SetFields(errors.Fields{"message": err.Error()})
		}

		ctx.SetActor(userID)

		return nil
	}
}
