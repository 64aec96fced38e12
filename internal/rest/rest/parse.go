package rest

import (
	"strconv"
	"strings"

	"github.com/seventv/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Param struct {
	v interface{}
}

func (c *Ctx) UserValue(key Key) *Param {
	return &Param{c.RequestCtx.UserValue(string(key))}
}

// String returns a string value of the param
func (p *Param) String() (string, bool) {
	s, ok := p.v.(string)
	if !ok || s == "" {
		return "", false
	}

	return s, true
}

// ObjectID parses the param into an Object ID
func (p *Param) ObjectID() (primitive.ObjectID, error) {
	s, _ := p.String()
	if s == "" || !primitive.IsValidObjectID(s) {
		return primitive.NilObjectID, errors.ErrBadObjectID()
	}

	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, errors.ErrBadObjectID().SetDetail(err.Error())
	}

	return oid, nil
}

// QueryInt64 reads an integer query argument, falling back to def when it is absent.
func (c *Ctx) QueryInt64(key string, def int64) (int64, error) {
	s := strings.TrimSpace(string(c.QueryArgs().Peek(key)))
	if s == "" {
		return def, nil
	}

	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.ErrInvalidRequest().SetDetail("%s must be an integer", key)
	}

	return i, nil
}
