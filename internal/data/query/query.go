package query

import (
	"context"

	"github.com/hirebridge/api/internal/data/model"
	"github.com/hirebridge/api/internal/data/store"
	"github.com/hirebridge/api/internal/svc/presences"
	"github.com/seventv/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 250
)

type Query struct {
	store store.Store
}

func New(st store.Store) *Query {
	return &Query{
		store: st,
	}
}

type PageOptions struct {
	Limit  int64
	Before string
}

func (p PageOptions) toList() (store.ListOptions, error) {
	opt := store.ListOptions{Limit: p.Limit}

	switch {
	case opt.Limit <= 0:
		opt.Limit = DefaultPageSize
	case opt.Limit > MaxPageSize:
		opt.Limit = MaxPageSize
	}

	if p.Before != "" {
		id, err := primitive.ObjectIDFromHex(p.Before)
		if err != nil {
			return opt, errors.ErrBadObjectID().SetDetail("before")
		}

		opt.Before = id
	}

	return opt, nil
}

// Conversation returns the messages exchanged between the actor and another user, oldest first.
func (q *Query) Conversation(ctx context.Context, actor, userID string, page PageOptions) ([]model.ChatMessage, error) {
	if !presences.ValidUserID(userID) {
		return nil, errors.ErrUnknownUser()
	}

	opt, err := page.toList()
	if err != nil {
		return nil, err
	}

	result, err := q.store.Conversation(ctx, actor, userID, opt)
	if err != nil {
		return nil, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return result, nil
}

// Notifications returns the actor's notifications, newest first.
func (q *Query) Notifications(ctx context.Context, actor string, page PageOptions) ([]model.Notification, error) {
	opt, err := page.toList()
	if err != nil {
		return nil, err
	}

	result, err := q.store.Notifications(ctx, actor, opt)
	if err != nil {
		return nil, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return result, nil
}
