package mutate

import (
	"context"
	"strings"
	"time"

	"github.com/hirebridge/api/internal/data/model"
	"github.com/hirebridge/api/internal/data/store"
	"github.com/hirebridge/api/internal/events"
	"github.com/hirebridge/api/internal/svc/presences"
	"github.com/seventv/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var ErrUnknownNotification = errors.DefineError(70448, "Unknown Notification", 404)

type CreateNotificationOptions struct {
	// Actor is the authenticated user creating the notification
	Actor string
	// Producer lets the actor notify users other than themselves
	Producer bool

	UserID  string
	Kind    model.NotificationKind
	Title   string
	Content string
	Link    string
}

// CreateNotification persists a notification and pushes it to its owner if they are online.
func (m *Mutate) CreateNotification(ctx context.Context, opt CreateNotificationOptions) (model.Notification, bool, error) {
	userID := strings.TrimSpace(opt.UserID)
	if !presences.ValidUserID(userID) {
		return model.Notification{}, false, errors.ErrEmptyField().SetDetail("user_id")
	}

	if !opt.Producer && userID != opt.Actor {
		return model.Notification{}, false, errors.ErrInsufficientPrivilege().SetDetail("You may only notify yourself")
	}

	if opt.Kind == "" {
		opt.Kind = model.NotificationKindSystem
	}

	if !opt.Kind.Valid() {
		return model.Notification{}, false, errors.ErrInvalidRequest().SetDetail("Unknown notification kind %s", opt.Kind)
	}

	title := strings.TrimSpace(opt.Title)
	if title == "" {
		return model.Notification{}, false, errors.ErrEmptyField().SetDetail("title")
	}

	n := model.Notification{
		UserID:    userID,
		Kind:      opt.Kind,
		Title:     title,
		Content:   strings.TrimSpace(opt.Content),
		Link:      opt.Link,
		CreatedAt: time.Now().UTC(),
	}

	if err := m.store.InsertNotification(ctx, &n); err != nil {
		zap.S().Errorw("mongo, failed to insert notification",
			"error", err,
		)

		return n, false, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return n, m.push(ctx, userID, n), nil
}

// ReadNotification marks one of the actor's notifications as read and pushes the
// updated document so the actor's other sessions can sync.
func (m *Mutate) ReadNotification(ctx context.Context, actor string, id primitive.ObjectID) (model.Notification, error) {
	n, err := m.store.Notification(ctx, id)
	if err == store.ErrNotFound {
		return n, ErrUnknownNotification()
	} else if err != nil {
		return n, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	if n.UserID != actor {
		return model.Notification{}, errors.ErrInsufficientPrivilege().SetDetail("You do not own this notification")
	}

	if n.Read {
		return n, nil
	}

	if n, err = m.store.MarkNotificationRead(ctx, id); err != nil {
		if err == store.ErrNotFound {
			return n, ErrUnknownNotification()
		}

		return n, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	m.push(ctx, actor, n)

	return n, nil
}

// push hands a persisted document to the gateway. Failures are logged, never returned.
func (m *Mutate) push(ctx context.Context, userID string, body events.Body) bool {
	if m.gateway == nil {
		return false
	}

	ok, err := m.gateway.Deliver(ctx, userID, body)
	if err != nil {
		zap.S().Errorw("realtime delivery failed",
			"error", err,
			"kind", body.EventKind(),
			"user_id", userID,
		)

		return false
	}

	return ok
}
