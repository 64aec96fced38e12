package mutate

import (
	"context"
	"strings"
	"time"

	"github.com/hirebridge/api/internal/data/model"
	"github.com/hirebridge/api/internal/svc/presences"
	"github.com/seventv/common/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const MaxMessageLength = 4000

type SendMessageOptions struct {
	Actor       string
	RecipientID string
	Content     string
	JobID       *primitive.ObjectID
}

// SendMessage persists a chat message and pushes it to the recipient if they are online.
// The returned bool reports whether the push happened.
func (m *Mutate) SendMessage(ctx context.Context, opt SendMessageOptions) (model.ChatMessage, bool, error) {
	if !presences.ValidUserID(opt.Actor) {
		return model.ChatMessage{}, false, errors.ErrUnauthorized()
	}

	recipient := strings.TrimSpace(opt.RecipientID)
	if !presences.ValidUserID(recipient) {
		return model.ChatMessage{}, false, errors.ErrEmptyField().SetDetail("recipient_id")
	}

	if recipient == opt.Actor {
		return model.ChatMessage{}, false, errors.ErrInvalidRequest().SetDetail("Cannot message yourself")
	}

	content := strings.TrimSpace(opt.Content)
	if content == "" {
		return model.ChatMessage{}, false, errors.ErrEmptyField().SetDetail("content")
	}

	if len(content) > MaxMessageLength {
		return model.ChatMessage{}, false, errors.ErrInvalidRequest().SetDetail("Message exceeds %d characters", MaxMessageLength)
	}

	msg := model.ChatMessage{
		SenderID:    opt.Actor,
		RecipientID: recipient,
		JobID:       opt.JobID,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}

	if err := m.store.InsertMessage(ctx, &msg); err != nil {
		zap.S().Errorw("mongo, failed to insert message",
			"error", err,
		)

		return msg, false, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return msg, m.push(ctx, recipient, msg), nil
}

// ReadConversation marks the messages the actor received from senderID as read.
func (m *Mutate) ReadConversation(ctx context.Context, actor, senderID string) (int64, error) {
	if !presences.ValidUserID(actor) {
		return 0, errors.ErrUnauthorized()
	}

	if !presences.ValidUserID(senderID) {
		return 0, errors.ErrUnknownUser()
	}

	n, err := m.store.MarkConversationRead(ctx, actor, senderID)
	if err != nil {
		return 0, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	return n, nil
}
