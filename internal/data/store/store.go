package store

import (
	"context"
	"errors"

	"github.com/hirebridge/api/internal/data/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotFound = errors.New("store: document not found")

const (
	CollectionNameMessages      = "messages"
	CollectionNameNotifications = "notifications"
)

type ListOptions struct {
	// Limit caps the number of documents, zero means no cap
	Limit int64
	// Before only returns documents created before this id
	Before primitive.ObjectID
}

// Store is the durable source of truth for messages and notifications.
type Store interface {
	InsertMessage(ctx context.Context, msg *model.ChatMessage) error
	// Conversation lists the messages exchanged between a and b, oldest first
	Conversation(ctx context.Context, a, b string, opt ListOptions) ([]model.ChatMessage, error)
	// MarkConversationRead marks every unread message from sender to recipient as read
	MarkConversationRead(ctx context.Context, recipientID, senderID string) (int64, error)

	InsertNotification(ctx context.Context, n *model.Notification) error
	Notification(ctx context.Context, id primitive.ObjectID) (model.Notification, error)
	// Notifications lists a user's notifications, newest first
	Notifications(ctx context.Context, userID string, opt ListOptions) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id primitive.ObjectID) (model.Notification, error)

	Ping(ctx context.Context) error
}
