package model

import (
	"time"

	"github.com/hirebridge/api/internal/events"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatMessage is a direct message between two users, usually a candidate and an employer.
type ChatMessage struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	SenderID    string              `json:"sender_id" bson:"sender_id"`
	RecipientID string              `json:"recipient_id" bson:"recipient_id"`
	JobID       *primitive.ObjectID `json:"job_id,omitempty" bson:"job_id,omitempty"`
	Content     string              `json:"content" bson:"content"`
	Read        bool                `json:"read" bson:"read"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
}

func (ChatMessage) EventKind() events.Kind {
	return events.KindMessage
}

type NotificationKind string

const (
	NotificationKindApplication NotificationKind = "APPLICATION"
	NotificationKindMessage     NotificationKind = "MESSAGE"
	NotificationKindJob         NotificationKind = "JOB"
	NotificationKindSystem      NotificationKind = "SYSTEM"
)

func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationKindApplication, NotificationKindMessage, NotificationKindJob, NotificationKindSystem:
		return true
	}

	return false
}

type Notification struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`
	Kind      NotificationKind   `json:"kind" bson:"kind"`
	Title     string             `json:"title" bson:"title"`
	Content   string             `json:"content" bson:"content"`
	Link      string             `json:"link,omitempty" bson:"link,omitempty"`
	Read      bool               `json:"read" bson:"read"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

func (Notification) EventKind() events.Kind {
	return events.KindNotification
}
