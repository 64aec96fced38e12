package store

import (
	"context"
	"sort"
	"sync"

	"github.com/hirebridge/api/internal/data/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryStore struct {
	mx            sync.RWMutex
	messages      []model.ChatMessage
	notifications map[primitive.ObjectID]model.Notification
}

// NewMemory returns a Store kept in process memory, for tests and local development.
func NewMemory() Store {
	return &memoryStore{
		notifications: map[primitive.ObjectID]model.Notification{},
	}
}

func (s *memoryStore) InsertMessage(ctx context.Context, msg *model.ChatMessage) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}

	s.messages = append(s.messages, *msg)

	return nil
}

func (s *memoryStore) Conversation(ctx context.Context, a, b string, opt ListOptions) ([]model.ChatMessage, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	result := []model.ChatMessage{}

	// newest first so the limit keeps the latest page
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if !(m.SenderID == a && m.RecipientID == b) && !(m.SenderID == b && m.RecipientID == a) {
			continue
		}

		if !opt.Before.IsZero() && !lessID(m.ID, opt.Before) {
			continue
		}

		result = append(result, m)
		if opt.Limit > 0 && int64(len(result)) >= opt.Limit {
			break
		}
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result, nil
}

func (s *memoryStore) MarkConversationRead(ctx context.Context, recipientID, senderID string) (int64, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	var n int64

	for i := range s.messages {
		m := &s.messages[i]
		if m.SenderID == senderID && m.RecipientID == recipientID && !m.Read {
			m.Read = true
			n++
		}
	}

	return n, nil
}

func (s *memoryStore) InsertNotification(ctx context.Context, n *model.Notification) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}

	s.notifications[n.ID] = *n

	return nil
}

func (s *memoryStore) Notification(ctx context.Context, id primitive.ObjectID) (model.Notification, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	n, ok := s.notifications[id]
	if !ok {
		return n, ErrNotFound
	}

	return n, nil
}

func (s *memoryStore) Notifications(ctx context.Context, userID string, opt ListOptions) ([]model.Notification, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()

	result := []model.Notification{}

	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}

		if !opt.Before.IsZero() && !lessID(n.ID, opt.Before) {
			continue
		}

		result = append(result, n)
	}

	sort.Slice(result, func(i, j int) bool {
		return lessID(result[j].ID, result[i].ID)
	})

	if opt.Limit > 0 && int64(len(result)) > opt.Limit {
		result = result[:opt.Limit]
	}

	return result, nil
}

func (s *memoryStore) MarkNotificationRead(ctx context.Context, id primitive.ObjectID) (model.Notification, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return n, ErrNotFound
	}

	n.Read = true
	s.notifications[id] = n

	return n, nil
}

func (s *memoryStore) Ping(ctx context.Context) error {
	return nil
}

func lessID(a, b primitive.ObjectID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}

	return false
}
