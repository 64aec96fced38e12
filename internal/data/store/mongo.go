package store

import (
	"context"
	"time"

	"github.com/hirebridge/api/internal/data/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type MongoOptions struct {
	URI      string
	Username string
	Password string
	DB       string
	Direct   bool
}

type mongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects to MongoDB and ensures the indexes the store queries on.
// The client disconnects once ctx is done.
func NewMongo(ctx context.Context, opt MongoOptions) (Store, error) {
	clientOpts := options.Client().ApplyURI(opt.URI).SetDirect(opt.Direct)
	if opt.Username != "" {
		clientOpts.SetAuth(options.Credential{
			Username: opt.Username,
			Password: opt.Password,
		})
	}

	cctx, cancel := context.WithTimeout(ctx, time.Second*15)
	defer cancel()

	client, err := mongo.Connect(cctx, clientOpts)
	if err != nil {
		return nil, err
	}

	if err = client.Ping(cctx, readpref.Primary()); err != nil {
		dctx, dcancel := context.WithTimeout(context.Background(), time.Second*5)
		defer dcancel()

		if derr := client.Disconnect(dctx); derr != nil {
			zap.S().Debugw("mongo, disconnect after failed ping",
				"error", derr,
			)
		}

		return nil, err
	}

	s := &mongoStore{
		client: client,
		db:     client.Database(opt.DB),
	}

	if err = s.ensureIndexes(cctx); err != nil {
		zap.S().Warnw("mongo, failed to create indexes",
			"error", err,
		)
	}

	zap.S().Infow("mongo, ok",
		"db", opt.DB,
	)

	go func() {
		<-ctx.Done()

		dctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		_ = client.Disconnect(dctx)
	}()

	return s, nil
}

func (s *mongoStore) ensureIndexes(ctx context.Context) error {
	if _, err := s.db.Collection(CollectionNameMessages).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "recipient_id", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "read", Value: 1}}},
	}); err != nil {
		return err
	}

	_, err := s.db.Collection(CollectionNameNotifications).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "_id", Value: -1}},
	})

	return err
}

func (s *mongoStore) InsertMessage(ctx context.Context, msg *model.ChatMessage) error {
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}

	_, err := s.db.Collection(CollectionNameMessages).InsertOne(ctx, msg)

	return err
}

func (s *mongoStore) Conversation(ctx context.Context, a, b string, opt ListOptions) ([]model.ChatMessage, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"sender_id": a, "recipient_id": b},
			bson.M{"sender_id": b, "recipient_id": a},
		},
	}

	if !opt.Before.IsZero() {
		filter["_id"] = bson.M{"$lt": opt.Before}
	}

	// newest page first, then reversed so the caller reads it in order
	findOpts := options.Find().SetSort(bson.M{"_id": -1})
	if opt.Limit > 0 {
		findOpts.SetLimit(opt.Limit)
	}

	cur, err := s.db.Collection(CollectionNameMessages).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}

	result := []model.ChatMessage{}
	if err = cur.All(ctx, &result); err != nil {
		return nil, err
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result, nil
}

func (s *mongoStore) MarkConversationRead(ctx context.Context, recipientID, senderID string) (int64, error) {
	res, err := s.db.Collection(CollectionNameMessages).UpdateMany(ctx, bson.M{
		"sender_id":    senderID,
		"recipient_id": recipientID,
		"read":         false,
	}, bson.M{
		"$set": bson.M{"read": true},
	})
	if err != nil {
		return 0, err
	}

	return res.ModifiedCount, nil
}

func (s *mongoStore) InsertNotification(ctx context.Context, n *model.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}

	_, err := s.db.Collection(CollectionNameNotifications).InsertOne(ctx, n)

	return err
}

func (s *mongoStore) Notification(ctx context.Context, id primitive.ObjectID) (model.Notification, error) {
	n := model.Notification{}

	err := s.db.Collection(CollectionNameNotifications).FindOne(ctx, bson.M{"_id": id}).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return n, ErrNotFound
	}

	return n, err
}

func (s *mongoStore) Notifications(ctx context.Context, userID string, opt ListOptions) ([]model.Notification, error) {
	filter := bson.M{"user_id": userID}
	if !opt.Before.IsZero() {
		filter["_id"] = bson.M{"$lt": opt.Before}
	}

	findOpts := options.Find().SetSort(bson.M{"_id": -1})
	if opt.Limit > 0 {
		findOpts.SetLimit(opt.Limit)
	}

	cur, err := s.db.Collection(CollectionNameNotifications).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}

	result := []model.Notification{}
	if err = cur.All(ctx, &result); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *mongoStore) MarkNotificationRead(ctx context.Context, id primitive.ObjectID) (model.Notification, error) {
	n := model.Notification{}

	err := s.db.Collection(CollectionNameNotifications).FindOneAndUpdate(ctx, bson.M{
		"_id": id,
	}, bson.M{
		"$set": bson.M{"read": true},
	}, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&n)
	if err == mongo.ErrNoDocuments {
		return n, ErrNotFound
	}

	return n, err
}

func (s *mongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}
