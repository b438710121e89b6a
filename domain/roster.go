package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Member is a user known to be in a group.
type Member struct {
	ChatID   int64     `bson:"chat_id"`
	UserID   int64     `bson:"user_id"`
	Name     string    `bson:"name"`
	Username string    `bson:"username,omitempty"`
	SeenAt   time.Time `bson:"seen_at"`
}

// RosterRepository tracks group membership as observed by the bot, since the
// Bot API cannot list the members of a group.
type RosterRepository interface {
	Upsert(ctx context.Context, member Member) error
	Remove(ctx context.Context, chatID, userID int64) error
	Members(ctx context.Context, chatID int64) ([]Member, error)
}

type MongoRosterRepository struct {
	collection *mongo.Collection
}

func NewMongoRosterRepository(collection *mongo.Collection) *MongoRosterRepository {
	return &MongoRosterRepository{collection: collection}
}

func (r *MongoRosterRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MongoRosterRepository) Upsert(ctx context.Context, member Member) error {
	filter := bson.M{"chat_id": member.ChatID, "user_id": member.UserID}
	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": member}, options.Update().SetUpsert(true))
	return err
}

func (r *MongoRosterRepository) Remove(ctx context.Context, chatID, userID int64) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"chat_id": chatID, "user_id": userID})
	return err
}

func (r *MongoRosterRepository) Members(ctx context.Context, chatID int64) ([]Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "user_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"chat_id": chatID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []Member
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}
