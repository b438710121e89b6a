package domain

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const publicModeDocID = "public_mode_config"

// SettingsRepository persists the set of groups with public mode enabled.
type SettingsRepository interface {
	PublicChats(ctx context.Context) ([]int64, error)
	EnablePublic(ctx context.Context, chatID int64) error
	DisablePublic(ctx context.Context, chatID int64) error
}

type publicModeDoc struct {
	ID           string  `bson:"_id"`
	EnabledChats []int64 `bson:"enabled_chats"`
}

type MongoSettingsRepository struct {
	collection *mongo.Collection
}

func NewMongoSettingsRepository(collection *mongo.Collection) *MongoSettingsRepository {
	return &MongoSettingsRepository{collection: collection}
}

func (r *MongoSettingsRepository) PublicChats(ctx context.Context) ([]int64, error) {
	var doc publicModeDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": publicModeDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.EnabledChats, nil
}

func (r *MongoSettingsRepository) EnablePublic(ctx context.Context, chatID int64) error {
	update := bson.M{"$addToSet": bson.M{"enabled_chats": chatID}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": publicModeDocID}, update, options.Update().SetUpsert(true))
	return err
}

func (r *MongoSettingsRepository) DisablePublic(ctx context.Context, chatID int64) error {
	update := bson.M{"$pull": bson.M{"enabled_chats": chatID}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": publicModeDocID}, update)
	return err
}
