package domain

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Pin is a message saved to a user's pin board. SenderID is zero when the
// sender was only given by name (SenderLabel).
type Pin struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	PinnerID     int64              `bson:"pinner_id"`
	Text         string             `bson:"text"`
	SenderID     int64              `bson:"sender_id,omitempty"`
	SenderLabel  string             `bson:"sender_label,omitempty"`
	OriginChatID int64              `bson:"origin_chat_id"`
	PinnedAt     time.Time          `bson:"pinned_at"`
}

// Contact is the name a user knows another user by.
type Contact struct {
	OwnerID   int64  `bson:"owner_id"`
	ContactID int64  `bson:"contact_id"`
	Name      string `bson:"name"`
}

type PinRepository interface {
	Insert(ctx context.Context, pin Pin) (primitive.ObjectID, error)
	// Find returns the pinner's pins, newest first. A non-zero originChatID
	// restricts the result to pins taken in that chat.
	Find(ctx context.Context, pinnerID, originChatID int64) ([]Pin, error)
	Delete(ctx context.Context, id primitive.ObjectID, pinnerID int64) (bool, error)
}

type ContactRepository interface {
	Find(ctx context.Context, ownerID, contactID int64) (*Contact, error)
	Save(ctx context.Context, contact Contact) error
}

type MongoPinRepository struct {
	collection *mongo.Collection
}

func NewMongoPinRepository(collection *mongo.Collection) *MongoPinRepository {
	return &MongoPinRepository{collection: collection}
}

func (r *MongoPinRepository) Insert(ctx context.Context, pin Pin) (primitive.ObjectID, error) {
	if pin.ID.IsZero() {
		pin.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, pin); err != nil {
		return primitive.NilObjectID, err
	}
	return pin.ID, nil
}

func (r *MongoPinRepository) Find(ctx context.Context, pinnerID, originChatID int64) ([]Pin, error) {
	filter := bson.M{"pinner_id": pinnerID}
	if originChatID != 0 {
		filter["origin_chat_id"] = originChatID
	}
	opts := options.Find().SetSort(bson.D{{Key: "pinned_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var pins []Pin
	if err := cursor.All(ctx, &pins); err != nil {
		return nil, err
	}
	return pins, nil
}

func (r *MongoPinRepository) Delete(ctx context.Context, id primitive.ObjectID, pinnerID int64) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "pinner_id": pinnerID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

type MongoContactRepository struct {
	collection *mongo.Collection
}

func NewMongoContactRepository(collection *mongo.Collection) *MongoContactRepository {
	return &MongoContactRepository{collection: collection}
}

// Find returns nil, nil when the contact is unknown.
func (r *MongoContactRepository) Find(ctx context.Context, ownerID, contactID int64) (*Contact, error) {
	var c Contact
	err := r.collection.FindOne(ctx, bson.M{"owner_id": ownerID, "contact_id": contactID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *MongoContactRepository) Save(ctx context.Context, contact Contact) error {
	filter := bson.M{"owner_id": contact.OwnerID, "contact_id": contact.ContactID}
	update := bson.M{"$set": contact}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
