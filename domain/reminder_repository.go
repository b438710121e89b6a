package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReminderRepository interface {
	Insert(ctx context.Context, reminder Reminder) (primitive.ObjectID, error)
	FindPending(ctx context.Context, ownerID int64) ([]Reminder, error)
	FindAllPending(ctx context.Context) ([]Reminder, error)
	// Delete removes the row only while it still belongs to ownerID. It
	// reports false when nothing matched.
	Delete(ctx context.Context, id primitive.ObjectID, ownerID int64) (bool, error)
}

type TeamReminderRepository interface {
	Insert(ctx context.Context, reminder TeamReminder) (primitive.ObjectID, error)
	FindPending(ctx context.Context, key TeamKey) ([]TeamReminder, error)
	FindAllPending(ctx context.Context) ([]TeamReminder, error)
	Delete(ctx context.Context, id primitive.ObjectID, setterID int64) (bool, error)
}

var byFireAt = options.Find().SetSort(bson.D{{Key: "fire_at", Value: 1}})

type MongoReminderRepository struct {
	collection *mongo.Collection
}

func NewMongoReminderRepository(collection *mongo.Collection) *MongoReminderRepository {
	return &MongoReminderRepository{collection: collection}
}

func (r *MongoReminderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "fire_at", Value: 1}},
	})
	return err
}

func (r *MongoReminderRepository) Insert(ctx context.Context, reminder Reminder) (primitive.ObjectID, error) {
	if reminder.ID.IsZero() {
		reminder.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, reminder); err != nil {
		return primitive.NilObjectID, err
	}
	return reminder.ID, nil
}

func (r *MongoReminderRepository) FindPending(ctx context.Context, ownerID int64) ([]Reminder, error) {
	return findReminders[Reminder](ctx, r.collection, bson.M{"owner_id": ownerID, "delivered": false})
}

func (r *MongoReminderRepository) FindAllPending(ctx context.Context) ([]Reminder, error) {
	return findReminders[Reminder](ctx, r.collection, bson.M{"delivered": false})
}

func (r *MongoReminderRepository) Delete(ctx context.Context, id primitive.ObjectID, ownerID int64) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

type MongoTeamReminderRepository struct {
	collection *mongo.Collection
}

func NewMongoTeamReminderRepository(collection *mongo.Collection) *MongoTeamReminderRepository {
	return &MongoTeamReminderRepository{collection: collection}
}

func (r *MongoTeamReminderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "setter_id", Value: 1}, {Key: "fire_at", Value: 1}},
	})
	return err
}

func (r *MongoTeamReminderRepository) Insert(ctx context.Context, reminder TeamReminder) (primitive.ObjectID, error) {
	if reminder.ID.IsZero() {
		reminder.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, reminder); err != nil {
		return primitive.NilObjectID, err
	}
	return reminder.ID, nil
}

func (r *MongoTeamReminderRepository) FindPending(ctx context.Context, key TeamKey) ([]TeamReminder, error) {
	filter := bson.M{"chat_id": key.ChatID, "setter_id": key.SetterID, "delivered": false}
	return findReminders[TeamReminder](ctx, r.collection, filter)
}

func (r *MongoTeamReminderRepository) FindAllPending(ctx context.Context) ([]TeamReminder, error) {
	return findReminders[TeamReminder](ctx, r.collection, bson.M{"delivered": false})
}

func (r *MongoTeamReminderRepository) Delete(ctx context.Context, id primitive.ObjectID, setterID int64) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "setter_id": setterID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func findReminders[T any](ctx context.Context, collection *mongo.Collection, filter bson.M) ([]T, error) {
	cursor, err := collection.Find(ctx, filter, byFireAt)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reminders []T
	if err := cursor.All(ctx, &reminders); err != nil {
		return nil, err
	}
	return reminders, nil
}
