package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/srishtipnt/Parabot/domain"
)

const (
	remindersCollection     = "reminders"
	teamRemindersCollection = "teamReminders"
	pinsCollection          = "pins"
	contactsCollection      = "contacts"
	settingsCollection      = "settings"
	rosterCollection        = "roster"
)

// Repositories is the full set of stores the bot runs on.
type Repositories struct {
	Reminders     domain.ReminderRepository
	TeamReminders domain.TeamReminderRepository
	Pins          domain.PinRepository
	Contacts      domain.ContactRepository
	Settings      domain.SettingsRepository
	Roster        domain.RosterRepository
}

// ConnectMongoDB connects and pings, so an unreachable server fails startup.
func ConnectMongoDB(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

// MongoRepositories wires the repositories onto db and creates their indexes.
func MongoRepositories(ctx context.Context, db *mongo.Database) (Repositories, error) {
	reminders := domain.NewMongoReminderRepository(db.Collection(remindersCollection))
	teamReminders := domain.NewMongoTeamReminderRepository(db.Collection(teamRemindersCollection))
	roster := domain.NewMongoRosterRepository(db.Collection(rosterCollection))

	for name, ensure := range map[string]func(context.Context) error{
		remindersCollection:     reminders.EnsureIndexes,
		teamRemindersCollection: teamReminders.EnsureIndexes,
		rosterCollection:        roster.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return Repositories{}, fmt.Errorf("indexes for %s: %w", name, err)
		}
	}

	return Repositories{
		Reminders:     reminders,
		TeamReminders: teamReminders,
		Pins:          domain.NewMongoPinRepository(db.Collection(pinsCollection)),
		Contacts:      domain.NewMongoContactRepository(db.Collection(contactsCollection)),
		Settings:      domain.NewMongoSettingsRepository(db.Collection(settingsCollection)),
		Roster:        roster,
	}, nil
}
