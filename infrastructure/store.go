package infrastructure

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/srishtipnt/Parabot/domain/memstore"
)

// Store is an opened backend plus its health check and shutdown.
type Store struct {
	Repositories
	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}

// OpenStore opens the backend named by cfg.StoreDriver. The memory driver
// keeps nothing across restarts and is meant for local runs.
func OpenStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.StoreDriver == "memory" {
		mem := memstore.New()
		noop := func(context.Context) error { return nil }
		return &Store{
			Repositories: Repositories{
				Reminders:     mem.Reminders(),
				TeamReminders: mem.TeamReminders(),
				Pins:          mem.Pins(),
				Contacts:      mem.Contacts(),
				Settings:      mem.Settings(),
				Roster:        mem.Roster(),
			},
			Ping:  noop,
			Close: noop,
		}, nil
	}

	client, err := ConnectMongoDB(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	repos, err := MongoRepositories(ctx, client.Database(cfg.MongoDatabase))
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Store{
		Repositories: repos,
		Ping:         func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		Close:        client.Disconnect,
	}, nil
}
