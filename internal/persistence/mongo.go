package persistence

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/spec-kit/docs-hub/internal/config"
)

// MongoConnectHook runs against every freshly established connection before it is
// handed out. A hook error fails the attempt and the next caller reconnects.
type MongoConnectHook func(ctx context.Context, db *mongo.Database) error

// Mongo hands out collections from a client that connects on first use.
type Mongo struct {
	cfg    config.MongoConfig
	logger *zap.Logger
	hooks  []MongoConnectHook
	dial   func(ctx context.Context) (*mongo.Database, error)
	handle *lazyHandle[*mongo.Database]
}

// NewMongo prepares a lazily connected document store. No network I/O happens here.
func NewMongo(cfg config.MongoConfig, logger *zap.Logger, hooks ...MongoConnectHook) *Mongo {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Mongo{cfg: cfg, logger: logger, hooks: hooks}
	m.dial = m.dialServer
	m.handle = newLazyHandle(m.connect)
	return m
}

func (m *Mongo) connect(ctx context.Context) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout())
	defer cancel()

	db, err := m.dial(ctx)
	if err != nil {
		return nil, err
	}
	for _, hook := range m.hooks {
		if err := hook(ctx, db); err != nil {
			_ = db.Client().Disconnect(context.Background())
			m.logger.Warn("mongo connect hook failed", zap.Error(err))
			return nil, fmt.Errorf("prepare mongo: %w", err)
		}
	}

	m.logger.Info("connected to mongo", zap.String("database", m.cfg.Database))
	return db, nil
}

func (m *Mongo) dialServer(ctx context.Context) (*mongo.Database, error) {
	if m.cfg.URI == "" {
		return nil, errors.New("MONGODB_URI not configured")
	}

	opts := options.Client().ApplyURI(m.cfg.URI).SetConnectTimeout(m.cfg.ConnectTimeout())
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		m.logger.Warn("mongo ping failed", zap.Error(err))
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client.Database(m.cfg.Database), nil
}

// Database returns the configured database, connecting if needed.
func (m *Mongo) Database(ctx context.Context) (*mongo.Database, error) {
	return m.handle.get(ctx)
}

// Collection implements repository.CollectionProvider.
func (m *Mongo) Collection(ctx context.Context, name string) (*mongo.Collection, error) {
	db, err := m.Database(ctx)
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

// Ping verifies connectivity, establishing the connection when necessary.
func (m *Mongo) Ping(ctx context.Context) error {
	db, err := m.Database(ctx)
	if err != nil {
		return err
	}
	return db.Client().Ping(ctx, readpref.Primary())
}

// Close disconnects the client if one was established.
func (m *Mongo) Close(ctx context.Context) error {
	if m == nil {
		return nil
	}
	db, ok := m.handle.reset()
	if !ok {
		return nil
	}
	return db.Client().Disconnect(ctx)
}
