package mongo

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"skillmart/internal/config"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	drv driver = mongoDriver{}

	client  *mongo.Client
	db      *mongo.Database
	initErr error
	mu      sync.RWMutex

	initOnce     sync.Once
	shutdownOnce sync.Once
	txnCheckOnce sync.Once
)

// ErrNotInitialized is returned by Shutdown when Init never produced a client.
var ErrNotInitialized = errors.New("mongo client was never initialized")

// ErrShutdown is returned by Shutdown after the first call.
var ErrShutdown = errors.New("mongo client already shut down")

// Init initializes the MongoDB connection (first call wins, thread-safe).
// A failed connection is not retried; later calls return the same error.
func Init(ctx context.Context, cfg config.Config, log *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	initOnce.Do(func() {
		opts := options.Client().
			ApplyURI(cfg.MongoURI).
			SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
			SetConnectTimeout(10 * time.Second).
			SetAppName("skillmart")

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		cli, err := drv.Connect(ctx, opts)
		if err != nil {
			log.Error("failed to connect to mongo", "error", err)
			initErr = err
			return
		}

		if err := drv.Ping(ctx, cli); err != nil {
			log.Error("failed to ping mongo", "error", err)
			_ = drv.Disconnect(ctx, cli)
			initErr = err
			return
		}

		mu.Lock()
		client = cli
		db = cli.Database(cfg.MongoDBName)
		mu.Unlock()

		detectReplicaSet(ctx, cli, log)

		log.Info("successfully connected to mongo", "db", cfg.MongoDBName, "replica_set", IsReplicaSet())
	})

	mu.RLock()
	defer mu.RUnlock()
	return client, db, initErr
}

// detectReplicaSet records whether multi-document transactions are available.
func detectReplicaSet(ctx context.Context, cli *mongo.Client, log *slog.Logger) {
	txnCheckOnce.Do(func() {
		var hello struct {
			SetName string `bson:"setName"`
		}
		err := cli.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
		if err != nil {
			log.Warn("failed to detect deployment topology, assuming standalone", "error", err)
			isReplicaSet.Store(false)
			return
		}
		isReplicaSet.Store(hello.SetName != "")
	})
}

// Client returns the singleton MongoDB client instance.
func Client() *mongo.Client {
	mu.RLock()
	defer mu.RUnlock()
	return client
}

// DB returns the singleton MongoDB database instance.
func DB() *mongo.Database {
	mu.RLock()
	defer mu.RUnlock()
	return db
}

// Shutdown gracefully shuts down the MongoDB connection.
// Only the first call does any work.
func Shutdown(ctx context.Context) error {
	err := ErrShutdown
	shutdownOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()

		if client == nil {
			err = ErrNotInitialized
			return
		}

		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		err = drv.Disconnect(ctx, client)
		client = nil
		db = nil
	})
	return err
}
