// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/branchhub/internal/app/store/branches"
	"github.com/dalemusser/branchhub/internal/app/store/branchreports"
	userstore "github.com/dalemusser/branchhub/internal/app/store/users"
	"github.com/dalemusser/branchhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetAppName("branchhub")
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", appCfg.MongoMaxPoolSize))

	return DBDeps{
		BranchHubMongoClient:   client,
		BranchHubMongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes every store relies on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.BranchHubMongoDatabase
	for _, ix := range []struct {
		name   string
		ensure func(context.Context) error
	}{
		{userstore.Collection, userstore.New(db).EnsureIndexes},
		{branches.Collection, branches.New(db).EnsureIndexes},
		{branchreports.Collection, branchreports.New(db).EnsureIndexes},
	} {
		if err := ix.ensure(ctx); err != nil {
			logger.Error("ensure indexes failed", zap.String("collection", ix.name), zap.Error(err))
			return fmt.Errorf("ensure %s indexes: %w", ix.name, err)
		}
	}
	logger.Info("schema ready")
	return nil
}
