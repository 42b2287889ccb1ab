package session

import (
	"context"

	"github.com/matzehuels/authornet/pkg/errors"
)

// Backend names accepted by [Open].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists every supported backend.
var Backends = []string{BackendMemory, BackendFile, BackendSQLite, BackendRedis, BackendMongo}

// Config selects and configures a backend.
type Config struct {
	Backend       string `toml:"backend" validate:"omitempty,oneof=memory file sqlite redis mongo"`
	Dir           string `toml:"dir"`
	SQLitePath    string `toml:"sqlite_path"`
	RedisAddr     string `toml:"redis_addr"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Open builds the store named by cfg.Backend. An empty backend is the
// file store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile, "":
		return NewFileStore(cfg.Dir)
	case BackendSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "sqlite session backend needs a path")
		}
		return NewSQLiteStore(ctx, cfg.SQLitePath)
	case BackendRedis:
		if cfg.RedisAddr == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "redis session backend needs an address")
		}
		return NewRedisStore(ctx, cfg.RedisAddr)
	case BackendMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo session backend needs a URI")
		}
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown session backend %q", cfg.Backend)
	}
}
