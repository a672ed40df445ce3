package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/dalessandro07/bancopoly/internal/dependencies/clock"
	"github.com/dalessandro07/bancopoly/internal/dependencies/random"
	"github.com/dalessandro07/bancopoly/internal/events"
	"github.com/dalessandro07/bancopoly/internal/events/membus"
	"github.com/dalessandro07/bancopoly/internal/events/redisbus"
	"github.com/dalessandro07/bancopoly/internal/ledger"
	"github.com/dalessandro07/bancopoly/internal/services/auth"
	"github.com/dalessandro07/bancopoly/internal/storage"
	"github.com/dalessandro07/bancopoly/internal/storage/memory"
	redisstorage "github.com/dalessandro07/bancopoly/internal/storage/redis"
	"github.com/dalessandro07/bancopoly/internal/web/sse"
)

// Backend type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"

	BusTypeMemory = "memory"
	BusTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Store storage.Store

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Event transport
	Bus    events.Bus
	Bridge *sse.Bridge

	// Services
	AuthService *auth.Service
	Engine      *ledger.Engine
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// BusType selects the event transport ("memory" or "redis")
	// If empty, defaults to "memory"
	BusType string
	// RedisConfig holds Redis connection settings
	// Required if StorageType or BusType is "redis"
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Store
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create the event bus based on type
	var bus events.Bus
	busType := cfg.BusType
	if busType == "" {
		busType = BusTypeMemory
	}

	switch busType {
	case BusTypeMemory:
		bus = membus.New(logger)
	case BusTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when BusType is redis")
		}
		redisBus, err := redisbus.New(cfg.RedisConfig.URL, logger)
		if err != nil {
			return nil, err
		}
		bus = redisBus
	default:
		return nil, errors.New("invalid BusType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	return newWithDependencies(store, bus, clk, rnd, authCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Store, bus events.Bus, clk clock.Clock, rnd random.Random, authCfg auth.Config, logger *slog.Logger) *App {
	authService := auth.New(clk, authCfg)
	engine := ledger.New(store, bus, clk, rnd, logger)
	bridge := sse.NewBridge(bus, logger)

	return &App{
		Store:       store,
		Clock:       clk,
		Random:      rnd,
		Bus:         bus,
		Bridge:      bridge,
		AuthService: authService,
		Engine:      engine,
	}
}
