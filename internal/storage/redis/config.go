package redis

// Config holds Redis connection settings for the store
type Config struct {
	// URL is the Redis connection URL (redis://host:port/db)
	URL string
	// PoolSize is the maximum number of connections
	PoolSize int
	// MinIdleConns is the minimum number of idle connections kept open
	MinIdleConns int
	// TransferRetries bounds the optimistic retries of ApplyTransfer when
	// a concurrent write invalidates the watched balances
	TransferRetries int
}

// DefaultConfig returns sensible defaults for Redis storage
func DefaultConfig() Config {
	return Config{
		URL:             "redis://localhost:6379/0",
		PoolSize:        10,
		MinIdleConns:    2,
		TransferRetries: 8,
	}
}
