package store

import (
	"context"
	"fmt"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Driver      string
	FilePath    string
	PostgresDSN string
	Redis       RedisOptions
}

// Open builds the backend named by opts.Driver and wraps it in a Store.
func Open(ctx context.Context, opts Options) (*Store, error) {
	var (
		backend Backend
		err     error
	)
	switch opts.Driver {
	case "", DriverMemory:
		backend = NewMemoryBackend()
	case DriverFile:
		backend, err = NewFileBackend(opts.FilePath)
	case DriverPostgres:
		backend, err = OpenPostgres(ctx, opts.PostgresDSN)
	case DriverRedis:
		backend, err = OpenRedis(ctx, opts.Redis)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	return New(backend), nil
}
