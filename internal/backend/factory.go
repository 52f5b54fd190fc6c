package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FernandoChao/moneyzen-api/internal/store/memory"
	"github.com/FernandoChao/moneyzen-api/internal/store/mongo"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new store factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case MongoBackend:
		return f.createMongoStore(ctx, config)
	case MemoryBackend:
		return f.createMemoryStore(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createMongoStore(ctx context.Context, config Config) (*BackendResult, error) {
	st, err := mongo.Connect(ctx, config.MongoURI, config.MongoDatabase, config.OpTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
	}

	f.logger.Info("Initialized MongoDB store",
		"database", config.MongoDatabase,
		"op_timeout", config.OpTimeout)

	return &BackendResult{
		Store:   st,
		Cleanup: st.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) (*BackendResult, error) {
	f.logger.Info("Initialized in-memory store")

	return &BackendResult{
		Store:   memory.New(),
		Cleanup: nil, // No cleanup needed for the memory store
	}, nil
}
