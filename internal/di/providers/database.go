package providers

import (
	"context"
	"path/filepath"
	"time"

	"github.com/samber/do/v2"

	"github.com/librisapp/libris-server/internal/broker"
	"github.com/librisapp/libris-server/internal/config"
	"github.com/librisapp/libris-server/internal/logger"
	"github.com/librisapp/libris-server/internal/store"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
const shutdownTimeout = 30 * time.Second

// BrokerHandle wraps the broker with its context for lifecycle management.
type BrokerHandle struct {
	*broker.Broker
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *BrokerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Broker.Shutdown(ctx)
	h.cancel()
	return err
}

// ProvideBroker provides the in-process pub/sub broker.
func ProvideBroker(i do.Injector) (*BrokerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	b := broker.New(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go b.Start(ctx)

	log.Info("Broker started")

	return &BrokerHandle{
		Broker: b,
		cancel: cancel,
	}, nil
}

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := filepath.Join(cfg.DataPath, "db")
	db, err := store.New(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}
