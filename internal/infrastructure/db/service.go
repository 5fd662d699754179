package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/arkade-os/marketd/internal/core/domain"
	"github.com/arkade-os/marketd/internal/core/ports"
	badgerdb "github.com/arkade-os/marketd/internal/infrastructure/db/badger"
	inmemorydb "github.com/arkade-os/marketd/internal/infrastructure/db/inmemory"
	"github.com/arkade-os/marketd/internal/infrastructure/db/kv"
	pgdb "github.com/arkade-os/marketd/internal/infrastructure/db/postgres"
	redisdb "github.com/arkade-os/marketd/internal/infrastructure/db/redis"
	sqlitedb "github.com/arkade-os/marketd/internal/infrastructure/db/sqlite"
	marketerrors "github.com/arkade-os/marketd/pkg/errors"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	log "github.com/sirupsen/logrus"
)

//go:embed sqlite/migration/*
var migrations embed.FS

//go:embed postgres/migration/*
var pgMigration embed.FS

var dataStoreTypes = map[string]func(...interface{}) (kv.Backend, error){
	"inmemory": inmemorydb.NewStore,
	"badger":   badgerdb.NewStore,
	"redis":    redisdb.NewStore,
	"sqlite":   sqlitedb.NewStore,
	"postgres": pgdb.NewStore,
}

const sqliteDbFile = "sqlite.db"

type ServiceConfig struct {
	DataStoreType   string
	DataStoreConfig []interface{}
}

type service struct {
	store      kv.Backend
	eventStore domain.EventRepository
}

func NewService(config ServiceConfig, eventStore domain.EventRepository) (ports.RepoManager, error) {
	if eventStore == nil {
		return nil, fmt.Errorf("missing event store")
	}
	storeFactory, ok := dataStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}

	var store kv.Backend
	var err error

	switch config.DataStoreType {
	case "inmemory", "badger", "redis":
		store, err = storeFactory(config.DataStoreConfig...)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %s", config.DataStoreType, err)
		}

	case "postgres":
		if len(config.DataStoreConfig) != 2 {
			return nil, fmt.Errorf("invalid data store config for postgres")
		}

		dsn, ok := config.DataStoreConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid DSN for postgres")
		}

		autoCreate, ok := config.DataStoreConfig[1].(bool)
		if !ok {
			return nil, fmt.Errorf("invalid autocreate flag for postgres")
		}

		db, err := pgdb.OpenDb(dsn, autoCreate)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres db: %s", err)
		}

		pgDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to init postgres migration driver: %s", err)
		}

		source, err := iofs.New(pgMigration, "postgres/migration")
		if err != nil {
			return nil, fmt.Errorf("failed to embed postgres migrations: %s", err)
		}

		m, err := migrate.NewWithInstance("iofs", source, "postgres", pgDriver)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres migration instance: %s", err)
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, fmt.Errorf("failed to run postgres migrations: %s", err)
		}

		store, err = storeFactory(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %s", err)
		}

	case "sqlite":
		if len(config.DataStoreConfig) != 1 {
			return nil, fmt.Errorf("invalid data store config")
		}

		baseDir, ok := config.DataStoreConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}

		dbFile := filepath.Join(baseDir, sqliteDbFile)
		db, err := sqlitedb.OpenDb(dbFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %s", err)
		}

		driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to init driver: %s", err)
		}

		source, err := iofs.New(migrations, "sqlite/migration")
		if err != nil {
			return nil, fmt.Errorf("failed to embed migrations: %s", err)
		}

		m, err := migrate.NewWithInstance("iofs", source, "marketdb", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migration instance: %s", err)
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, fmt.Errorf("failed to run migrations: %s", err)
		}

		store, err = storeFactory(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %s", err)
		}
	}

	return &service{store, eventStore}, nil
}

func (s *service) Atomic(
	ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error,
) error {
	var events []domain.Event

	err := s.store.Update(ctx, func(txn kv.Txn) error {
		t := newTx(txn)
		if err := fn(ctx, t); err != nil {
			return err
		}
		events = t.events
		return nil
	})
	if err != nil {
		if errors.Is(err, kv.ErrConflict) {
			return marketerrors.CONCURRENT_MODIFICATION.Wrap(err)
		}
		return err
	}

	s.publish(ctx, events)
	return nil
}

func (s *service) View(
	ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error,
) error {
	return s.store.View(ctx, func(txn kv.Txn) error {
		return fn(ctx, newTx(txn))
	})
}

func (s *service) Events() domain.EventRepository {
	return s.eventStore
}

func (s *service) Close() {
	if err := s.store.Close(); err != nil {
		log.WithError(err).Warn("failed to close record store")
	}
	s.eventStore.Close()
}

// publish forwards committed events. A failure here cannot undo the commit so
// it is only logged.
func (s *service) publish(ctx context.Context, events []domain.Event) {
	for _, event := range events {
		if err := s.eventStore.Save(ctx, event.GetTopic(), event); err != nil {
			log.WithError(err).WithField("type", event.GetType()).Warn("failed to publish event")
		}
	}
}

type tx struct {
	txn    kv.Txn
	events []domain.Event
}

func newTx(txn kv.Txn) *tx {
	return &tx{txn: txn}
}

func (t *tx) Assets() domain.AssetRepository {
	return kv.NewAssetRepository(t.txn)
}

func (t *tx) Auctions() domain.AuctionRepository {
	return kv.NewAuctionRepository(t.txn)
}

func (t *tx) Attestations() domain.AttestationRepository {
	return kv.NewAttestationRepository(t.txn)
}

func (t *tx) Channels() domain.ChannelConfigRepository {
	return kv.NewChannelConfigRepository(t.txn)
}

func (t *tx) Tokens() ports.TokenLedger {
	return kv.NewTokenLedger(t.txn)
}

func (t *tx) Emit(events ...domain.Event) {
	t.events = append(t.events, events...)
}
