// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package hierarchy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/clutterbug/clutterbug/services/catalog/storage/badgerdb"
)

// Key layout for hierarchy state inside the catalog database.
const (
	configPrefix = "hierarchy/config/"
	activeKey    = "hierarchy/active"
)

// conflictRetries bounds optimistic-transaction retries. EnsureDefaults
// and Activate must be safe to call concurrently; Badger aborts one of
// two conflicting transactions, so the loser simply re-reads and retries.
const conflictRetries = 5

// LevelUsageFunc reports the deepest container level currently in use.
// Returns 0 when no containers exist.
//
// The tree store provides this; it is injected rather than imported to
// keep the dependency direction tree -> hierarchy.
type LevelUsageFunc func(ctx context.Context) (int, error)

// Store provides durable CRUD over hierarchy configurations.
//
// Thread Safety: safe for concurrent use. Multi-key updates (seeding,
// activation) run inside a single Badger transaction so readers never
// observe zero or two active configurations.
type Store struct {
	db     *badgerdb.DB
	logger *slog.Logger
	usage  LevelUsageFunc
}

// NewStore creates a hierarchy store on the given database.
//
// Inputs:
//
//	db - The catalog database. Must not be nil.
//	logger - Optional logger; nil falls back to slog.Default().
func NewStore(db *badgerdb.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// SetLevelUsage installs the deepest-level-in-use callback consulted by
// Activate. Without it, activation skips the depth check.
func (s *Store) SetLevelUsage(fn LevelUsageFunc) {
	s.usage = fn
}

func configKey(id string) []byte {
	return []byte(configPrefix + id)
}

func encodeConfig(cfg *Configuration) ([]byte, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode configuration %s: %w", cfg.ID, err)
	}
	return data, nil
}

func decodeConfig(data []byte) (*Configuration, error) {
	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	return &cfg, nil
}

// retryConflict runs fn, retrying a bounded number of times when Badger
// reports an optimistic-concurrency conflict.
func (s *Store) retryConflict(fn func() error) error {
	var err error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		err = fn()
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// EnsureDefaults is the idempotent bootstrap for hierarchy state.
//
// Description:
//
//	If no configuration exists, seeds the five built-in presets and
//	activates the Workshop preset. If configurations exist but none is
//	active, activates the first default preset (or, failing that, the
//	oldest configuration). Safe to call repeatedly and concurrently;
//	partial state is never exposed because all writes share one
//	transaction.
func (s *Store) EnsureDefaults(ctx context.Context) error {
	return s.retryConflict(func() error {
		return s.db.Update(ctx, func(txn *badger.Txn) error {
			configs, err := listTxn(txn)
			if err != nil {
				return err
			}

			if len(configs) == 0 {
				presets := Presets(time.Now().UTC())
				var activeID string
				for i := range presets {
					if presets[i].Name == PresetWorkshop {
						presets[i].IsActive = true
						activeID = presets[i].ID
					}
					data, err := encodeConfig(&presets[i])
					if err != nil {
						return err
					}
					if err := txn.Set(configKey(presets[i].ID), data); err != nil {
						return fmt.Errorf("seed preset %s: %w", presets[i].Name, err)
					}
				}
				if err := txn.Set([]byte(activeKey), []byte(activeID)); err != nil {
					return fmt.Errorf("set active pointer: %w", err)
				}
				s.logger.Info("seeded built-in hierarchy presets", "count", len(presets), "active", PresetWorkshop)
				return nil
			}

			for _, cfg := range configs {
				if cfg.IsActive {
					return nil // already bootstrapped
				}
			}

			// Configurations exist but none is active: prefer a default
			// preset, else the oldest configuration.
			sort.Slice(configs, func(i, j int) bool {
				return configs[i].CreatedAt.Before(configs[j].CreatedAt)
			})
			chosen := configs[0]
			for _, cfg := range configs {
				if cfg.IsDefault {
					chosen = cfg
					break
				}
			}
			chosen.IsActive = true
			data, err := encodeConfig(chosen)
			if err != nil {
				return err
			}
			if err := txn.Set(configKey(chosen.ID), data); err != nil {
				return fmt.Errorf("activate fallback configuration: %w", err)
			}
			if err := txn.Set([]byte(activeKey), []byte(chosen.ID)); err != nil {
				return fmt.Errorf("set active pointer: %w", err)
			}
			s.logger.Warn("no active hierarchy configuration; activated fallback", "name", chosen.Name)
			return nil
		})
	})
}

// Create persists a user-defined configuration.
//
// Description:
//
//	Validates the configuration's shape, assigns an ID and creation
//	timestamp if missing, and rejects duplicate names. User-created
//	configurations are never defaults and never created active; call
//	Activate to switch to one.
//
// Outputs:
//
//	error - ErrDuplicateName, a validation error, or a storage error.
func (s *Store) Create(ctx context.Context, cfg *Configuration) error {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}
	cfg.IsDefault = false
	cfg.IsActive = false

	if err := cfg.Validate(); err != nil {
		return err
	}

	return s.retryConflict(func() error {
		return s.db.Update(ctx, func(txn *badger.Txn) error {
			configs, err := listTxn(txn)
			if err != nil {
				return err
			}
			for _, existing := range configs {
				if existing.Name == cfg.Name && existing.ID != cfg.ID {
					return fmt.Errorf("%w: %s", ErrDuplicateName, cfg.Name)
				}
			}
			data, err := encodeConfig(cfg)
			if err != nil {
				return err
			}
			return txn.Set(configKey(cfg.ID), data)
		})
	})
}

// Get returns the configuration with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Configuration, error) {
	var cfg *Configuration
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(configKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", ErrConfigurationNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("read configuration %s: %w", id, err)
		}
		return item.Value(func(val []byte) error {
			cfg, err = decodeConfig(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetByName returns the configuration with the given display name.
func (s *Store) GetByName(ctx context.Context, name string) (*Configuration, error) {
	configs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, cfg := range configs {
		if cfg.Name == name {
			return cfg, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrConfigurationNotFound, name)
}

// List returns all configurations ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*Configuration, error) {
	var configs []*Configuration
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		var err error
		configs, err = listTxn(txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(configs, func(i, j int) bool {
		return configs[i].CreatedAt.Before(configs[j].CreatedAt)
	})
	return configs, nil
}

// listTxn collects every configuration within an open transaction.
func listTxn(txn *badger.Txn) ([]*Configuration, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(configPrefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var configs []*Configuration
	for it.Rewind(); it.Valid(); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			cfg, err := decodeConfig(val)
			if err != nil {
				return err
			}
			configs = append(configs, cfg)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return configs, nil
}

// Active returns the currently active configuration.
//
// Outputs:
//
//	*Configuration - The active configuration.
//	error - ErrNoActiveConfiguration before first bootstrap, or a storage error.
func (s *Store) Active(ctx context.Context) (*Configuration, error) {
	var cfg *Configuration
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(activeKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoActiveConfiguration
		}
		if err != nil {
			return fmt.Errorf("read active pointer: %w", err)
		}
		var id []byte
		if id, err = item.ValueCopy(nil); err != nil {
			return fmt.Errorf("read active pointer: %w", err)
		}
		configItem, err := txn.Get(configKey(string(id)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			// Pointer references a deleted configuration. Treat as
			// unbootstrapped; EnsureDefaults repairs this.
			return ErrNoActiveConfiguration
		}
		if err != nil {
			return fmt.Errorf("read active configuration: %w", err)
		}
		return configItem.Value(func(val []byte) error {
			cfg, err = decodeConfig(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Activate switches the active configuration to the one with the given ID.
//
// Description:
//
//	Deactivates the previous active configuration and activates the
//	requested one inside a single transaction: readers never observe
//	zero or two active configurations.
//
//	If a level-usage callback is installed, activation is rejected with
//	ErrLevelsInUse when containers exist deeper than the candidate's
//	MaxLevels. Reducing depth below live data would orphan containers,
//	so the switch is refused rather than leaving the tree inconsistent.
func (s *Store) Activate(ctx context.Context, id string) error {
	if s.usage != nil {
		candidate, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		deepest, err := s.usage(ctx)
		if err != nil {
			return fmt.Errorf("check level usage: %w", err)
		}
		if deepest > candidate.MaxLevels {
			return fmt.Errorf("%w: deepest in use %d, configuration allows %d",
				ErrLevelsInUse, deepest, candidate.MaxLevels)
		}
	}

	return s.retryConflict(func() error {
		return s.db.Update(ctx, func(txn *badger.Txn) error {
			item, err := txn.Get(configKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrConfigurationNotFound, id)
			}
			if err != nil {
				return fmt.Errorf("read configuration %s: %w", id, err)
			}
			var next *Configuration
			if err := item.Value(func(val []byte) error {
				next, err = decodeConfig(val)
				return err
			}); err != nil {
				return err
			}

			// Deactivate the previous active configuration, if any and
			// if different.
			if prevItem, err := txn.Get([]byte(activeKey)); err == nil {
				prevID, err := prevItem.ValueCopy(nil)
				if err != nil {
					return fmt.Errorf("read active pointer: %w", err)
				}
				if !bytes.Equal(prevID, []byte(id)) {
					if prevCfgItem, err := txn.Get(configKey(string(prevID))); err == nil {
						var prev *Configuration
						if err := prevCfgItem.Value(func(val []byte) error {
							prev, err = decodeConfig(val)
							return err
						}); err != nil {
							return err
						}
						prev.IsActive = false
						data, err := encodeConfig(prev)
						if err != nil {
							return err
						}
						if err := txn.Set(configKey(prev.ID), data); err != nil {
							return fmt.Errorf("deactivate %s: %w", prev.Name, err)
						}
					}
				}
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("read active pointer: %w", err)
			}

			next.IsActive = true
			data, err := encodeConfig(next)
			if err != nil {
				return err
			}
			if err := txn.Set(configKey(next.ID), data); err != nil {
				return fmt.Errorf("activate %s: %w", next.Name, err)
			}
			if err := txn.Set([]byte(activeKey), []byte(next.ID)); err != nil {
				return fmt.Errorf("set active pointer: %w", err)
			}
			s.logger.Info("activated hierarchy configuration", "name", next.Name, "max_levels", next.MaxLevels)
			return nil
		})
	})
}

// Delete removes a configuration and its embedded levels.
//
// Outputs:
//
//	error - ErrConfigurationActive if the configuration is active,
//	ErrBuiltinConfiguration if it is a preset, ErrConfigurationNotFound
//	if it does not exist.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.retryConflict(func() error {
		return s.db.Update(ctx, func(txn *badger.Txn) error {
			item, err := txn.Get(configKey(id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%w: %s", ErrConfigurationNotFound, id)
			}
			if err != nil {
				return fmt.Errorf("read configuration %s: %w", id, err)
			}
			var cfg *Configuration
			if err := item.Value(func(val []byte) error {
				cfg, err = decodeConfig(val)
				return err
			}); err != nil {
				return err
			}
			if cfg.IsActive {
				return fmt.Errorf("%w: %s", ErrConfigurationActive, cfg.Name)
			}
			if cfg.IsDefault {
				return fmt.Errorf("%w: %s", ErrBuiltinConfiguration, cfg.Name)
			}
			return txn.Delete(configKey(id))
		})
	})
}
