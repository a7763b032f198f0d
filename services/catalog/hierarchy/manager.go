// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package hierarchy

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Manager is the read-side context object for the active hierarchy
// configuration. It is passed explicitly to every container operation;
// there is no package-level active configuration.
//
// The Manager is fail-open: when the store cannot be read it serves the
// last good snapshot, or the Workshop preset shape before any snapshot
// exists. Rule queries (CanContain, IsLastLevel, LevelMetadata) therefore
// never fail; the app stays usable even when storage misbehaves.
//
// Thread Safety: safe for concurrent use.
type Manager struct {
	store  *Store
	logger *slog.Logger

	mu       sync.RWMutex
	snapshot *Configuration // last successfully read active configuration
}

// NewManager creates a Manager over the given store.
//
// Inputs:
//
//	store - The hierarchy store. Must not be nil.
//	logger - Optional logger; nil falls back to slog.Default().
func NewManager(store *Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, logger: logger}
}

// Store returns the underlying hierarchy store.
func (m *Manager) Store() *Store {
	return m.store
}

// EnsureDefaults delegates to Store.EnsureDefaults.
func (m *Manager) EnsureDefaults(ctx context.Context) error {
	return m.store.EnsureDefaults(ctx)
}

// Activate delegates to Store.Activate and refreshes the snapshot.
func (m *Manager) Activate(ctx context.Context, id string) error {
	if err := m.store.Activate(ctx, id); err != nil {
		return err
	}
	m.refresh(ctx)
	return nil
}

// Delete delegates to Store.Delete.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

// Active returns the currently active configuration.
//
// Outputs:
//
//	*Configuration - The active configuration.
//	error - ErrNoActiveConfiguration before first bootstrap, or a storage error.
func (m *Manager) Active(ctx context.Context) (*Configuration, error) {
	cfg, err := m.store.Active(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.snapshot = cfg
	m.mu.Unlock()
	return cfg, nil
}

// refresh updates the snapshot, keeping the previous one on error.
func (m *Manager) refresh(ctx context.Context) {
	if _, err := m.Active(ctx); err != nil {
		m.logger.Warn("hierarchy snapshot refresh failed", "error", err.Error())
	}
}

// resolve returns a usable configuration without failing: the live
// active configuration, else the last good snapshot, else the Workshop
// preset shape.
func (m *Manager) resolve(ctx context.Context) *Configuration {
	cfg, err := m.store.Active(ctx)
	if err == nil {
		m.mu.Lock()
		m.snapshot = cfg
		m.mu.Unlock()
		return cfg
	}

	m.mu.RLock()
	snap := m.snapshot
	m.mu.RUnlock()
	if snap != nil {
		m.logger.Warn("serving cached hierarchy snapshot", "error", err.Error())
		return snap
	}

	m.logger.Warn("no hierarchy configuration available; using built-in fallback", "error", err.Error())
	return fallbackConfiguration()
}

// CanContain reports whether a container at parentLevel may directly
// contain a container at childLevel under the active configuration.
//
// The sole adjacency rule of the system: childLevel must be exactly
// parentLevel+1 and must not exceed the configuration's deepest level.
// No skipping levels, no siblings containing siblings.
func (m *Manager) CanContain(ctx context.Context, parentLevel, childLevel int) bool {
	cfg := m.resolve(ctx)
	return childLevel == parentLevel+1 && childLevel <= cfg.MaxLevels
}

// IsLastLevel reports whether the given level is the terminal level of
// the active configuration. Only terminal-level containers may directly
// own items.
func (m *Manager) IsLastLevel(ctx context.Context, level int) bool {
	cfg := m.resolve(ctx)
	return level >= cfg.MaxLevels
}

// MaxLevels returns the active configuration's deepest level.
func (m *Manager) MaxLevels(ctx context.Context) int {
	return m.resolve(ctx).MaxLevels
}

// LevelMetadata returns display metadata for the given order.
//
// Description:
//
//	Never fails: if the order has no configured level (out of
//	range, or the configuration is unavailable), a generic "Level N"
//	label set is returned. There is no nil-manager legacy path; callers
//	always go through this single lookup.
func (m *Manager) LevelMetadata(ctx context.Context, order int) Level {
	cfg := m.resolve(ctx)
	if lvl, ok := cfg.Level(order); ok {
		return lvl
	}
	return GenericLevel(order)
}

// fallbackConfiguration returns the Workshop preset shape used when no
// persisted configuration can be read. It is never persisted.
func fallbackConfiguration() *Configuration {
	presets := Presets(time.Time{})
	for i := range presets {
		if presets[i].Name == PresetWorkshop {
			return &presets[i]
		}
	}
	return &presets[0]
}
