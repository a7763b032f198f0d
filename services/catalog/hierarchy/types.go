// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package hierarchy implements the storage-taxonomy schema for ClutterBug.
//
// A hierarchy configuration is a named, ordered set of levels (e.g.
// Building -> Room -> Shelf). Exactly one configuration is active at a
// time; the active configuration governs which container can contain
// which child and where items may attach.
//
// The package has two halves:
//
//   - Store: durable CRUD over configurations (BadgerDB-backed), including
//     idempotent preset seeding and atomic activation.
//   - Manager: the read-side context object consulted by every container
//     operation. The Manager is passed explicitly; there is no ambient
//     global active configuration.
package hierarchy

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors returned by the hierarchy store and manager.
var (
	// ErrConfigurationNotFound indicates the requested configuration does not exist.
	ErrConfigurationNotFound = errors.New("hierarchy configuration not found")

	// ErrConfigurationActive indicates a delete was attempted on the active configuration.
	ErrConfigurationActive = errors.New("cannot delete the active hierarchy configuration")

	// ErrBuiltinConfiguration indicates a delete was attempted on a built-in preset.
	ErrBuiltinConfiguration = errors.New("cannot delete a built-in hierarchy configuration")

	// ErrNoActiveConfiguration indicates no configuration has been activated yet.
	ErrNoActiveConfiguration = errors.New("no active hierarchy configuration")

	// ErrLevelsInUse indicates activation was rejected because containers exist
	// at levels deeper than the candidate configuration allows.
	ErrLevelsInUse = errors.New("existing containers exceed the configuration's deepest level")

	// ErrDuplicateName indicates a configuration with the same name already exists.
	ErrDuplicateName = errors.New("hierarchy configuration name already in use")
)

// MinLevels and MaxLevels bound how many levels a configuration may define.
const (
	MinLevels = 2
	MaxLevels = 6
)

// LargeScaleOrders is the number of leading levels considered "large scale".
// Large-scale levels (orders 1-2) measure in feet; deeper levels in inches.
const LargeScaleOrders = 2

// Level is one rung of a hierarchy configuration.
//
// Levels are embedded in their owning Configuration and share its
// lifecycle: deleting a configuration deletes its levels.
type Level struct {
	// Order is the 1-based position of the level; lower orders are
	// closer to the root.
	Order int `json:"order" validate:"gte=1,lte=6"`

	// Name is the singular display name ("Room").
	Name string `json:"name" validate:"required"`

	// PluralName is the plural display name ("Rooms").
	PluralName string `json:"pluralName" validate:"required"`

	// Icon is an icon token consumed by the (out-of-scope) UI layer.
	Icon string `json:"icon"`

	// Color is a color token consumed by the UI layer.
	Color string `json:"color"`

	// Unit is the dimension-unit token for containers at this level
	// ("ft" or "in").
	Unit string `json:"unit"`
}

// IsLargeScale reports whether the level defaults to large-scale units.
// True for the first two orders only.
func (l Level) IsLargeScale() bool {
	return l.Order >= 1 && l.Order <= LargeScaleOrders
}

// Configuration is a named schema of hierarchy levels.
//
// Invariants:
//   - MaxLevels == len(Levels)
//   - level orders form a contiguous 1..MaxLevels sequence
//   - at most one configuration is active at any time (enforced by Store.Activate)
type Configuration struct {
	// ID is the configuration's stable identifier (UUID string).
	ID string `json:"id"`

	// Name is the unique display name ("Workshop", "My Garage").
	Name string `json:"name" validate:"required,max=80"`

	// MaxLevels is the number of levels, 2-6.
	MaxLevels int `json:"maxLevels" validate:"gte=2,lte=6"`

	// IsDefault marks built-in presets. Presets are immutable and
	// cannot be deleted.
	IsDefault bool `json:"isDefault"`

	// IsActive marks the single active configuration.
	IsActive bool `json:"isActive"`

	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"createdAt"`

	// Levels are the configuration's levels, ordered by Order.
	Levels []Level `json:"levels" validate:"required,min=2,max=6,dive"`
}

// Level returns the level at the given 1-based order and whether it exists.
func (c *Configuration) Level(order int) (Level, bool) {
	for _, lvl := range c.Levels {
		if lvl.Order == order {
			return lvl, true
		}
	}
	return Level{}, false
}

// validate is the shared validator instance for configuration input.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration's struct tags and shape invariants.
//
// Outputs:
//
//	error - Non-nil describing the first violation found.
func (c *Configuration) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.MaxLevels != len(c.Levels) {
		return fmt.Errorf("maxLevels %d does not match level count %d", c.MaxLevels, len(c.Levels))
	}
	seen := make(map[int]bool, len(c.Levels))
	for _, lvl := range c.Levels {
		if lvl.Order < 1 || lvl.Order > c.MaxLevels {
			return fmt.Errorf("level order %d outside 1..%d", lvl.Order, c.MaxLevels)
		}
		if seen[lvl.Order] {
			return fmt.Errorf("duplicate level order %d", lvl.Order)
		}
		seen[lvl.Order] = true
	}
	return nil
}

// DefaultUnit returns the dimension unit a level at the given order
// defaults to when the level does not declare one.
func DefaultUnit(order int) string {
	if order >= 1 && order <= LargeScaleOrders {
		return "ft"
	}
	return "in"
}

// GenericLevel returns fallback metadata for an order with
// no configured level. It never fails; callers always receive a usable
// label set.
func GenericLevel(order int) Level {
	return Level{
		Order:      order,
		Name:       fmt.Sprintf("Level %d", order),
		PluralName: fmt.Sprintf("Level %ds", order),
		Icon:       "square.stack.3d.up",
		Color:      "gray",
		Unit:       DefaultUnit(order),
	}
}
