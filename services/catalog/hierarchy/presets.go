// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package hierarchy

import (
	"time"

	"github.com/google/uuid"
)

// PresetWorkshop is the name of the preset activated on first launch.
const PresetWorkshop = "Workshop"

// Presets returns the five built-in hierarchy configurations seeded on
// first launch. Each call returns fresh copies with new IDs; callers seed
// them exactly once (Store.EnsureDefaults guards idempotence).
func Presets(now time.Time) []Configuration {
	return []Configuration{
		{
			ID:        uuid.NewString(),
			Name:      PresetWorkshop,
			MaxLevels: 5,
			IsDefault: true,
			CreatedAt: now,
			Levels: []Level{
				{Order: 1, Name: "Building", PluralName: "Buildings", Icon: "building.2", Color: "brown", Unit: "ft"},
				{Order: 2, Name: "Room", PluralName: "Rooms", Icon: "door.left.hand.open", Color: "orange", Unit: "ft"},
				{Order: 3, Name: "Cabinet", PluralName: "Cabinets", Icon: "cabinet", Color: "yellow", Unit: "in"},
				{Order: 4, Name: "Shelf", PluralName: "Shelves", Icon: "square.split.2x1", Color: "green", Unit: "in"},
				{Order: 5, Name: "Bin", PluralName: "Bins", Icon: "tray", Color: "blue", Unit: "in"},
			},
		},
		{
			ID:        uuid.NewString(),
			Name:      "Home",
			MaxLevels: 4,
			IsDefault: true,
			CreatedAt: now,
			Levels: []Level{
				{Order: 1, Name: "Floor", PluralName: "Floors", Icon: "square.stack", Color: "brown", Unit: "ft"},
				{Order: 2, Name: "Room", PluralName: "Rooms", Icon: "door.left.hand.open", Color: "orange", Unit: "ft"},
				{Order: 3, Name: "Closet", PluralName: "Closets", Icon: "cabinet", Color: "green", Unit: "in"},
				{Order: 4, Name: "Box", PluralName: "Boxes", Icon: "shippingbox", Color: "blue", Unit: "in"},
			},
		},
		{
			ID:        uuid.NewString(),
			Name:      "Warehouse",
			MaxLevels: 5,
			IsDefault: true,
			CreatedAt: now,
			Levels: []Level{
				{Order: 1, Name: "Warehouse", PluralName: "Warehouses", Icon: "building.2", Color: "brown", Unit: "ft"},
				{Order: 2, Name: "Zone", PluralName: "Zones", Icon: "map", Color: "red", Unit: "ft"},
				{Order: 3, Name: "Aisle", PluralName: "Aisles", Icon: "arrow.up.and.down", Color: "orange", Unit: "in"},
				{Order: 4, Name: "Rack", PluralName: "Racks", Icon: "square.grid.3x3", Color: "green", Unit: "in"},
				{Order: 5, Name: "Bin", PluralName: "Bins", Icon: "tray", Color: "blue", Unit: "in"},
			},
		},
		{
			ID:        uuid.NewString(),
			Name:      "Simple",
			MaxLevels: 3,
			IsDefault: true,
			CreatedAt: now,
			Levels: []Level{
				{Order: 1, Name: "Area", PluralName: "Areas", Icon: "square.dashed", Color: "brown", Unit: "ft"},
				{Order: 2, Name: "Storage", PluralName: "Storage", Icon: "archivebox", Color: "orange", Unit: "ft"},
				{Order: 3, Name: "Container", PluralName: "Containers", Icon: "shippingbox", Color: "blue", Unit: "in"},
			},
		},
		{
			ID:        uuid.NewString(),
			Name:      "Office",
			MaxLevels: 3,
			IsDefault: true,
			CreatedAt: now,
			Levels: []Level{
				{Order: 1, Name: "Office", PluralName: "Offices", Icon: "building", Color: "brown", Unit: "ft"},
				{Order: 2, Name: "Desk", PluralName: "Desks", Icon: "table.furniture", Color: "orange", Unit: "ft"},
				{Order: 3, Name: "Drawer", PluralName: "Drawers", Icon: "square.split.2x1", Color: "blue", Unit: "in"},
			},
		},
	}
}
