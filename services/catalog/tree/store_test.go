// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clutterbug/clutterbug/services/catalog/hierarchy"
	"github.com/clutterbug/clutterbug/services/catalog/storage/badgerdb"
)

// newTestStore returns a tree store with the "Simple" preset (3 levels)
// active, which keeps fixture trees small.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	db, err := badgerdb.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hstore := hierarchy.NewStore(db, nil)
	require.NoError(t, hstore.EnsureDefaults(ctx))
	simple, err := hstore.GetByName(ctx, "Simple")
	require.NoError(t, err)
	require.NoError(t, hstore.Activate(ctx, simple.ID))

	return NewStore(db, hierarchy.NewManager(hstore, nil), nil)
}

// mustContainer creates a container or fails the test.
func mustContainer(t *testing.T, s *Store, name string, level int, parentID string) *Container {
	t.Helper()
	c, err := s.CreateContainer(context.Background(), CreateContainerRequest{
		Name:     name,
		Level:    level,
		ParentID: parentID,
	})
	require.NoError(t, err)
	return c
}

// mustItem creates an item or fails the test.
func mustItem(t *testing.T, s *Store, name, containerID string) *Item {
	t.Helper()
	item, err := s.CreateItem(context.Background(), CreateItemRequest{
		Name:        name,
		ContainerID: containerID,
	})
	require.NoError(t, err)
	return item
}

func TestCreateContainer(t *testing.T) {
	ctx := context.Background()

	t.Run("root at level 1 succeeds", func(t *testing.T) {
		s := newTestStore(t)
		c := mustContainer(t, s, "Garage", 1, "")
		assert.Equal(t, 1, c.Level)
		assert.Empty(t, c.ParentID)
		assert.Equal(t, ShapeRectangle, c.Shape)
	})

	t.Run("root above level 1 rejected", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.CreateContainer(ctx, CreateContainerRequest{Name: "Floating", Level: 2})
		assert.ErrorIs(t, err, ErrRootMustBeLevelOne)
	})

	t.Run("adjacent child succeeds", func(t *testing.T) {
		s := newTestStore(t)
		garage := mustContainer(t, s, "Garage", 1, "")
		shelf := mustContainer(t, s, "Shelf", 2, garage.ID)
		assert.Equal(t, garage.ID, shelf.ParentID)
	})

	t.Run("level skipping rejected with nothing persisted", func(t *testing.T) {
		s := newTestStore(t)
		garage := mustContainer(t, s, "Garage", 1, "")

		_, err := s.CreateContainer(ctx, CreateContainerRequest{
			Name: "Bin", Level: 3, ParentID: garage.ID,
		})
		assert.ErrorIs(t, err, ErrLevelNotAdjacent)

		children, err := s.Children(ctx, garage.ID)
		require.NoError(t, err)
		assert.Empty(t, children)
	})

	t.Run("terminal-level parent rejected", func(t *testing.T) {
		s := newTestStore(t)
		garage := mustContainer(t, s, "Garage", 1, "")
		shelf := mustContainer(t, s, "Shelf", 2, garage.ID)
		bin := mustContainer(t, s, "Bin", 3, shelf.ID) // level 3 = terminal for Simple

		_, err := s.CreateContainer(ctx, CreateContainerRequest{
			Name: "Nested", Level: 4, ParentID: bin.ID,
		})
		assert.ErrorIs(t, err, ErrParentTerminal)
	})

	t.Run("missing parent rejected", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.CreateContainer(ctx, CreateContainerRequest{
			Name: "Orphan", Level: 2, ParentID: "nope",
		})
		assert.ErrorIs(t, err, ErrContainerNotFound)
	})

	t.Run("blank name rejected", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.CreateContainer(ctx, CreateContainerRequest{Name: "   ", Level: 1})
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("unknown shape rejected", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.CreateContainer(ctx, CreateContainerRequest{
			Name: "Blob", Level: 1, Shape: "hexagon",
		})
		assert.ErrorIs(t, err, ErrInvalidShape)
	})

	t.Run("dimensions default by scale", func(t *testing.T) {
		s := newTestStore(t)
		garage := mustContainer(t, s, "Garage", 1, "")
		assert.Equal(t, []float64{10, 12, 9}, []float64{garage.Width, garage.Length, garage.Height},
			"large-scale defaults")

		shelf := mustContainer(t, s, "Shelf", 2, garage.ID)
		bin := mustContainer(t, s, "Bin", 3, shelf.ID)
		assert.Equal(t, []float64{12, 8, 6}, []float64{bin.Width, bin.Length, bin.Height},
			"small-scale defaults")
	})

	t.Run("explicit dimensions preserved", func(t *testing.T) {
		s := newTestStore(t)
		c, err := s.CreateContainer(ctx, CreateContainerRequest{
			Name: "Custom", Level: 1, Width: 20, Length: 30, Height: 8,
		})
		require.NoError(t, err)
		assert.Equal(t, 20.0, c.Width)
		assert.Equal(t, 30.0, c.Length)
		assert.Equal(t, 8.0, c.Height)
	})

	t.Run("grid placement fills three columns", func(t *testing.T) {
		s := newTestStore(t)
		var containers []*Container
		for _, name := range []string{"A", "B", "C", "D"} {
			containers = append(containers, mustContainer(t, s, name, 1, ""))
		}

		// First row: three columns at fixed spacing.
		assert.Equal(t, containers[0].MapY, containers[1].MapY)
		assert.Equal(t, containers[1].MapY, containers[2].MapY)
		assert.Equal(t, containers[0].MapX+gridSpacingX, containers[1].MapX)
		assert.Equal(t, containers[1].MapX+gridSpacingX, containers[2].MapX)

		// Fourth wraps to the second row, first column.
		assert.Equal(t, containers[0].MapX, containers[3].MapX)
		assert.Equal(t, containers[0].MapY+gridSpacingY, containers[3].MapY)
	})

	t.Run("explicit position preserved", func(t *testing.T) {
		s := newTestStore(t)
		c, err := s.CreateContainer(ctx, CreateContainerRequest{
			Name: "Placed", Level: 1,
			HasPosition: true, MapX: 300, MapY: 200, MapW: 90, MapH: 60,
		})
		require.NoError(t, err)
		assert.Equal(t, 300.0, c.MapX)
		assert.Equal(t, 200.0, c.MapY)
		assert.Equal(t, 90.0, c.MapW)
		assert.Equal(t, 60.0, c.MapH)
	})
}

func TestCreateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("attaches to terminal container", func(t *testing.T) {
		s := newTestStore(t)
		garage := mustContainer(t, s, "Garage", 1, "")
		shelf := mustContainer(t, s, "Shelf", 2, garage.ID)
		bin := mustContainer(t, s, "Bin", 3, shelf.ID)

		item := mustItem(t, s, "Hammer", bin.ID)
		assert.Equal(t, 1, item.Quantity, "quantity defaults to 1")
		assert.Equal(t, ConditionGood, item.Condition, "condition defaults to Good")
	})

	t.Run("rejected on intermediate container", func(t *testing.T) {
		s := newTestStore(t)
		garage := mustContainer(t, s, "Garage", 1, "")

		_, err := s.CreateItem(ctx, CreateItemRequest{Name: "Hammer", ContainerID: garage.ID})
		assert.ErrorIs(t, err, ErrNotTerminalLevel)
	})

	t.Run("rejected on missing container", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.CreateItem(ctx, CreateItemRequest{Name: "Hammer", ContainerID: "nope"})
		assert.ErrorIs(t, err, ErrContainerNotFound)
	})

	t.Run("negative quantity rejected", func(t *testing.T) {
		s := newTestStore(t)
		garage := mustContainer(t, s, "Garage", 1, "")
		shelf := mustContainer(t, s, "Shelf", 2, garage.ID)
		bin := mustContainer(t, s, "Bin", 3, shelf.ID)

		_, err := s.CreateItem(ctx, CreateItemRequest{Name: "X", ContainerID: bin.ID, Quantity: -2})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("unknown condition rejected", func(t *testing.T) {
		s := newTestStore(t)
		garage := mustContainer(t, s, "Garage", 1, "")
		shelf := mustContainer(t, s, "Shelf", 2, garage.ID)
		bin := mustContainer(t, s, "Bin", 3, shelf.ID)

		_, err := s.CreateItem(ctx, CreateItemRequest{Name: "X", ContainerID: bin.ID, Condition: "Mint"})
		assert.ErrorIs(t, err, ErrInvalidCondition)
	})
}

func TestAllItemsAndCounts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	garage := mustContainer(t, s, "Garage", 1, "")
	shelfA := mustContainer(t, s, "Shelf A", 2, garage.ID)
	shelfB := mustContainer(t, s, "Shelf B", 2, garage.ID)
	binA := mustContainer(t, s, "Bin A", 3, shelfA.ID)
	binB := mustContainer(t, s, "Bin B", 3, shelfB.ID)

	mustItem(t, s, "Hammer", binA.ID)
	mustItem(t, s, "Wrench", binA.ID)
	mustItem(t, s, "Tape", binB.ID)

	t.Run("recursive collection from root", func(t *testing.T) {
		items, err := s.AllItems(ctx, garage.ID)
		require.NoError(t, err)
		assert.Len(t, items, 3)
	})

	t.Run("direct items first", func(t *testing.T) {
		direct := mustItem(t, s, "Label Roll", binA.ID)
		items, err := s.AllItems(ctx, binA.ID)
		require.NoError(t, err)
		require.Len(t, items, 3)
		names := []string{items[0].Name, items[1].Name, items[2].Name}
		assert.Contains(t, names, direct.Name)
	})

	t.Run("counts", func(t *testing.T) {
		total, err := s.TotalItemCount(ctx, garage.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, total)

		direct, err := s.DirectItemCount(ctx, garage.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, direct)

		direct, err = s.DirectItemCount(ctx, binA.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, direct)
	})
}

func TestPath(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	garage := mustContainer(t, s, "Garage", 1, "")
	shelf := mustContainer(t, s, "Shelf", 2, garage.ID)
	bin := mustContainer(t, s, "Bin", 3, shelf.ID)

	path, err := s.Path(ctx, bin.ID)
	require.NoError(t, err)
	assert.Equal(t, "Garage > Shelf > Bin", path)

	path, err = s.Path(ctx, garage.ID)
	require.NoError(t, err)
	assert.Equal(t, "Garage", path)
}

func TestDeleteContainer(t *testing.T) {
	ctx := context.Background()

	t.Run("cascade removes full subtree and reports photo ids", func(t *testing.T) {
		s := newTestStore(t)

		garage := mustContainer(t, s, "Garage", 1, "")
		shelf := mustContainer(t, s, "Shelf", 2, garage.ID)
		bin := mustContainer(t, s, "Bin", 3, shelf.ID)
		hammer := mustItem(t, s, "Hammer", bin.ID)

		_, err := s.SetItemPhoto(ctx, hammer.ID, "ham1")
		require.NoError(t, err)
		_, err = s.SetContainerPhoto(ctx, shelf.ID, "shelf-photo")
		require.NoError(t, err)

		removed, err := s.DeleteContainer(ctx, garage.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{garage.ID, shelf.ID, bin.ID}, removed.ContainerIDs)
		assert.ElementsMatch(t, []string{hammer.ID}, removed.ItemIDs)
		assert.ElementsMatch(t, []string{"ham1", "shelf-photo"}, removed.PhotoIDs)

		_, err = s.GetContainer(ctx, shelf.ID)
		assert.ErrorIs(t, err, ErrContainerNotFound)
		_, err = s.GetItem(ctx, hammer.ID)
		assert.ErrorIs(t, err, ErrItemNotFound)

		roots, err := s.Roots(ctx)
		require.NoError(t, err)
		assert.Empty(t, roots)
	})

	t.Run("sibling subtrees untouched", func(t *testing.T) {
		s := newTestStore(t)

		keep := mustContainer(t, s, "Keep", 1, "")
		drop := mustContainer(t, s, "Drop", 1, "")
		keepShelf := mustContainer(t, s, "Keep Shelf", 2, keep.ID)

		_, err := s.DeleteContainer(ctx, drop.ID)
		require.NoError(t, err)

		got, err := s.GetContainer(ctx, keepShelf.ID)
		require.NoError(t, err)
		assert.Equal(t, "Keep Shelf", got.Name)
	})

	t.Run("missing container rejected", func(t *testing.T) {
		s := newTestStore(t)
		_, err := s.DeleteContainer(ctx, "nope")
		assert.ErrorIs(t, err, ErrContainerNotFound)
	})
}

func TestDeleteItem(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	garage := mustContainer(t, s, "Garage", 1, "")
	shelf := mustContainer(t, s, "Shelf", 2, garage.ID)
	bin := mustContainer(t, s, "Bin", 3, shelf.ID)
	hammer := mustItem(t, s, "Hammer", bin.ID)

	_, err := s.SetItemPhoto(ctx, hammer.ID, "ham1")
	require.NoError(t, err)

	photoID, err := s.DeleteItem(ctx, hammer.ID)
	require.NoError(t, err)
	assert.Equal(t, "ham1", photoID)

	count, err := s.DirectItemCount(ctx, bin.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUpdates(t *testing.T) {
	ctx := context.Background()

	t.Run("container update preserves creation time", func(t *testing.T) {
		s := newTestStore(t)
		c := mustContainer(t, s, "Garage", 1, "")

		c.Name = "Main Garage"
		c.Purpose = "vehicles"
		require.NoError(t, s.UpdateContainer(ctx, c))

		got, err := s.GetContainer(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Main Garage", got.Name)
		assert.Equal(t, "vehicles", got.Purpose)
		assert.Equal(t, c.CreatedAt, got.CreatedAt)
	})

	t.Run("container reparent rejected", func(t *testing.T) {
		s := newTestStore(t)
		a := mustContainer(t, s, "A", 1, "")
		b := mustContainer(t, s, "B", 1, "")
		shelf := mustContainer(t, s, "Shelf", 2, a.ID)

		shelf.ParentID = b.ID
		assert.ErrorIs(t, s.UpdateContainer(ctx, shelf), ErrStructuralChange)
	})

	t.Run("item move rejected", func(t *testing.T) {
		s := newTestStore(t)
		garage := mustContainer(t, s, "Garage", 1, "")
		shelf := mustContainer(t, s, "Shelf", 2, garage.ID)
		binA := mustContainer(t, s, "Bin A", 3, shelf.ID)
		binB := mustContainer(t, s, "Bin B", 3, shelf.ID)
		hammer := mustItem(t, s, "Hammer", binA.ID)

		hammer.ContainerID = binB.ID
		assert.ErrorIs(t, s.UpdateItem(ctx, hammer), ErrStructuralChange)
	})
}

func TestSetPhoto(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	garage := mustContainer(t, s, "Garage", 1, "")

	previous, err := s.SetContainerPhoto(ctx, garage.ID, "photo-1")
	require.NoError(t, err)
	assert.Empty(t, previous)

	previous, err = s.SetContainerPhoto(ctx, garage.ID, "photo-2")
	require.NoError(t, err)
	assert.Equal(t, "photo-1", previous, "replacement returns prior id")

	previous, err = s.SetContainerPhoto(ctx, garage.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "photo-2", previous, "clearing returns prior id")
}

func TestDeepestLevelInUse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	deepest, err := s.DeepestLevelInUse(ctx)
	require.NoError(t, err)
	assert.Zero(t, deepest)

	garage := mustContainer(t, s, "Garage", 1, "")
	shelf := mustContainer(t, s, "Shelf", 2, garage.ID)
	mustContainer(t, s, "Bin", 3, shelf.ID)

	deepest, err = s.DeepestLevelInUse(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, deepest)
}

func TestPhotoRefs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	garage := mustContainer(t, s, "Garage", 1, "")
	shelf := mustContainer(t, s, "Shelf", 2, garage.ID)
	bin := mustContainer(t, s, "Bin", 3, shelf.ID)
	hammer := mustItem(t, s, "Hammer", bin.ID)

	_, err := s.SetContainerPhoto(ctx, garage.ID, "gph")
	require.NoError(t, err)
	_, err = s.SetItemPhoto(ctx, hammer.ID, "hph")
	require.NoError(t, err)

	refs, err := s.PhotoRefs(ctx)
	require.NoError(t, err)
	require.Len(t, refs, 2)

	byID := map[string]PhotoRef{}
	for _, ref := range refs {
		byID[ref.PhotoID] = ref
	}
	assert.Equal(t, OwnerContainer, byID["gph"].OwnerType)
	assert.Equal(t, "Garage", byID["gph"].OwnerName)
	assert.Equal(t, OwnerItem, byID["hph"].OwnerType)
	assert.Equal(t, "Hammer", byID["hph"].OwnerName)
}
