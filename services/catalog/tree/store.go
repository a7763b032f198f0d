// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tree

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/clutterbug/clutterbug/services/catalog/hierarchy"
	"github.com/clutterbug/clutterbug/services/catalog/storage/badgerdb"
)

// Key layout for tree state inside the catalog database.
//
// Index keys carry no value payload; the key itself encodes the edge.
const (
	containerPrefix = "tree/container/"
	itemPrefix      = "tree/item/"
	childIdxPrefix  = "tree/idx/child/" // tree/idx/child/<parentID|root>/<childID>
	itemIdxPrefix   = "tree/idx/item/"  // tree/idx/item/<containerID>/<itemID>

	// rootParent is the index segment for parentless containers.
	rootParent = "root"
)

// Default physical dimensions, in the level's native unit.
const (
	largeScaleWidth  = 10
	largeScaleLength = 12
	largeScaleHeight = 9

	smallScaleWidth  = 12
	smallScaleLength = 8
	smallScaleHeight = 6
)

// Map placement grid for new containers without an explicit position:
// three columns, fixed spacing, filled left-to-right, top-to-bottom
// relative to existing siblings.
const (
	gridColumns  = 3
	gridOriginX  = 40.0
	gridOriginY  = 40.0
	gridSpacingX = 150.0
	gridSpacingY = 130.0

	defaultMapW = 120.0
	defaultMapH = 80.0
)

// PathSeparator joins container names in breadcrumb paths.
const PathSeparator = " > "

// maxDepth bounds upward and downward walks. The hierarchy allows at
// most 6 levels; anything deeper indicates corrupted parent links.
const maxDepth = 16

// Store provides construction and querying of the container/item graph.
//
// Thread Safety: safe for concurrent use; every operation runs in a
// single Badger transaction. The system assumes at most one logical
// writer at a time, but nothing breaks under concurrent writers beyond
// optimistic-conflict errors surfacing to one of them.
type Store struct {
	db      *badgerdb.DB
	manager *hierarchy.Manager
	logger  *slog.Logger
}

// NewStore creates a tree store.
//
// Inputs:
//
//	db - The catalog database. Must not be nil.
//	manager - The hierarchy rule context. Must not be nil; the tree
//	  never falls back to legacy defaults.
//	logger - Optional logger; nil falls back to slog.Default().
func NewStore(db *badgerdb.DB, manager *hierarchy.Manager, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, manager: manager, logger: logger}
}

func containerKey(id string) []byte {
	return []byte(containerPrefix + id)
}

func itemKey(id string) []byte {
	return []byte(itemPrefix + id)
}

func childIdxKey(parentID, childID string) []byte {
	if parentID == "" {
		parentID = rootParent
	}
	return []byte(childIdxPrefix + parentID + "/" + childID)
}

func itemIdxKey(containerID, itemID string) []byte {
	return []byte(itemIdxPrefix + containerID + "/" + itemID)
}

// =============================================================================
// Containers
// =============================================================================

// CreateContainer validates and persists a new container.
//
// Description:
//
//	Structural validation happens before anything is written:
//
//	  - parentless containers must be at level 1
//	  - child containers must satisfy the manager's adjacency rule
//	    (level exactly parent+1, within the active configuration)
//	  - terminal-level parents cannot hold child containers
//
//	On rejection a sentinel error is returned and no object is created.
//	On success, zero dimensions default by scale (10x12x9 for
//	large-scale levels, 12x8x6 otherwise) and a map position is
//	computed on a 3-column grid from the sibling count unless an
//	explicit position is supplied.
//
// Outputs:
//
//	*Container - The persisted container.
//	error - ErrRootMustBeLevelOne, ErrLevelNotAdjacent, ErrParentTerminal,
//	  ErrContainerNotFound (missing parent), ErrInvalidShape, ErrEmptyName,
//	  or a storage error.
func (s *Store) CreateContainer(ctx context.Context, req CreateContainerRequest) (*Container, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrEmptyName
	}
	shape := req.Shape
	if shape == "" {
		shape = ShapeRectangle
	}
	if !shape.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidShape, req.Shape)
	}

	c := &Container{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Purpose:   req.Purpose,
		Notes:     req.Notes,
		Level:     req.Level,
		ParentID:  req.ParentID,
		Shape:     shape,
		Color:     req.Color,
		Width:     req.Width,
		Length:    req.Length,
		Height:    req.Height,
		SideA:     req.SideA,
		SideB:     req.SideB,
		CreatedAt: time.Now().UTC(),
	}

	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		if req.ParentID == "" {
			if req.Level != 1 {
				return fmt.Errorf("%w: got level %d", ErrRootMustBeLevelOne, req.Level)
			}
		} else {
			parent, err := getContainerTxn(txn, req.ParentID)
			if err != nil {
				return err
			}
			if s.manager.IsLastLevel(ctx, parent.Level) {
				return fmt.Errorf("%w: parent %q is at level %d", ErrParentTerminal, parent.Name, parent.Level)
			}
			if !s.manager.CanContain(ctx, parent.Level, req.Level) {
				return fmt.Errorf("%w: parent level %d, child level %d", ErrLevelNotAdjacent, parent.Level, req.Level)
			}
		}

		if c.Width == 0 && c.Length == 0 && c.Height == 0 {
			if s.manager.LevelMetadata(ctx, c.Level).IsLargeScale() {
				c.Width, c.Length, c.Height = largeScaleWidth, largeScaleLength, largeScaleHeight
			} else {
				c.Width, c.Length, c.Height = smallScaleWidth, smallScaleLength, smallScaleHeight
			}
		}

		if req.HasPosition {
			c.MapX, c.MapY, c.MapW, c.MapH = req.MapX, req.MapY, req.MapW, req.MapH
			if c.MapW == 0 {
				c.MapW = defaultMapW
			}
			if c.MapH == 0 {
				c.MapH = defaultMapH
			}
		} else {
			siblings, err := childIDsTxn(txn, req.ParentID)
			if err != nil {
				return err
			}
			n := len(siblings)
			c.MapX = gridOriginX + float64(n%gridColumns)*gridSpacingX
			c.MapY = gridOriginY + float64(n/gridColumns)*gridSpacingY
			c.MapW = defaultMapW
			c.MapH = defaultMapH
		}

		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode container: %w", err)
		}
		if err := txn.Set(containerKey(c.ID), data); err != nil {
			return fmt.Errorf("write container: %w", err)
		}
		if err := txn.Set(childIdxKey(c.ParentID, c.ID), nil); err != nil {
			return fmt.Errorf("write child index: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("container created", "id", c.ID, "name", c.Name, "level", c.Level)
	return c, nil
}

// GetContainer returns the container with the given ID.
func (s *Store) GetContainer(ctx context.Context, id string) (*Container, error) {
	var c *Container
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		var err error
		c, err = getContainerTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateContainer persists changes to an existing container.
//
// Structural fields (Level, ParentID) must match the stored record;
// moving a container is a delete + create, never an update. The stored
// creation timestamp is preserved.
func (s *Store) UpdateContainer(ctx context.Context, c *Container) error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Shape.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidShape, c.Shape)
	}
	return s.db.Update(ctx, func(txn *badger.Txn) error {
		stored, err := getContainerTxn(txn, c.ID)
		if err != nil {
			return err
		}
		if stored.Level != c.Level || stored.ParentID != c.ParentID {
			return ErrStructuralChange
		}
		c.CreatedAt = stored.CreatedAt
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode container: %w", err)
		}
		return txn.Set(containerKey(c.ID), data)
	})
}

// Roots returns all level-1 containers ordered by creation time.
func (s *Store) Roots(ctx context.Context) ([]*Container, error) {
	return s.childrenOf(ctx, "")
}

// Children returns a container's direct children ordered by creation time.
func (s *Store) Children(ctx context.Context, id string) ([]*Container, error) {
	return s.childrenOf(ctx, id)
}

func (s *Store) childrenOf(ctx context.Context, parentID string) ([]*Container, error) {
	var children []*Container
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		ids, err := childIDsTxn(txn, parentID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			c, err := getContainerTxn(txn, id)
			if err != nil {
				return err
			}
			children = append(children, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].CreatedAt.Before(children[j].CreatedAt)
	})
	return children, nil
}

// Path returns the root-to-self container names joined by PathSeparator,
// for breadcrumbs and search-result display.
func (s *Store) Path(ctx context.Context, id string) (string, error) {
	var names []string
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		current := id
		for depth := 0; current != ""; depth++ {
			if depth >= maxDepth {
				return fmt.Errorf("container %s: parent chain exceeds depth %d", id, maxDepth)
			}
			c, err := getContainerTxn(txn, current)
			if err != nil {
				return err
			}
			names = append(names, c.Name)
			current = c.ParentID
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	// Collected self-to-root; reverse.
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, PathSeparator), nil
}

// DeepestLevelInUse returns the highest container level currently
// persisted, or 0 when no containers exist. Consulted by hierarchy
// activation to refuse configurations shallower than live data.
func (s *Store) DeepestLevelInUse(ctx context.Context) (int, error) {
	deepest := 0
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(containerPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var c Container
				if err := json.Unmarshal(val, &c); err != nil {
					return fmt.Errorf("decode container: %w", err)
				}
				if c.Level > deepest {
					deepest = c.Level
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deepest, nil
}

// DeleteContainer removes a container and every descendant container and
// item in one transaction.
//
// Description:
//
//	An explicit bounded recursive delete over the arena: the full
//	subtree is collected, then every container record, item record, and
//	index key is deleted. The returned Removed set carries all photo
//	identifiers the deleted records referenced; the caller is expected
//	to pass them to the photo store's Delete so files do not orphan.
//	If the caller skips or fails that step, orphan cleanup converges
//	on a later sweep.
func (s *Store) DeleteContainer(ctx context.Context, id string) (Removed, error) {
	var removed Removed
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		root, err := getContainerTxn(txn, id)
		if err != nil {
			return err
		}
		return s.deleteSubtreeTxn(txn, root, 0, &removed)
	})
	if err != nil {
		return Removed{}, err
	}
	s.logger.Info("container deleted",
		"id", id,
		"containers", len(removed.ContainerIDs),
		"items", len(removed.ItemIDs),
		"photos", len(removed.PhotoIDs))
	return removed, nil
}

// deleteSubtreeTxn removes c and its subtree, accumulating identifiers.
func (s *Store) deleteSubtreeTxn(txn *badger.Txn, c *Container, depth int, removed *Removed) error {
	if depth >= maxDepth {
		return fmt.Errorf("container %s: subtree exceeds depth %d", c.ID, maxDepth)
	}

	// Direct items first.
	itemIDs, err := itemIDsTxn(txn, c.ID)
	if err != nil {
		return err
	}
	for _, itemID := range itemIDs {
		item, err := getItemTxn(txn, itemID)
		if err != nil {
			return err
		}
		if err := txn.Delete(itemKey(itemID)); err != nil {
			return fmt.Errorf("delete item %s: %w", itemID, err)
		}
		if err := txn.Delete(itemIdxKey(c.ID, itemID)); err != nil {
			return fmt.Errorf("delete item index: %w", err)
		}
		removed.ItemIDs = append(removed.ItemIDs, itemID)
		if item.PhotoID != "" {
			removed.PhotoIDs = append(removed.PhotoIDs, item.PhotoID)
		}
	}

	// Then child subtrees.
	childIDs, err := childIDsTxn(txn, c.ID)
	if err != nil {
		return err
	}
	for _, childID := range childIDs {
		child, err := getContainerTxn(txn, childID)
		if err != nil {
			return err
		}
		if err := s.deleteSubtreeTxn(txn, child, depth+1, removed); err != nil {
			return err
		}
	}

	// Finally the container itself.
	if err := txn.Delete(containerKey(c.ID)); err != nil {
		return fmt.Errorf("delete container %s: %w", c.ID, err)
	}
	if err := txn.Delete(childIdxKey(c.ParentID, c.ID)); err != nil {
		return fmt.Errorf("delete child index: %w", err)
	}
	removed.ContainerIDs = append(removed.ContainerIDs, c.ID)
	if c.PhotoID != "" {
		removed.PhotoIDs = append(removed.PhotoIDs, c.PhotoID)
	}
	return nil
}

// SetContainerPhoto sets (or clears, with an empty photoID) a container's
// photo identifier and returns the previous identifier so the caller can
// delete the replaced artifact.
func (s *Store) SetContainerPhoto(ctx context.Context, id, photoID string) (string, error) {
	var previous string
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		c, err := getContainerTxn(txn, id)
		if err != nil {
			return err
		}
		previous = c.PhotoID
		c.PhotoID = photoID
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode container: %w", err)
		}
		return txn.Set(containerKey(id), data)
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

// =============================================================================
// Items
// =============================================================================

// CreateItem validates and persists a new item.
//
// Description:
//
//	The owning container must exist and sit at the active
//	configuration's terminal level; intermediate containers hold only
//	child containers. Quantity defaults to 1 and must be at least 1;
//	condition defaults to Good.
//
// Outputs:
//
//	*Item - The persisted item.
//	error - ErrContainerNotFound, ErrNotTerminalLevel, ErrInvalidQuantity,
//	  ErrInvalidCondition, ErrEmptyName, or a storage error.
func (s *Store) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrEmptyName
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, req.Quantity)
	}
	condition := req.Condition
	if condition == "" {
		condition = ConditionGood
	}
	if !condition.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCondition, req.Condition)
	}

	item := &Item{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		ContainerID:    req.ContainerID,
		Category:       req.Category,
		Quantity:       quantity,
		Notes:          req.Notes,
		SKU:            req.SKU,
		Condition:      condition,
		Width:          req.Width,
		Length:         req.Length,
		Height:         req.Height,
		PhotoPosition:  req.PhotoPosition,
		IconSize:       req.IconSize,
		ShowPhotoOnMap: req.ShowPhotoOnMap,
		CreatedAt:      time.Now().UTC(),
	}

	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		container, err := getContainerTxn(txn, req.ContainerID)
		if err != nil {
			return err
		}
		if !s.manager.IsLastLevel(ctx, container.Level) {
			return fmt.Errorf("%w: container %q is at level %d", ErrNotTerminalLevel, container.Name, container.Level)
		}
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode item: %w", err)
		}
		if err := txn.Set(itemKey(item.ID), data); err != nil {
			return fmt.Errorf("write item: %w", err)
		}
		if err := txn.Set(itemIdxKey(item.ContainerID, item.ID), nil); err != nil {
			return fmt.Errorf("write item index: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("item created", "id", item.ID, "name", item.Name, "container", item.ContainerID)
	return item, nil
}

// GetItem returns the item with the given ID.
func (s *Store) GetItem(ctx context.Context, id string) (*Item, error) {
	var item *Item
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		var err error
		item, err = getItemTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem persists changes to an existing item. The owning container
// may not change; moving an item is a delete + create.
func (s *Store) UpdateItem(ctx context.Context, item *Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return ErrEmptyName
	}
	if item.Quantity < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, item.Quantity)
	}
	if !item.Condition.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCondition, item.Condition)
	}
	return s.db.Update(ctx, func(txn *badger.Txn) error {
		stored, err := getItemTxn(txn, item.ID)
		if err != nil {
			return err
		}
		if stored.ContainerID != item.ContainerID {
			return ErrStructuralChange
		}
		item.CreatedAt = stored.CreatedAt
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode item: %w", err)
		}
		return txn.Set(itemKey(item.ID), data)
	})
}

// DeleteItem removes a single item and returns its photo identifier
// (empty if none) so the caller can delete the artifact.
func (s *Store) DeleteItem(ctx context.Context, id string) (string, error) {
	var photoID string
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		item, err := getItemTxn(txn, id)
		if err != nil {
			return err
		}
		photoID = item.PhotoID
		if err := txn.Delete(itemKey(id)); err != nil {
			return fmt.Errorf("delete item %s: %w", id, err)
		}
		return txn.Delete(itemIdxKey(item.ContainerID, id))
	})
	if err != nil {
		return "", err
	}
	return photoID, nil
}

// SetItemPhoto sets (or clears) an item's photo identifier and returns
// the previous identifier.
func (s *Store) SetItemPhoto(ctx context.Context, id, photoID string) (string, error) {
	var previous string
	err := s.db.Update(ctx, func(txn *badger.Txn) error {
		item, err := getItemTxn(txn, id)
		if err != nil {
			return err
		}
		previous = item.PhotoID
		item.PhotoID = photoID
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("encode item: %w", err)
		}
		return txn.Set(itemKey(id), data)
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

// DirectItems returns the items directly owned by a container, ordered
// by creation time.
func (s *Store) DirectItems(ctx context.Context, containerID string) ([]*Item, error) {
	var items []*Item
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		ids, err := itemIDsTxn(txn, containerID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			item, err := getItemTxn(txn, id)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

// AllItems recursively collects a container's direct items plus all
// descendants' items: direct items first, then per-child recursive
// order. No further ordering is guaranteed.
func (s *Store) AllItems(ctx context.Context, containerID string) ([]*Item, error) {
	var items []*Item
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		return collectItemsTxn(txn, containerID, 0, &items)
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func collectItemsTxn(txn *badger.Txn, containerID string, depth int, items *[]*Item) error {
	if depth >= maxDepth {
		return fmt.Errorf("container %s: subtree exceeds depth %d", containerID, maxDepth)
	}
	itemIDs, err := itemIDsTxn(txn, containerID)
	if err != nil {
		return err
	}
	for _, id := range itemIDs {
		item, err := getItemTxn(txn, id)
		if err != nil {
			return err
		}
		*items = append(*items, item)
	}
	childIDs, err := childIDsTxn(txn, containerID)
	if err != nil {
		return err
	}
	for _, childID := range childIDs {
		if err := collectItemsTxn(txn, childID, depth+1, items); err != nil {
			return err
		}
	}
	return nil
}

// TotalItemCount returns the number of items in the container's subtree.
func (s *Store) TotalItemCount(ctx context.Context, containerID string) (int, error) {
	items, err := s.AllItems(ctx, containerID)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// DirectItemCount returns the number of items directly owned by the container.
func (s *Store) DirectItemCount(ctx context.Context, containerID string) (int, error) {
	count := 0
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		ids, err := itemIDsTxn(txn, containerID)
		if err != nil {
			return err
		}
		count = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// PhotoRefs returns every photo identifier referenced by any container
// or item, with owner name and kind for diagnostics. Consumed by the
// validation utility and orphan cleanup.
func (s *Store) PhotoRefs(ctx context.Context) ([]PhotoRef, error) {
	var refs []PhotoRef
	err := s.db.View(ctx, func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(containerPrefix)
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var c Container
				if err := json.Unmarshal(val, &c); err != nil {
					return fmt.Errorf("decode container: %w", err)
				}
				if c.PhotoID != "" {
					refs = append(refs, PhotoRef{PhotoID: c.PhotoID, OwnerID: c.ID, OwnerName: c.Name, OwnerType: OwnerContainer})
				}
				return nil
			})
			if err != nil {
				it.Close()
				return err
			}
		}
		it.Close()

		opts = badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemPrefix)
		it = txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var item Item
				if err := json.Unmarshal(val, &item); err != nil {
					return fmt.Errorf("decode item: %w", err)
				}
				if item.PhotoID != "" {
					refs = append(refs, PhotoRef{PhotoID: item.PhotoID, OwnerID: item.ID, OwnerName: item.Name, OwnerType: OwnerItem})
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// DeleteAll wipes every container and item record. Used only by the
// destructive user-initiated reset.
func (s *Store) DeleteAll(ctx context.Context) error {
	prefixes := []string{containerPrefix, itemPrefix, childIdxPrefix, itemIdxPrefix}
	return s.db.Update(ctx, func(txn *badger.Txn) error {
		for _, prefix := range prefixes {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(prefix)
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			var keys [][]byte
			for it.Rewind(); it.Valid(); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
			it.Close()
			for _, key := range keys {
				if err := txn.Delete(key); err != nil {
					return fmt.Errorf("delete %s: %w", key, err)
				}
			}
		}
		return nil
	})
}

// =============================================================================
// Transaction helpers
// =============================================================================

func getContainerTxn(txn *badger.Txn, id string) (*Container, error) {
	item, err := txn.Get(containerKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read container %s: %w", id, err)
	}
	var c Container
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &c)
	}); err != nil {
		return nil, fmt.Errorf("decode container %s: %w", id, err)
	}
	return &c, nil
}

func getItemTxn(txn *badger.Txn, id string) (*Item, error) {
	rec, err := txn.Get(itemKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read item %s: %w", id, err)
	}
	var item Item
	if err := rec.Value(func(val []byte) error {
		return json.Unmarshal(val, &item)
	}); err != nil {
		return nil, fmt.Errorf("decode item %s: %w", id, err)
	}
	return &item, nil
}

// childIDsTxn returns the IDs of a container's direct children. Pass an
// empty parentID for roots.
func childIDsTxn(txn *badger.Txn, parentID string) ([]string, error) {
	if parentID == "" {
		parentID = rootParent
	}
	return idxScanTxn(txn, childIdxPrefix+parentID+"/")
}

// itemIDsTxn returns the IDs of a container's direct items.
func itemIDsTxn(txn *badger.Txn, containerID string) ([]string, error) {
	return idxScanTxn(txn, itemIdxPrefix+containerID+"/")
}

// idxScanTxn collects the trailing ID segment of every key under prefix.
func idxScanTxn(txn *badger.Txn, prefix string) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Rewind(); it.Valid(); it.Next() {
		key := string(it.Item().Key())
		ids = append(ids, strings.TrimPrefix(key, prefix))
	}
	return ids, nil
}
