// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tree implements the nested container/item graph for ClutterBug.
//
// Containers form an N-level tree governed by the active hierarchy
// configuration: every non-root container sits exactly one level below
// its parent, and items attach only to containers at the configuration's
// terminal level. All structural rules are supplied by an explicit
// hierarchy.Manager passed at construction; the tree never consults
// global state.
//
// The graph is persisted as an arena of records indexed by identifier
// (BadgerDB keys), with parent/child and container/item index keys for
// traversal. Deletion is an explicit bounded recursive walk that returns
// the full set of removed identifiers so callers can drive photo-file
// cleanup deterministically.
package tree

import (
	"errors"
	"time"
)

// Sentinel errors returned by tree operations. Foreseeable structural
// rejections are distinguishable values, never panics.
var (
	// ErrContainerNotFound indicates the requested container does not exist.
	ErrContainerNotFound = errors.New("container not found")

	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrRootMustBeLevelOne indicates a parentless container was requested
	// at a level other than 1.
	ErrRootMustBeLevelOne = errors.New("root container must be at level 1")

	// ErrLevelNotAdjacent indicates the parent/child levels violate the
	// adjacency rule (child must be exactly parent+1 and within the
	// active configuration's depth).
	ErrLevelNotAdjacent = errors.New("container level is not adjacent to parent level")

	// ErrParentTerminal indicates the parent sits at the terminal level
	// and may hold only items, not child containers.
	ErrParentTerminal = errors.New("terminal-level container cannot hold child containers")

	// ErrNotTerminalLevel indicates an item was attached to a container
	// that is not at the terminal level.
	ErrNotTerminalLevel = errors.New("items attach only to terminal-level containers")

	// ErrInvalidQuantity indicates an item quantity below 1.
	ErrInvalidQuantity = errors.New("item quantity must be at least 1")

	// ErrInvalidCondition indicates an unknown item condition value.
	ErrInvalidCondition = errors.New("unknown item condition")

	// ErrInvalidShape indicates an unknown container shape value.
	ErrInvalidShape = errors.New("unknown container shape")

	// ErrEmptyName indicates a blank container or item name.
	ErrEmptyName = errors.New("name is required")

	// ErrStructuralChange indicates an update attempted to move a record
	// within the tree. Structure changes go through delete + create.
	ErrStructuralChange = errors.New("updates may not change level, parent, or owning container")
)

// ShapeType is a container's 2-D map shape.
type ShapeType string

const (
	ShapeRectangle     ShapeType = "rectangle"
	ShapeCircle        ShapeType = "circle"
	ShapeTriangle      ShapeType = "triangle"
	ShapeQuadrilateral ShapeType = "quadrilateral"
	ShapeTee           ShapeType = "tee"
)

// Valid reports whether the shape is a known value.
func (s ShapeType) Valid() bool {
	switch s {
	case ShapeRectangle, ShapeCircle, ShapeTriangle, ShapeQuadrilateral, ShapeTee:
		return true
	default:
		return false
	}
}

// Condition is an item's physical condition.
type Condition string

const (
	ConditionNew      Condition = "New"
	ConditionLikeNew  Condition = "Like New"
	ConditionGood     Condition = "Good"
	ConditionFair     Condition = "Fair"
	ConditionPoor     Condition = "Poor"
	ConditionForParts Condition = "For Parts"
)

// Valid reports whether the condition is a known value.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor, ConditionForParts:
		return true
	default:
		return false
	}
}

// PhotoPosition controls where an item's photo renders on the map.
type PhotoPosition string

const (
	PhotoPositionAbove  PhotoPosition = "above"
	PhotoPositionBelow  PhotoPosition = "below"
	PhotoPositionLeft   PhotoPosition = "left"
	PhotoPositionRight  PhotoPosition = "right"
	PhotoPositionCenter PhotoPosition = "center"
)

// IconSize controls the rendered size of an item's map icon.
type IconSize string

const (
	IconSizeSmall  IconSize = "small"
	IconSizeMedium IconSize = "medium"
	IconSizeLarge  IconSize = "large"
)

// Container is one node in the storage tree.
//
// Level is a first-class integer attribute (1-based; 1 is the root
// level). The invariant Level == parent.Level+1 holds for every
// non-root container and is enforced at creation.
type Container struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// Purpose and Notes are optional free text.
	Purpose string `json:"purpose,omitempty"`
	Notes   string `json:"notes,omitempty"`

	// Level is the container's 1-based hierarchy level.
	Level int `json:"level"`

	// ParentID is empty for root containers.
	ParentID string `json:"parentId,omitempty"`

	// PhotoID is the opaque photo-artifact identifier, empty if the
	// container has no photo. Not a foreign key; integrity is checked
	// by the validation utility.
	PhotoID string `json:"photoId,omitempty"`

	// Physical dimensions in the level's native unit (feet for
	// large-scale levels, inches otherwise). SideA/SideB are the extra
	// sides used by non-rectangular shapes.
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Height float64 `json:"height"`
	SideA  float64 `json:"sideA,omitempty"`
	SideB  float64 `json:"sideB,omitempty"`

	Shape    ShapeType `json:"shape"`
	Color    string    `json:"color,omitempty"`
	Rotation float64   `json:"rotation,omitempty"`

	// 2-D map placement.
	MapX float64 `json:"mapX"`
	MapY float64 `json:"mapY"`
	MapW float64 `json:"mapW"`
	MapH float64 `json:"mapH"`

	CreatedAt time.Time `json:"createdAt"`
}

// Item is a leaf inventory record owned by exactly one terminal-level
// container.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContainerID string `json:"containerId"`

	// PhotoID is the opaque photo-artifact identifier, empty if none.
	PhotoID string `json:"photoId,omitempty"`

	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Height float64 `json:"height"`

	Category  string    `json:"category,omitempty"`
	Quantity  int       `json:"quantity"`
	Notes     string    `json:"notes,omitempty"`
	SKU       string    `json:"sku,omitempty"`
	Condition Condition `json:"condition"`

	// Photo-on-map display preferences.
	PhotoPosition  PhotoPosition `json:"photoPosition,omitempty"`
	IconSize       IconSize      `json:"iconSize,omitempty"`
	ShowPhotoOnMap bool          `json:"showPhotoOnMap"`

	CreatedAt time.Time `json:"createdAt"`
}

// CreateContainerRequest carries the caller-supplied fields for a new
// container. Zero-valued dimensions and map placement are filled with
// level-appropriate defaults.
type CreateContainerRequest struct {
	Name     string
	Level    int
	ParentID string // empty for root
	Purpose  string
	Notes    string
	Shape    ShapeType // defaults to rectangle
	Color    string

	// Optional explicit dimensions; zero means level default.
	Width  float64
	Length float64
	Height float64
	SideA  float64
	SideB  float64

	// Optional explicit map placement. When HasPosition is false the
	// store computes a grid slot relative to existing siblings.
	HasPosition bool
	MapX        float64
	MapY        float64
	MapW        float64
	MapH        float64
}

// CreateItemRequest carries the caller-supplied fields for a new item.
type CreateItemRequest struct {
	Name        string
	ContainerID string
	Category    string
	Quantity    int // defaults to 1
	Notes       string
	SKU         string
	Condition   Condition // defaults to Good

	Width  float64
	Length float64
	Height float64

	PhotoPosition  PhotoPosition
	IconSize       IconSize
	ShowPhotoOnMap bool
}

// OwnerType distinguishes the kind of entity referencing a photo.
type OwnerType string

const (
	OwnerContainer OwnerType = "container"
	OwnerItem      OwnerType = "item"
)

// PhotoRef links a photo identifier to the entity referencing it.
// Produced by Store.PhotoRefs for the validation utility.
type PhotoRef struct {
	PhotoID   string    `json:"photoId"`
	OwnerID   string    `json:"ownerId"`
	OwnerName string    `json:"ownerName"`
	OwnerType OwnerType `json:"ownerType"`
}

// Removed is the full set of identifiers removed by a cascade delete.
// PhotoIDs lets the caller drive photo-artifact cleanup deterministically;
// the tree store itself never touches photo files.
type Removed struct {
	ContainerIDs []string
	ItemIDs      []string
	PhotoIDs     []string
}

// Empty reports whether the cascade removed nothing.
func (r Removed) Empty() bool {
	return len(r.ContainerIDs) == 0 && len(r.ItemIDs) == 0 && len(r.PhotoIDs) == 0
}
