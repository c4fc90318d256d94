// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Trailhead Contributors

package hunt

import "time"

// ItemType is the closed visibility class of a catalog item.
type ItemType string

// ItemType constants define the valid visibility classes.
const (
	ItemTypePrivate ItemType = "private"
	ItemTypePublic  ItemType = "public"
)

// Validate returns an error if the type is not a known variant.
func (t ItemType) Validate() error {
	switch t {
	case ItemTypePrivate, ItemTypePublic:
		return nil
	default:
		return &ValidationError{Field: "type", Message: "must be private or public"}
	}
}

// Item is a catalog entry that quests place in the field as instances.
// Private items are visible to admins only; public items to everyone.
type Item struct {
	ID          int64
	Name        string
	Description string
	Type        ItemType
	CreatedAt   time.Time
}

// GeoPoint is a longitude/latitude pair marking a placement in the field.
type GeoPoint struct {
	Lon float64 `json:"lon" yaml:"lon"`
	Lat float64 `json:"lat" yaml:"lat"`
}

// ItemInstance is a placement of a catalog item within a quest.
type ItemInstance struct {
	ID          int64
	ItemID      int64
	QuestID     int64
	UnitID      int64
	Name        string
	Description string
	Location    *GeoPoint
	CreatedAt   time.Time
}
