package models

import (
	"database/sql/driver"

	"github.com/google/uuid"
)

// SeasonID identifies a season.
type SeasonID uuid.UUID

func (id SeasonID) String() string               { return uuid.UUID(id).String() }
func (id SeasonID) IsZero() bool                 { return uuid.UUID(id) == uuid.Nil }
func (id SeasonID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *SeasonID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}
func (id SeasonID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *SeasonID) Scan(src any) error          { return (*uuid.UUID)(id).Scan(src) }

// SlotID identifies one voting round within a season.
type SlotID uuid.UUID

func (id SlotID) String() string               { return uuid.UUID(id).String() }
func (id SlotID) IsZero() bool                 { return uuid.UUID(id) == uuid.Nil }
func (id SlotID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *SlotID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}
func (id SlotID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *SlotID) Scan(src any) error          { return (*uuid.UUID)(id).Scan(src) }

// ItemID identifies a submitted clip.
type ItemID uuid.UUID

func (id ItemID) String() string               { return uuid.UUID(id).String() }
func (id ItemID) IsZero() bool                 { return uuid.UUID(id) == uuid.Nil }
func (id ItemID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id *ItemID) UnmarshalText(data []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(data)
}
func (id ItemID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id *ItemID) Scan(src any) error          { return (*uuid.UUID)(id).Scan(src) }

// VoterID is the external identity of a voter or submitter. Authentication is a
// collaborator concern; the core only ever compares these for equality.
type VoterID string

// NodeID names a contributing counter writer (one per process).
type NodeID string

// SeasonStatus is the lifecycle status of a season.
type SeasonStatus string

const (
	SeasonStatusActive   SeasonStatus = "ACTIVE"
	SeasonStatusInactive SeasonStatus = "INACTIVE"
	SeasonStatusFinished SeasonStatus = "FINISHED"
)

// SlotStatus is the lifecycle status of a slot.
type SlotStatus string

const (
	SlotStatusUpcoming        SlotStatus = "UPCOMING"
	SlotStatusWaitingForClips SlotStatus = "WAITING_FOR_CLIPS"
	SlotStatusVoting          SlotStatus = "VOTING"
	SlotStatusLocked          SlotStatus = "LOCKED"
	SlotStatusArchived        SlotStatus = "ARCHIVED"
)

// ItemStatus is the lifecycle status of a submitted clip.
type ItemStatus string

const (
	ItemStatusPending    ItemStatus = "PENDING"
	ItemStatusActive     ItemStatus = "ACTIVE"
	ItemStatusLocked     ItemStatus = "LOCKED"
	ItemStatusRejected   ItemStatus = "REJECTED"
	ItemStatusEliminated ItemStatus = "ELIMINATED"
)
