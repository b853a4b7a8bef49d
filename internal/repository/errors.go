// Package repository owns the in-memory reservation table and the
// sentinel errors its operations return.  Higher layers such as the
// dispatcher use errors.Is to classify a failure; on the wire every one
// of these collapses to the "error" reply.
package repository

import "errors"

// ErrInvalidSlot is returned by Reserve and Cancel when the floor name
// is not an exact match of a configured floor or the room index is
// outside [0, RoomCount-1].
var ErrInvalidSlot = errors.New("invalid slot")

// ErrAlreadyReserved is returned by Reserve when the slot count is
// exactly one.
var ErrAlreadyReserved = errors.New("already reserved")

// ErrNotReserved is returned by Cancel when the slot count is zero.
var ErrNotReserved = errors.New("not reserved")

// ErrNotFound is returned by Status when no configured floor has the
// query as a prefix.
var ErrNotFound = errors.New("floor not found")

// ErrUnrecognizedCommand is returned for an action keyword that is not
// reserve, free or show.
var ErrUnrecognizedCommand = errors.New("unrecognized command")

// ErrSlotSaturated is returned by Reserve when the slot already holds
// the largest single-digit count.
var ErrSlotSaturated = errors.New("slot count saturated")

// ErrMalformedRow is returned by LoadFromRows for a seed row that does
// not carry exactly RoomCount single-digit tokens.
var ErrMalformedRow = errors.New("malformed seed row")

// ErrTooManyRows is returned by LoadFromRows when the seed table has
// more rows than there are configured floors.
var ErrTooManyRows = errors.New("seed table has more rows than floors")
