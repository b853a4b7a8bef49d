package model

import (
	"errors" // errors defines the sentinel returned by Validate
	"fmt"    // fmt wraps the sentinel with the offending field
)

// Action keywords understood by the server.  Matching is exact and
// case-sensitive.
const (
	ActionReserve = "reserve"
	ActionFree    = "free"
	ActionShow    = "show"
)

// Reply payloads.  A show request that succeeds replies with the
// floor's status line instead of ReplySuccess.
const (
	ReplySuccess = "success"
	ReplyError   = "error"
)

// FieldLimit is the maximum number of significant characters accepted
// in the action and floor fields of a Request.
const FieldLimit = 9

// ErrFieldTooLong is returned by Validate when the action or floor
// field exceeds FieldLimit.  Overlong fields are rejected rather than
// truncated.
var ErrFieldTooLong = errors.New("request field too long")

// Request is the fixed-shape record a client places on the server
// mailbox.  It is transient: the server forgets it once the reply has
// been sent.
//
// Fields:
//  Action – one of reserve, free, show; anything else is unrecognized.
//  Floor  – floor identifier (exact for reserve/free, prefix for show).
//  Room   – zero-based room index, 0 when the caller omits it.
//  ID     – exchange id set by the sending client and echoed in the
//           Reply; 0 when the sender does not care.
type Request struct {
	Action string `cbor:"action" json:"action"`
	Floor  string `cbor:"floor" json:"floor"`
	Room   int    `cbor:"room" json:"room"`
	ID     uint64 `cbor:"id,omitempty" json:"-"`
}

// Reply is what the server places on the client mailbox for each
// request.  Text is ReplySuccess, ReplyError or a status line; ID is
// copied from the request it answers.
type Reply struct {
	ID   uint64 `cbor:"id"`
	Text string `cbor:"text"`
}

// Validate checks the bounded string fields of the request.
func (r Request) Validate() error {
	if len(r.Action) > FieldLimit {
		return fmt.Errorf("%w: action has %d characters, limit %d", ErrFieldTooLong, len(r.Action), FieldLimit)
	}
	if len(r.Floor) > FieldLimit {
		return fmt.Errorf("%w: floor has %d characters, limit %d", ErrFieldTooLong, len(r.Floor), FieldLimit)
	}
	return nil
}
