// Package codec encodes request and reply records for the mailboxes.
// Both travel as CBOR maps with core deterministic
// encoding, so the same request always produces the same bytes.
package codec

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/iliyamo/hotel-floor-reservation/internal/model"
)

// DefaultMessageLimit bounds an encoded message.  It is also the
// per-message size of the mailboxes.
const DefaultMessageLimit = 1024

// ErrMessageTooLarge is returned when an encoded message exceeds the
// configured limit.
var ErrMessageTooLarge = errors.New("message exceeds limit")

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		MaxArrayElements: 16,
		MaxMapPairs:      16,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// EncodeRequest marshals a request and checks it against limit.  A
// limit of zero or less means DefaultMessageLimit.
func EncodeRequest(req model.Request, limit int) ([]byte, error) {
	data, err := encMode.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	if err := checkLimit(len(data), limit); err != nil {
		return nil, err
	}
	return data, nil
}

// DecodeRequest unmarshals a request received from a mailbox.  Unknown
// fields are ignored; a missing room decodes as 0.
func DecodeRequest(data []byte, limit int) (model.Request, error) {
	var req model.Request
	if err := checkLimit(len(data), limit); err != nil {
		return req, err
	}
	if err := decMode.Unmarshal(data, &req); err != nil {
		return model.Request{}, fmt.Errorf("decoding request: %w", err)
	}
	return req, nil
}

// EncodeReply marshals a reply and checks it against limit.
func EncodeReply(reply model.Reply, limit int) ([]byte, error) {
	data, err := encMode.Marshal(reply)
	if err != nil {
		return nil, fmt.Errorf("encoding reply: %w", err)
	}
	if err := checkLimit(len(data), limit); err != nil {
		return nil, err
	}
	return data, nil
}

// DecodeReply unmarshals a reply taken from the client mailbox.
func DecodeReply(data []byte, limit int) (model.Reply, error) {
	var reply model.Reply
	if err := checkLimit(len(data), limit); err != nil {
		return reply, err
	}
	if err := decMode.Unmarshal(data, &reply); err != nil {
		return model.Reply{}, fmt.Errorf("decoding reply: %w", err)
	}
	return reply, nil
}

func checkLimit(size, limit int) error {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if size > limit {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrMessageTooLarge, size, limit)
	}
	return nil
}
