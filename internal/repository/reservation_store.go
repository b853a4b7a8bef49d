package repository

import (
	"fmt"
	"strings"
	"sync"

	"github.com/iliyamo/hotel-floor-reservation/internal/model"
)

// SeedRow is one row of the initial-state table: the floor name token
// followed by the occupancy digit tokens for every room.  Rows are
// applied to floors by position; Name is informational only.
type SeedRow struct {
	Name  string
	Slots []string
}

// ReservationStore holds the occupancy table for a fixed set of floors.
// Every floor has model.RoomCount slots, each a count from 0 to
// model.MaxCount.
//
// The dispatcher is the sole mutator.  The mutex makes each operation
// atomic so readers such as the shutdown reporter never observe a
// half-applied check-then-update.
type ReservationStore struct {
	mu     sync.Mutex
	floors []string
	counts [][model.RoomCount]uint8
}

// NewReservationStore constructs an empty table (every count zero) for
// the given floors, kept in the given order.
func NewReservationStore(floors []string) *ReservationStore {
	names := make([]string, len(floors))
	copy(names, floors)
	return &ReservationStore{
		floors: names,
		counts: make([][model.RoomCount]uint8, len(names)),
	}
}

// Floors returns the configured floor identifiers in order.
func (s *ReservationStore) Floors() []string {
	out := make([]string, len(s.floors))
	copy(out, s.floors)
	return out
}

// Reserve increments the count of the slot.  A count of exactly one is
// the only "occupied" value: counts of zero or two and above are
// treated as free and keep incrementing.
func (s *ReservationStore) Reserve(floor string, room int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.slot(floor, room)
	if err != nil {
		return err
	}
	switch {
	case *slot == 1:
		return fmt.Errorf("%w: %s room %d", ErrAlreadyReserved, floor, room)
	case *slot >= model.MaxCount:
		return fmt.Errorf("%w: %s room %d", ErrSlotSaturated, floor, room)
	}
	*slot++
	return nil
}

// Cancel decrements the count of the slot; a zero count cannot be
// cancelled.
func (s *ReservationStore) Cancel(floor string, room int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.slot(floor, room)
	if err != nil {
		return err
	}
	if *slot == 0 {
		return fmt.Errorf("%w: %s room %d", ErrNotReserved, floor, room)
	}
	*slot--
	return nil
}

// Count reports the current count of a slot, addressed the same way as
// Reserve and Cancel.
func (s *ReservationStore) Count(floor string, room int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, err := s.slot(floor, room)
	if err != nil {
		return 0, err
	}
	return int(*slot), nil
}

// Status renders the first configured floor whose name starts with
// query.  Unlike Reserve and Cancel this is a prefix match, so "3rd"
// and even "" select a floor.
func (s *ReservationStore) Status(query string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, name := range s.floors {
		if strings.HasPrefix(name, query) {
			return s.line(i), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, query)
}

// Snapshot renders every floor in configured order.
func (s *ReservationStore) Snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, len(s.floors))
	for i := range s.floors {
		lines[i] = s.line(i)
	}
	return lines
}

// LoadFromRows populates the table from seed rows, row i onto floor i.
// The row's own name token is not matched against the floor name.  The
// table is left untouched when any row is rejected.
func (s *ReservationStore) LoadFromRows(rows []SeedRow) error {
	if len(rows) > len(s.floors) {
		return fmt.Errorf("%w: %d rows for %d floors", ErrTooManyRows, len(rows), len(s.floors))
	}
	parsed := make([][model.RoomCount]uint8, len(rows))
	for i, row := range rows {
		if len(row.Slots) != model.RoomCount {
			return fmt.Errorf("%w: row %d (%s) has %d slots, want %d", ErrMalformedRow, i+1, row.Name, len(row.Slots), model.RoomCount)
		}
		for j, token := range row.Slots {
			if len(token) != 1 || token[0] < '0' || token[0] > '9' {
				return fmt.Errorf("%w: row %d (%s) room %d: %q is not a digit", ErrMalformedRow, i+1, row.Name, j, token)
			}
			parsed[i][j] = token[0] - '0'
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	copy(s.counts, parsed)
	return nil
}

// slot resolves an exact floor name and room index.  Callers hold mu.
func (s *ReservationStore) slot(floor string, room int) (*uint8, error) {
	if room < 0 || room >= model.RoomCount {
		return nil, fmt.Errorf("%w: room %d out of range", ErrInvalidSlot, room)
	}
	for i, name := range s.floors {
		if name == floor {
			return &s.counts[i][room], nil
		}
	}
	return nil, fmt.Errorf("%w: unknown floor %q", ErrInvalidSlot, floor)
}

// line formats "<floor> d d ... d " with a trailing space after every
// digit and no newline.  Callers hold mu.
func (s *ReservationStore) line(i int) string {
	var b strings.Builder
	b.Grow(len(s.floors[i]) + 1 + 2*model.RoomCount)
	b.WriteString(s.floors[i])
	b.WriteByte(' ')
	for _, c := range s.counts[i] {
		b.WriteByte('0' + c)
		b.WriteByte(' ')
	}
	return b.String()
}
