package model

// RoomCount is the number of rooms on every floor.  Valid room indexes
// are 0 through RoomCount-1.
const RoomCount = 24

// MaxCount is the largest occupancy count a slot can hold.  A slot
// stores a single decimal digit.
const MaxCount = 9

// DefaultFloors returns the configured floor identifiers in load and
// dump order.  The slice is freshly allocated on every call so callers
// may keep it without sharing state.
//
// Floor identifiers are fixed for the process lifetime; rows of the
// seed table are applied to these floors by position.
func DefaultFloors() []string {
	return []string{
		"1stFloor",
		"2ndFloor",
		"3rdFloor",
		"4thFloor",
		"5thFloor",
		"6thFloor",
		"7thFloor",
	}
}
