package queue

// ReservationChangedQueue is the broker queue that carries
// ReservationChangedEvent payloads.
const ReservationChangedQueue = "reservation.changed"

// ReservationChangedEvent is published after a reserve or free request
// succeeds.  It carries the slot address and the count after the
// change so consumers can log it without querying the server.
type ReservationChangedEvent struct {
	Action    string `json:"action"`
	Floor     string `json:"floor"`
	Room      int    `json:"room"`
	Count     int    `json:"count"`
	ChangedAt string `json:"changed_at"`
}
