package handler

import "github.com/iliyamo/hotel-floor-reservation/internal/model"

// CommandKind identifies what a request asks the store to do.
type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandReserve
	CommandCancel
	CommandStatus
)

func (k CommandKind) String() string {
	switch k {
	case CommandReserve:
		return "reserve"
	case CommandCancel:
		return "cancel"
	case CommandStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Command is a decoded request.  Room is meaningful only for reserve
// and cancel.
type Command struct {
	Kind  CommandKind
	Floor string
	Room  int
}

// ParseCommand maps a request record to a Command.  The action keyword
// must match exactly and is case-sensitive; "reserved" or "Free" are
// unknown commands.
func ParseCommand(req model.Request) Command {
	switch req.Action {
	case model.ActionReserve:
		return Command{Kind: CommandReserve, Floor: req.Floor, Room: req.Room}
	case model.ActionFree:
		return Command{Kind: CommandCancel, Floor: req.Floor, Room: req.Room}
	case model.ActionShow:
		return Command{Kind: CommandStatus, Floor: req.Floor}
	default:
		return Command{Kind: CommandUnknown}
	}
}
