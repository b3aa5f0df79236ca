package recorder

import "fmt"

// State is the recorder lifecycle phase. Capture only happens in
// StateRecording; every command is validated against the current state
// before any side effect runs.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

// Command names a recorder lifecycle request.
type Command string

const (
	CommandStart   Command = "start"
	CommandPause   Command = "pause"
	CommandResume  Command = "resume"
	CommandStop    Command = "stop"
	CommandDiscard Command = "discard"
)

// TransitionError reports a command rejected in the current state. The
// recorder's state is unchanged when one is returned.
type TransitionError struct {
	From    State
	Command Command
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Command, e.From)
}

// transitions is the full legal-transition table. Absence means the
// command is rejected in that state. Discard is deliberately not here: it
// is a session mutation that never moves the state machine, so the
// recorder gates it on session presence instead.
var transitions = map[State]map[Command]State{
	StateIdle: {
		CommandStart: StateRecording,
	},
	StateRecording: {
		CommandPause: StatePaused,
		CommandStop:  StateStopped,
	},
	StatePaused: {
		CommandResume: StateRecording,
		CommandStop:   StateStopped,
	},
	StateStopped: {
		CommandStart: StateRecording,
	},
}

// Next resolves the state reached by applying command in from, or a
// TransitionError when the pair is not in the table.
func Next(from State, command Command) (State, error) {
	if to, ok := transitions[from][command]; ok {
		return to, nil
	}
	return from, &TransitionError{From: from, Command: command}
}
