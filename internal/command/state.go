package command

// State is the lifecycle state of a command.
type State uint8

const (
	// Idle is the state before the first call and after Undo.
	Idle State = iota
	// Executing means a range is being captured and locked.
	Executing
	// AwaitingInput means an asynchronous command is waiting on its gateway.
	AwaitingInput
	// Mutating means the payload is being applied to the locked range.
	Mutating
	// Applied means the last call mutated the document.
	Applied
	// Released means the last call ended without mutating.
	Released
)

var stateNames = [...]string{
	Idle:          "idle",
	Executing:     "executing",
	AwaitingInput: "awaiting-input",
	Mutating:      "mutating",
	Applied:       "applied",
	Released:      "released",
}

// String returns the state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Settled reports whether s is a terminal state of a call.
func (s State) Settled() bool {
	return s == Idle || s == Applied || s == Released
}
