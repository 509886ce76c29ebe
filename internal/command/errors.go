package command

import "errors"

// Errors returned by commands.
var (
	// ErrBusy indicates Exec, Redo or Undo was called while another call on
	// the same command had not returned.
	ErrBusy = errors.New("command is busy")

	// ErrNoPayload indicates a synchronous command without a preset payload
	// whose prompt values could not be decoded.
	ErrNoPayload = errors.New("command has no payload")
)
