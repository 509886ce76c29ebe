// Package history keeps the undo and redo stacks of executed commands.
//
// Commands are pushed after they applied a change. Undo pops the newest
// entry and calls its Undo; Redo pops the newest undone entry and calls its
// Redo, which replays the command at the current selection. Pushing a new
// entry clears the redo stack.
//
// Entries pushed between BeginGroup and EndGroup are combined into one
// Compound entry that undoes and redoes as a unit.
package history
