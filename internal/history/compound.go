package history

import (
	"context"
	"fmt"
)

// Compound groups commands into one undo unit.
type Compound struct {
	Name     string
	Commands []Command
}

// Undo undoes the commands newest first.
func (c *Compound) Undo(ctx context.Context) error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Undo(ctx); err != nil {
			return fmt.Errorf("undo %s: %w", c.Commands[i].Description(), err)
		}
	}
	return nil
}

// Redo redoes the commands oldest first.
func (c *Compound) Redo(ctx context.Context) error {
	for _, cmd := range c.Commands {
		if err := cmd.Redo(ctx); err != nil {
			return fmt.Errorf("redo %s: %w", cmd.Description(), err)
		}
	}
	return nil
}

// Description returns the group name, or the single command's description.
func (c *Compound) Description() string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.Commands) == 1 {
		return c.Commands[0].Description()
	}
	return fmt.Sprintf("%d changes", len(c.Commands))
}

// Transaction runs fn inside a group. The group is cancelled when fn fails.
func (h *History) Transaction(name string, fn func() error) error {
	h.BeginGroup(name)

	if err := fn(); err != nil {
		h.CancelGroup()
		return err
	}
	h.EndGroup()
	return nil
}
