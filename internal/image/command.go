package image

import (
	"github.com/dshills/vellum/internal/command"
	"github.com/dshills/vellum/internal/document"
	"github.com/dshills/vellum/internal/tool"
)

// ToolName is the name the image command is registered under.
const ToolName = "insertImage"

// Command is the image command type.
type Command = command.Command[document.Descriptor]

// NewCommand creates an image command with its own policy.
func NewCommand(src command.RangeSource, s Settings, observer Observer, opts ...command.Option) *Command {
	opts = append([]command.Option{command.WithDescription(s.Localization.Title)}, opts...)
	return command.New[document.Descriptor](ToolName, src, NewPolicy(s, observer), opts...)
}

// Factory returns a tool factory building image commands. Every command gets
// its own policy, so replays only ever touch the node that command produced.
func Factory(s Settings, observer Observer) tool.Factory {
	return func(env tool.Env) tool.Command {
		return NewCommand(env.Source, s, observer, env.Options()...)
	}
}
