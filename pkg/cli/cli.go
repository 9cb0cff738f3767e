package cli

import (
	"context"

	"github.com/m-mizutani/alacbot/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "alacbot",
		Usage: "Conversational agent gateway with tiered memory",
		Commands: []*cli.Command{
			chatCommand(),
			memoryCommand(),
			sessionsCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Error("command failed", "error", err)
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
