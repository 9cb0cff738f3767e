package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func sessionsCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "sessions",
		Usage: "List saved session transcripts",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			ws, _, err := cfg.newWorkspace()
			if err != nil {
				return err
			}

			names, err := ws.ListSessions()
			if err != nil {
				return err
			}

			if len(names) == 0 {
				fmt.Fprintf(c.Root().Writer, "No saved sessions in %s\n", ws.SessionDir())
				return nil
			}

			for _, name := range names {
				fmt.Fprintln(c.Root().Writer, name)
			}
			return nil
		},
	}
}
