package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/m-mizutani/alacbot/pkg/usecase/memory"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func memoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "memory",
		Usage: "Inspect and manage the memory store",
		Commands: []*cli.Command{
			memoryStatsCommand(),
			memorySearchCommand(),
			memorySummaryCommand(),
			memoryExportCommand(),
			memoryClearCommand(),
		},
	}
}

// newLoadedService builds the memory service and replays the user's logs
func newLoadedService(ctx context.Context, cfg *config) (*memory.Service, error) {
	cfg.setupLogger()

	ws, wsCfg, err := cfg.newWorkspace()
	if err != nil {
		return nil, err
	}

	svc, err := cfg.newMemoryService(ws, wsCfg)
	if err != nil {
		return nil, err
	}

	if err := svc.LoadPersistentMemories(ctx, cfg.userID); err != nil {
		return nil, err
	}

	return svc, nil
}

func memoryStatsCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "stats",
		Usage: "Show memory counts and average importance",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			svc, err := newLoadedService(ctx, &cfg)
			if err != nil {
				return err
			}

			stats := svc.GetStats(cfg.userID)
			w := c.Root().Writer
			fmt.Fprintf(w, "User:\t%s\n", cfg.userID)
			fmt.Fprintf(w, "Total:\t%d\n", stats.TotalMemories)
			fmt.Fprintf(w, "Facts:\t%d\n", stats.FactCount)
			fmt.Fprintf(w, "Long-term:\t%d\n", stats.LongTermCount)
			fmt.Fprintf(w, "Working:\t%d\n", stats.WorkingCount)
			fmt.Fprintf(w, "Short-term:\t%d\n", stats.ShortTermCount)
			fmt.Fprintf(w, "Avg importance:\t%.1f\n", stats.AverageImportance)
			return nil
		},
	}
}

func memorySearchCommand() *cli.Command {
	var (
		cfg   config
		limit int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of results",
			Value:       memory.DefaultRelevanceLimit,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Rank memories by relevance to a query",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.Join(c.Args().Slice(), " ")
			if query == "" {
				return goerr.New("query is required")
			}

			svc, err := newLoadedService(ctx, &cfg)
			if err != nil {
				return err
			}

			entries := svc.GetRelevantMemories(cfg.userID, query, int(limit))
			if len(entries) == 0 {
				fmt.Fprintf(c.Root().Writer, "No matching memories for %q\n", query)
				return nil
			}

			for _, e := range entries {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%d\t%s\n",
					e.ID,
					e.Category,
					e.Importance,
					e.Content,
				)
			}
			return nil
		},
	}
}

func memorySummaryCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "summary",
		Usage: "Print the memory digest injected into the agent prompt",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			svc, err := newLoadedService(ctx, &cfg)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, svc.GenerateMemorySummary(cfg.userID))
			return nil
		},
	}
}

func memoryExportCommand() *cli.Command {
	var (
		cfg    config
		output string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Write the export to a file instead of stdout",
			Destination: &output,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "export",
		Usage: "Export all memories as markdown",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			svc, err := newLoadedService(ctx, &cfg)
			if err != nil {
				return err
			}

			markdown := svc.ExportMarkdown(cfg.userID)
			if output == "" {
				fmt.Fprintln(c.Root().Writer, markdown)
				return nil
			}

			if err := os.WriteFile(output, []byte(markdown), 0644); err != nil {
				return goerr.Wrap(err, "failed to write export", goerr.V("path", output))
			}
			fmt.Fprintf(c.Root().Writer, "Exported to %s\n", output)
			return nil
		},
	}
}

func memoryClearCommand() *cli.Command {
	var (
		cfg   config
		force bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "force",
			Aliases:     []string{"f"},
			Usage:       "Confirm deletion of all memories for the user",
			Destination: &force,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "clear",
		Usage: "Delete all memories and log files for the user",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if !force {
				return goerr.New("refusing to clear memories without --force")
			}

			svc, err := newLoadedService(ctx, &cfg)
			if err != nil {
				return err
			}

			if err := svc.Clear(ctx, cfg.userID); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Cleared all memories for %s\n", cfg.userID)
			return nil
		},
	}
}
