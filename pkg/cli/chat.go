package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/alacbot/pkg/usecase/chat"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive conversation with persistent memory",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			ws, wsCfg, err := cfg.newWorkspace()
			if err != nil {
				return err
			}

			svc, err := cfg.newMemoryService(ws, wsCfg)
			if err != nil {
				return err
			}

			runtime, err := cfg.newRuntime(ctx, wsCfg)
			if err != nil {
				return err
			}

			if err := svc.LoadPersistentMemories(ctx, cfg.userID); err != nil {
				return err
			}

			session, err := chat.New(chat.NewInput{
				Runtime:   runtime,
				Memory:    svc,
				Workspace: ws,
				UserID:    cfg.userID,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to create chat session")
			}

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize prompt")
			}
			defer rl.Close()

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Suffix = " thinking..."

			fmt.Fprintf(c.Root().Writer, "Chat session started for %s. Type 'exit' to quit.\n", cfg.userID)

			for {
				line, err := rl.Readline()
				if err != nil {
					if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
						break
					}
					return goerr.Wrap(err, "failed to read input")
				}

				message := strings.TrimSpace(line)
				if message == "" {
					continue
				}
				if message == "exit" {
					break
				}

				sp.Start()
				response, err := session.Send(ctx, message)
				sp.Stop()
				if err != nil {
					return goerr.Wrap(err, "failed to send message")
				}

				fmt.Fprintf(c.Root().Writer, "%s\n\n", response)
			}

			if err := session.Close(); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "\nSession saved: %s\n", ws.SessionPath(cfg.userID, session.ID()))
			return nil
		},
	}
}
