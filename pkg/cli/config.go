package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/alacbot/pkg/adapter"
	"github.com/m-mizutani/alacbot/pkg/repository"
	"github.com/m-mizutani/alacbot/pkg/usecase/memory"
	"github.com/m-mizutani/alacbot/pkg/utils/logging"
	"github.com/m-mizutani/alacbot/pkg/workspace"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// config holds configuration values shared across commands
type config struct {
	workspaceDir string
	userID       string
	logLevel     string

	geminiProject  string
	geminiLocation string
	geminiModel    string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "workspace",
			Aliases:     []string{"w"},
			Usage:       "Workspace directory",
			Value:       "./workspace",
			Sources:     cli.EnvVars("ALACBOT_WORKSPACE"),
			Destination: &cfg.workspaceDir,
		},
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "User ID owning the session and memories",
			Sources:     cli.EnvVars("ALACBOT_USER"),
			Destination: &cfg.userID,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("ALACBOT_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// llmFlags returns flags for the agent runtime configuration
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Generative model name",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

// setupLogger installs the process-wide logger at the configured level
func (cfg *config) setupLogger() {
	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))
}

// newWorkspace initializes the workspace tree and loads its config
func (cfg *config) newWorkspace() (*workspace.Workspace, *workspace.Config, error) {
	ws := workspace.New(cfg.workspaceDir)
	if err := ws.Init(); err != nil {
		return nil, nil, err
	}

	wsCfg, err := ws.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	if cfg.userID == "" {
		cfg.userID = wsCfg.DefaultUser
	}

	return ws, wsCfg, nil
}

// newMemoryService creates the memory store backed by the workspace log
// directory, with limits overridden from the workspace config
func (cfg *config) newMemoryService(ws *workspace.Workspace, wsCfg *workspace.Config) (*memory.Service, error) {
	repo, err := repository.NewJSONL(ws.MemoryDir())
	if err != nil {
		return nil, err
	}

	limits := memory.DefaultConfig()
	if wsCfg.Memory.ShortTermLimit > 0 {
		limits.ShortTermLimit = wsCfg.Memory.ShortTermLimit
	}
	if wsCfg.Memory.LongTermLimit > 0 {
		limits.LongTermLimit = wsCfg.Memory.LongTermLimit
	}
	if wsCfg.Memory.WorkingLimit > 0 {
		limits.WorkingLimit = wsCfg.Memory.WorkingLimit
	}
	if wsCfg.Memory.FactLimit > 0 {
		limits.FactLimit = wsCfg.Memory.FactLimit
	}

	return memory.New(repo, memory.WithConfig(limits)), nil
}

// newRuntime creates the external agent runtime adapter
func (cfg *config) newRuntime(ctx context.Context, wsCfg *workspace.Config) (adapter.Runtime, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	var opts []adapter.GeminiOption
	model := cfg.geminiModel
	if model == "" {
		model = wsCfg.Model
	}
	if model != "" {
		opts = append(opts, adapter.WithGenerativeModel(model))
	}

	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
}
