package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

const configFileName = "alacbot.yml"

// Config is the workspace configuration loaded from alacbot.yml. Zero
// values mean "use the built-in default".
type Config struct {
	WorkspaceName string `yaml:"workspace_name"`
	DefaultUser   string `yaml:"default_user"`
	Model         string `yaml:"model"`

	AutoSave         bool          `yaml:"auto_save"`
	AutoSaveInterval time.Duration `yaml:"auto_save_interval"`

	Memory MemoryLimits `yaml:"memory"`
}

// MemoryLimits overrides the memory store capacity limits. Zero keeps the
// default for that category.
type MemoryLimits struct {
	ShortTermLimit int `yaml:"short_term_limit"`
	LongTermLimit  int `yaml:"long_term_limit"`
	WorkingLimit   int `yaml:"working_limit"`
	FactLimit      int `yaml:"fact_limit"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		WorkspaceName:    "alacbot",
		DefaultUser:      "default",
		AutoSave:         true,
		AutoSaveInterval: 30 * time.Second,
	}
}

// LoadConfig reads alacbot.yml from the workspace root. A missing file is
// not an error and yields the defaults.
func (w *Workspace) LoadConfig() (*Config, error) {
	path := filepath.Join(w.root, configFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}
	return cfg, nil
}
