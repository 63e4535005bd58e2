package engine

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/pystudio/pystudio/pkg/errors"
)

// ConfigFileName is the per-project configuration file, looked up in the
// project root.
const ConfigFileName = "pystudio.toml"

// Duration wraps time.Duration so TOML values can be written as "3s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the per-project configuration.
//
// All fields are optional; a project without a pystudio.toml gets
// DefaultConfig. Example:
//
//	[env]
//	name = ".venv"
//	base_python = "python3.12"
//
//	[run]
//	grace_period = "5s"
//	timeout = "30s"
//
//	[aliases]
//	wx = "wxpython"
type Config struct {
	Env     EnvConfig         `toml:"env"`
	Run     RunConfig         `toml:"run"`
	Aliases map[string]string `toml:"aliases"`
}

// EnvConfig controls environment detection and creation.
type EnvConfig struct {
	// Name is the directory created by `env create`. Must be one of the
	// candidate names so the new environment is detectable.
	Name string `toml:"name"`

	// Candidates overrides the detection order.
	Candidates []string `toml:"candidates"`

	// BasePython overrides the interpreter used to create environments.
	BasePython string `toml:"base_python"`
}

// RunConfig controls script execution.
type RunConfig struct {
	// GracePeriod is how long a canceled script gets to shut down before
	// it is killed.
	GracePeriod Duration `toml:"grace_period"`

	// Timeout, when set, cancels a run that has been alive this long. The
	// session ends Terminated. Zero means no limit.
	Timeout Duration `toml:"timeout"`
}

// DefaultConfig returns the configuration used when a project has no
// config file.
func DefaultConfig() *Config {
	return &Config{
		Env: EnvConfig{Name: "venv"},
	}
}

// LoadConfig reads the project's pystudio.toml. A missing file is not an
// error; defaults are returned.
func LoadConfig(projectRoot string) (*Config, error) {
	path := filepath.Join(projectRoot, ConfigFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "cannot read %s", ConfigFileName)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "malformed %s", ConfigFileName)
	}
	if cfg.Env.Name != "" {
		if err := errors.ValidateEnvName(cfg.Env.Name); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
