package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full evaluation configuration. It is immutable once the
// run command has applied its flag overrides; everything downstream
// receives it by pointer and never mutates it.
type Config struct {
	Checkpoint    string        `yaml:"checkpoint"`
	ActionDecoder string        `yaml:"action_decoder"`
	ModelFamily   string        `yaml:"model_family"`
	TrialsPerTask int           `yaml:"trials_per_task"`
	Seed          int           `yaml:"seed"`
	OutputDir     string        `yaml:"output_dir"`
	Suites        []string      `yaml:"suites"`
	Levels        []int         `yaml:"levels"`
	Perturb       Perturbations `yaml:"perturbations"`
	SaveVideo     string        `yaml:"save_video"`
	Eval          Eval          `yaml:"eval"`
	SkipExisting  bool          `yaml:"skip_existing"`
	DryRun        bool          `yaml:"-"`
	VerboseErrors bool          `yaml:"-"`
}

// Perturbations are environment randomization toggles forwarded verbatim
// to the evaluation program.
type Perturbations struct {
	Noise  bool `yaml:"noise"`
	Color  bool `yaml:"color"`
	Light  bool `yaml:"light"`
	Camera bool `yaml:"camera"`
}

// Eval describes how to launch the evaluation program itself.
type Eval struct {
	// Program is the host executable to invoke. Ignored when Image is set.
	Program string `yaml:"program"`
	// Image, when set, runs the evaluation program inside a container
	// instead of as a host process.
	Image string `yaml:"image"`
	// Command overrides the entrypoint inside the container.
	Command string `yaml:"command"`
	// EnvFile is a KEY=VALUE file appended to the child environment.
	EnvFile string `yaml:"env_file"`
	// TimeoutMinutes bounds a single cell. 0 means no deadline.
	TimeoutMinutes int `yaml:"timeout_minutes"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks a config after flag overrides have been applied and
// fills in defaults for optional fields.
func Validate(cfg *Config) error {
	if cfg.Checkpoint == "" {
		return fmt.Errorf("checkpoint is required")
	}
	if cfg.ModelFamily == "" {
		return fmt.Errorf("model_family is required")
	}
	if len(cfg.Suites) == 0 {
		return fmt.Errorf("no suites defined")
	}
	for i, s := range cfg.Suites {
		if s == "" {
			return fmt.Errorf("suite %d: empty name", i)
		}
	}
	if len(cfg.Levels) == 0 {
		return fmt.Errorf("no levels defined")
	}
	for i, l := range cfg.Levels {
		if l < 0 {
			return fmt.Errorf("level %d: must be non-negative, got %d", i, l)
		}
	}
	if cfg.TrialsPerTask < 1 {
		return fmt.Errorf("trials_per_task must be at least 1")
	}
	if cfg.Eval.Program == "" && cfg.Eval.Image == "" {
		return fmt.Errorf("eval: program or image is required")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./eval-logs"
	}
	if cfg.SaveVideo == "" {
		cfg.SaveVideo = "first_success_failure"
	}
	return nil
}
