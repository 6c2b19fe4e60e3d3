package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/czcorpus/cnc-gokit/collections"
	"github.com/czcorpus/cnc-gokit/logging"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// MaxRetriesLimit bounds rewrite.max_retries. With a 5s initial delay the
// last backoff at this limit is already about 45 hours.
const MaxRetriesLimit = 16

// KnownStyles lists every style name the tool understands. The first one is
// the unmodified question used as evaluation baseline.
var KnownStyles = []string{"original_question", "casual", "standard", "sonkeigo", "kenjougo"}

type Config struct {
	Generation Provider `yaml:"generation"`
	Answering  Provider `yaml:"answering"`
	Dataset    Dataset  `yaml:"dataset"`
	Rewrite    Rewrite  `yaml:"rewrite"`
	Analyze    Analyze  `yaml:"analyze"`
	Evaluate   Evaluate `yaml:"evaluate"`
	Logging    Logging  `yaml:"logging"`
}

type Provider struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	OllamaURL   string  `yaml:"ollama_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type Dataset struct {
	Path        string `yaml:"path"`
	Format      string `yaml:"format"`
	SQLiteTable string `yaml:"sqlite_table"`
	NumSamples  int    `yaml:"num_samples"`
}

type Rewrite struct {
	Output             string        `yaml:"output"`
	CheckpointInterval int           `yaml:"checkpoint_interval"`
	MaxRetries         int           `yaml:"max_retries"`
	InitialDelay       time.Duration `yaml:"initial_delay"`
	Styles             []string      `yaml:"styles"`
}

type Analyze struct {
	Dictionary string `yaml:"dictionary"`
	TopPOS     int    `yaml:"top_pos"`
	Output     string `yaml:"output"`
}

type Evaluate struct {
	OutputDir string   `yaml:"output_dir"`
	Styles    []string `yaml:"styles"`
}

type Logging struct {
	Level logging.LogLevel `yaml:"level"`
	File  string           `yaml:"file"`
}

// Conf converts the section for logging.SetupLogging. Rotation only applies
// when File is set.
func (l Logging) Conf() logging.LoggingConf {
	return logging.LoggingConf{
		Path:        l.File,
		Level:       l.Level,
		MaxFileSize: 50,
		MaxFiles:    3,
		MaxAgeDays:  28,
	}
}

// ConfigDir returns the XDG config directory for keigobench.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "keigobench")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/keigobench/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'keigobench init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Generation: Provider{
			Provider:    "openai",
			Model:       "gemini-2.5-flash-lite",
			OllamaURL:   "http://localhost:11434",
			APIKeyEnv:   "GEMINI_API_KEY",
			Temperature: 0.2,
			MaxTokens:   8192,
		},
		Answering: Provider{
			Provider:  "openai",
			Model:     "gemini-2.5-flash-lite",
			OllamaURL: "http://localhost:11434",
			APIKeyEnv: "GEMINI_API_KEY",
			MaxTokens: 512,
		},
		Dataset: Dataset{
			Format:     "jcommonsenseqa",
			NumSamples: 1000,
		},
		Rewrite: Rewrite{
			Output:             "data/rewritten_dataset.json",
			CheckpointInterval: 50,
			MaxRetries:         5,
			InitialDelay:       5 * time.Second,
			Styles:             []string{"casual", "standard", "sonkeigo", "kenjougo"},
		},
		Analyze: Analyze{
			Dictionary: "uni",
			TopPOS:     5,
		},
		Evaluate: Evaluate{
			OutputDir: "data",
			Styles:    append([]string(nil), KnownStyles...),
		},
		Logging: Logging{Level: "info"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	// answering is compared letter by letter, so it always runs cold
	cfg.Answering.Temperature = 0

	return cfg, nil
}

// Validate checks the values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var errs []error
	if c.Rewrite.CheckpointInterval <= 0 {
		errs = append(errs, fmt.Errorf("rewrite.checkpoint_interval must be positive, got %d", c.Rewrite.CheckpointInterval))
	}
	if c.Rewrite.MaxRetries <= 0 || c.Rewrite.MaxRetries > MaxRetriesLimit {
		errs = append(errs, fmt.Errorf("rewrite.max_retries must be in 1..%d, got %d", MaxRetriesLimit, c.Rewrite.MaxRetries))
	}
	if c.Rewrite.InitialDelay <= 0 {
		errs = append(errs, fmt.Errorf("rewrite.initial_delay must be positive, got %s", c.Rewrite.InitialDelay))
	}
	if c.Dataset.NumSamples < 0 {
		errs = append(errs, fmt.Errorf("dataset.num_samples must not be negative"))
	}
	if c.Analyze.TopPOS <= 0 {
		errs = append(errs, fmt.Errorf("analyze.top_pos must be positive, got %d", c.Analyze.TopPOS))
	}
	switch c.Analyze.Dictionary {
	case "uni", "ipa":
	default:
		errs = append(errs, fmt.Errorf("analyze.dictionary must be uni or ipa, got %q", c.Analyze.Dictionary))
	}
	if !c.Logging.Level.IsValid() {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	errs = append(errs, checkStyles("rewrite.styles", c.Rewrite.Styles, false)...)
	errs = append(errs, checkStyles("evaluate.styles", c.Evaluate.Styles, true)...)
	return errors.Join(errs...)
}

func checkStyles(field string, styles []string, allowOriginal bool) []error {
	if len(styles) == 0 {
		return []error{fmt.Errorf("%s must not be empty", field)}
	}
	var errs []error
	seen := make(map[string]bool, len(styles))
	for _, s := range styles {
		if !collections.SliceContains(KnownStyles, s) {
			errs = append(errs, fmt.Errorf("%s: unknown style %q", field, s))
			continue
		}
		if s == KnownStyles[0] && !allowOriginal {
			errs = append(errs, fmt.Errorf("%s: %q cannot be a rewrite target", field, s))
		}
		if seen[s] {
			errs = append(errs, fmt.Errorf("%s: duplicate style %q", field, s))
		}
		seen[s] = true
	}
	return errs
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
