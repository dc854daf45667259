package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
)

// DefaultSettingsFile is the settings file used when --settings is not given.
const DefaultSettingsFile = "ginger.yml"

// Settings is the complete, typed build configuration. Directory fields are
// relative to BaseDir (the working directory when empty).
type Settings struct {
	InputDir     string `yaml:"input_dir"`
	TemplatesDir string `yaml:"templates_dir"`
	ContentDir   string `yaml:"content_dir"`
	CSSDir       string `yaml:"css_dir"`
	CSSInputFile string `yaml:"css_input_file"`
	JSDir        string `yaml:"js_dir"`
	OutputDir    string `yaml:"output_dir"`

	CSSOutputFileMask  string `yaml:"css_output_file_mask"`
	JSOutputFileMask   string `yaml:"js_output_file_mask"`
	FilenameHashLength int    `yaml:"filename_hash_length"`

	DefaultTemplate string   `yaml:"default_template"`
	CopyUnmodified  []string `yaml:"copy_unmodified"`

	PreserveOutputOnRebuild bool `yaml:"preserve_output_on_rebuild"`
	Dev                     bool `yaml:"dev"`
	AtomicOutput            bool `yaml:"atomic_output"`

	Watch   WatchConfig   `yaml:"watch"`
	Metrics MetricsConfig `yaml:"metrics"`

	// BaseDir anchors every relative directory. Not read from the file.
	BaseDir string `yaml:"-"`

	copyPatterns []*regexp.Regexp
}

// WatchConfig tunes the rebuild trigger.
type WatchConfig struct {
	Debounce     time.Duration `yaml:"debounce"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// MetricsConfig enables the Prometheus endpoint in watch mode.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Load reads, defaults and validates the settings file at path.
// Environment variables from .env and .env.local are loaded first and
// ${VAR} references in the file are expanded.
func Load(path string) (*Settings, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ferrors.ConfigError("settings file not found").
				WithContext("path", path).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read settings file").
			Fatal().
			WithContext("path", path).
			Build()
	}

	s, err := Parse(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	if err != nil {
		if ce, ok := ferrors.AsClassified(err); ok {
			return nil, ce.WithContext("path", path)
		}
		return nil, err
	}
	return s, nil
}

// Parse decodes settings from r, applies defaults and validates the result.
func Parse(r io.Reader) (*Settings, error) {
	var s Settings
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "decode settings").Fatal().Build()
	}
	s.ApplyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// loadEnvFiles loads .env and .env.local when present. Existing process
// environment variables are never overwritten.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		_ = godotenv.Load(name)
	}
}

// CopyPatterns returns the compiled passthrough patterns. Valid only after Validate.
func (s *Settings) CopyPatterns() []*regexp.Regexp { return s.copyPatterns }

func (s *Settings) path(parts ...string) string {
	return filepath.Join(append([]string{s.BaseDir}, parts...)...)
}

// TemplatesPath is the root of the template tree (renderer search path, passthrough source).
func (s *Settings) TemplatesPath() string { return s.path(s.InputDir, s.TemplatesDir) }

// InputPath is the root watched for changes.
func (s *Settings) InputPath() string { return s.path(s.InputDir) }

// ContentPath is the root of the page descriptor tree.
func (s *Settings) ContentPath() string { return s.path(s.InputDir, s.ContentDir) }

// CSSEntryPath is the single stylesheet entry compiled into the CSS bundle.
func (s *Settings) CSSEntryPath() string {
	return s.path(s.InputDir, s.TemplatesDir, s.CSSDir, s.CSSInputFile)
}

// JSSourcePath is the root of the JS groups.
func (s *Settings) JSSourcePath() string { return s.path(s.InputDir, s.TemplatesDir, s.JSDir) }

// OutputPath is the output root.
func (s *Settings) OutputPath() string { return s.path(s.OutputDir) }
