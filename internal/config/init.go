package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
)

// Example returns the settings written by Init.
func Example() Settings {
	s := Settings{
		InputDir:       "site",
		CSSInputFile:   "main.scss",
		OutputDir:      "output",
		CopyUnmodified: []string{`.*\.(png|jpe?g|gif|svg|ico)$`, `robots\.txt$`},
	}
	s.ApplyDefaults()
	return s
}

// Init writes an example settings file to path. An existing file is only
// replaced when force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ValidationError("settings file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	example := Example()
	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("marshal example settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write settings file").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return nil
}
