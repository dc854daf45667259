package config

import (
	"path/filepath"
	"regexp"
	"strings"

	ferrors "github.com/SearchPilot/ginger/internal/foundation/errors"
)

// maxHashLength is the length of a hex-encoded SHA-1 digest.
const maxHashLength = 40

// Validate checks required fields, directory shapes, masks and patterns, and
// compiles the passthrough patterns. The first problem found is returned as
// a config error naming the field.
func (s *Settings) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"input_dir", s.InputDir},
		{"output_dir", s.OutputDir},
		{"css_input_file", s.CSSInputFile},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return missingField(r.field)
		}
	}

	for _, d := range []struct{ field, value string }{{"input_dir", s.InputDir}, {"output_dir", s.OutputDir}} {
		if !filepath.IsLocal(filepath.FromSlash(d.value)) {
			return invalidField(d.field, "must be a relative path inside the working directory", d.value)
		}
	}
	subdirs := []struct {
		field string
		value string
	}{
		{"templates_dir", s.TemplatesDir},
		{"content_dir", s.ContentDir},
		{"css_dir", s.CSSDir},
		{"js_dir", s.JSDir},
		{"css_input_file", s.CSSInputFile},
	}
	for _, d := range subdirs {
		if !filepath.IsLocal(filepath.FromSlash(d.value)) {
			return invalidField(d.field, "must be a relative path inside input_dir", d.value)
		}
	}
	// Clearing the output must never reach the sources.
	if contains(s.OutputDir, s.InputDir) {
		return invalidField("output_dir", "must not equal or contain input_dir", s.OutputDir)
	}

	if !strings.Contains(s.CSSOutputFileMask, "{hash}") {
		return invalidField("css_output_file_mask", "must contain {hash}", s.CSSOutputFileMask)
	}
	for _, ph := range []string{"{name}", "{hash}"} {
		if !strings.Contains(s.JSOutputFileMask, ph) {
			return invalidField("js_output_file_mask", "must contain "+ph, s.JSOutputFileMask)
		}
	}
	for field, mask := range map[string]string{"css_output_file_mask": s.CSSOutputFileMask, "js_output_file_mask": s.JSOutputFileMask} {
		if strings.ContainsAny(mask, `/\`) {
			return invalidField(field, "must be a file name, not a path", mask)
		}
	}
	if s.FilenameHashLength < 1 || s.FilenameHashLength > maxHashLength {
		return ferrors.ConfigError("filename_hash_length out of range").
			WithContext("field", "filename_hash_length").
			WithContext("value", s.FilenameHashLength).
			WithContext("range", "1..40").
			Build()
	}

	patterns := make([]*regexp.Regexp, 0, len(s.CopyUnmodified))
	for _, p := range s.CopyUnmodified {
		re, err := regexp.Compile(`^(?:` + p + `)`)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid copy_unmodified pattern").
				Fatal().
				WithContext("field", "copy_unmodified").
				WithContext("value", p).
				Build()
		}
		patterns = append(patterns, re)
	}
	s.copyPatterns = patterns
	return nil
}

func missingField(field string) error {
	return ferrors.ConfigError("missing required setting").WithContext("field", field).Build()
}

func invalidField(field, reason, value string) error {
	return ferrors.ConfigError("invalid setting: "+reason).
		WithContext("field", field).
		WithContext("value", value).
		Build()
}

// contains reports whether p equals dir or lies below it. Both are relative
// to the same base.
func contains(dir, p string) bool {
	rel, err := filepath.Rel(filepath.Clean(filepath.FromSlash(dir)), filepath.Clean(filepath.FromSlash(p)))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
