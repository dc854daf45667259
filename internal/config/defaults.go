package config

import "time"

// Defaults for optional settings.
const (
	DefaultTemplatesDir       = "templates"
	DefaultContentDir         = "content"
	DefaultCSSDir             = "css"
	DefaultJSDir              = "js"
	DefaultCSSOutputFileMask  = "styles.{hash}.css"
	DefaultJSOutputFileMask   = "{name}.{hash}.js"
	DefaultFilenameHashLength = 10
	DefaultTemplate           = "index.html"

	DefaultWatchDebounce = 300 * time.Millisecond
	DefaultWatchMaxDelay = 2 * time.Second
)

// ApplyDefaults fills every unset optional field. Required fields are left
// empty so Validate can name them.
func (s *Settings) ApplyDefaults() {
	setDefault(&s.TemplatesDir, DefaultTemplatesDir)
	setDefault(&s.ContentDir, DefaultContentDir)
	setDefault(&s.CSSDir, DefaultCSSDir)
	setDefault(&s.JSDir, DefaultJSDir)
	setDefault(&s.CSSOutputFileMask, DefaultCSSOutputFileMask)
	setDefault(&s.JSOutputFileMask, DefaultJSOutputFileMask)
	setDefault(&s.DefaultTemplate, DefaultTemplate)
	if s.FilenameHashLength == 0 {
		s.FilenameHashLength = DefaultFilenameHashLength
	}
	if s.CopyUnmodified == nil {
		s.CopyUnmodified = []string{}
	}
	if s.Watch.Debounce <= 0 {
		s.Watch.Debounce = DefaultWatchDebounce
	}
	if s.Watch.MaxDelay <= 0 {
		s.Watch.MaxDelay = DefaultWatchMaxDelay
	}
	if s.Watch.PollInterval < 0 {
		s.Watch.PollInterval = 0
	}
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
