package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bep/godartsass/v2"
)

// Preprocessor turns the stylesheet entry file into final CSS text.
type Preprocessor interface {
	Compile(entry string) (string, error)
}

// StylePreprocessor passes plain .css entries through unchanged and compiles
// .scss/.sass entries with the embedded Dart Sass protocol. The Dart Sass
// process is started on first use and reused until Close.
type StylePreprocessor struct {
	// SassBinary overrides the dart-sass executable; empty uses the godartsass default lookup.
	SassBinary string

	mu         sync.Mutex
	transpiler sassTranspiler
	start      func(godartsass.Options) (sassTranspiler, error)
}

type sassTranspiler interface {
	Execute(args godartsass.Args) (godartsass.Result, error)
	Close() error
}

func startDartSass(opts godartsass.Options) (sassTranspiler, error) {
	return godartsass.Start(opts)
}

// Compile implements Preprocessor.
func (p *StylePreprocessor) Compile(entry string) (string, error) {
	src, err := os.ReadFile(entry)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(entry)) {
	case ".scss":
		return p.sass(entry, src, godartsass.SourceSyntaxSCSS)
	case ".sass":
		return p.sass(entry, src, godartsass.SourceSyntaxSASS)
	default:
		return string(src), nil
	}
}

func (p *StylePreprocessor) sass(entry string, src []byte, syntax godartsass.SourceSyntax) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transpiler == nil {
		start := p.start
		if start == nil {
			start = startDartSass
		}
		t, err := start(godartsass.Options{DartSassEmbeddedFilename: p.SassBinary})
		if err != nil {
			return "", fmt.Errorf("start dart sass: %w", err)
		}
		p.transpiler = t
	}
	res, err := p.transpiler.Execute(godartsass.Args{
		Source:       string(src),
		IncludePaths: []string{filepath.Dir(entry)},
		SourceSyntax: syntax,
		OutputStyle:  godartsass.OutputStyleExpanded,
	})
	if err != nil {
		return "", err
	}
	return res.CSS, nil
}

// Close stops the Dart Sass process if one was started.
func (p *StylePreprocessor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transpiler == nil {
		return nil
	}
	err := p.transpiler.Close()
	p.transpiler = nil
	return err
}
