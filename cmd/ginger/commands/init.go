package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/SearchPilot/ginger/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing settings file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(os.Stdout, root.Settings, i.Force)
}

// RunInit writes the example settings file and reports progress on out.
func RunInit(out io.Writer, path string, force bool) error {
	_, _ = fmt.Fprintf(out, "Writing example settings to %s\n", path)
	if err := config.Init(path, force); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "initialized successfully")
	return nil
}
