package prompt

import (
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether both files are attached to a terminal.
func IsInteractive(in, out *os.File) bool {
	if in == nil || out == nil {
		return false
	}

	return term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd())) //nolint:gosec // Fd fits in int.
}
