// Package cliprint renders status messages to stdout/stderr, grounded on
// stigmer-stigmer/client-apps/cli/internal/cli/cliprint's glyph-prefixed
// message shape, with fatih/color layered on for the glyph coloring the
// teacher's own plain version left as a TODO.
package cliprint

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	successGlyph = color.GreenString("✓")
	warnGlyph    = color.YellowString("⚠")
	errGlyph     = color.RedString("✗")
)

func Success(format string, args ...any) {
	fmt.Fprintf(os.Stdout, successGlyph+" "+format+"\n", args...)
}

func Info(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}

func Warning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, warnGlyph+" "+format+"\n", args...)
}

func Error(format string, args ...any) {
	fmt.Fprintf(os.Stderr, errGlyph+" "+format+"\n", args...)
}
