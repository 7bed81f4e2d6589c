// Package output formats festctl's terminal output.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Printer handles formatted output to the terminal
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// ResolveColors honours NO_COLOR and dumb terminals before the config value.
func ResolveColors(configColors bool) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return configColors
}

// NewPrinter creates a printer writing to out and errOut.
func NewPrinter(out, errOut io.Writer, useColors bool) *Printer {
	return &Printer{out: out, err: errOut, useColors: useColors}
}

// Out is the writer for regular output.
func (p *Printer) Out() io.Writer {
	return p.out
}

// Info prints an informational message
func (p *Printer) Info(format string, args ...any) {
	p.line(p.out, color.FgCyan, "", "", format, args...)
}

// Success prints a success message
func (p *Printer) Success(format string, args ...any) {
	p.line(p.out, color.FgGreen, "✓ ", "[OK] ", format, args...)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...any) {
	p.line(p.err, color.FgYellow, "⚠ ", "[WARN] ", format, args...)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...any) {
	p.line(p.err, color.FgRed, "✗ ", "[ERROR] ", format, args...)
}

func (p *Printer) line(w io.Writer, attr color.Attribute, colorPrefix, plainPrefix, format string, args ...any) {
	if p.useColors {
		c := color.New(attr)
		c.EnableColor()
		c.Fprintf(w, colorPrefix+format+"\n", args...)
		return
	}
	fmt.Fprintf(w, plainPrefix+format+"\n", args...)
}

// StatusBadge renders a session state.
func (p *Printer) StatusBadge(authenticated bool) string {
	label := "signed out"
	if authenticated {
		label = "signed in"
	}
	if !p.useColors {
		return label
	}
	if authenticated {
		return color.New(color.FgGreen).Sprint("● " + label)
	}
	return color.New(color.FgRed).Sprint("● " + label)
}
