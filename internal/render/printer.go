// Package render formats the chat session for a terminal
package render

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/fatih/color"

	"github.com/ppiankov/globechat/internal/model"
)

// ColorMode represents color output mode
type ColorMode int

const (
	// ColorAuto enables colors based on environment (default)
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on
	ColorAlways
	// ColorNever forces colors off
	ColorNever
)

// LoadingText is shown while a question is pending
const LoadingText = "Thinking..."

var boldPattern = regexp.MustCompile(`\*\*(.+?)\*\*`)

// ParseColorMode parses a string into a ColorMode
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors determines whether to use colors based on mode and environment
func ResolveColors(mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		if os.Getenv("TERM") == "dumb" {
			return false
		}
		return !color.NoColor
	}
}

// Printer writes chat output
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter creates a printer writing to out and errOut
func NewPrinter(out, errOut io.Writer, mode ColorMode) *Printer {
	return &Printer{
		out:       out,
		err:       errOut,
		useColors: ResolveColors(mode),
	}
}

// Out returns the primary writer
func (p *Printer) Out() io.Writer {
	return p.out
}

// FormatText turns **term** markup into terminal bold, or strips the
// markers when colors are off
func (p *Printer) FormatText(text string) string {
	if !p.useColors {
		return boldPattern.ReplaceAllString(text, "$1")
	}
	bold := color.New(color.Bold)
	bold.EnableColor()
	return boldPattern.ReplaceAllStringFunc(text, func(m string) string {
		return bold.Sprint(boldPattern.FindStringSubmatch(m)[1])
	})
}

// FormatMessage renders one transcript entry with its role prefix
func (p *Printer) FormatMessage(m model.Message) string {
	var prefix string
	switch m.Role {
	case model.RoleUser:
		prefix = p.paint("You:", color.FgCyan, color.Bold)
	default:
		prefix = p.paint("Assistant:", color.FgGreen, color.Bold)
	}
	return prefix + " " + p.FormatText(m.Text)
}

// Message prints one transcript entry
func (p *Printer) Message(m model.Message) {
	fmt.Fprintln(p.out, p.FormatMessage(m))
}

// Transcript prints every message
func (p *Printer) Transcript(messages []model.Message) {
	for _, m := range messages {
		p.Message(m)
	}
}

// Loading prints the pending indicator
func (p *Printer) Loading() {
	fmt.Fprintln(p.out, p.paint(LoadingText, color.Faint))
}

// Suggestions prints numbered question shortcuts
func (p *Printer) Suggestions(suggestions []string) {
	for i, s := range suggestions {
		fmt.Fprintf(p.out, "  %s %s\n", p.paint(fmt.Sprintf("[%d]", i+1), color.FgYellow), s)
	}
}

// Selected prints the active country banner
func (p *Printer) Selected(flag string, record *model.StatisticsRecord) {
	if record == nil {
		fmt.Fprintln(p.out, p.paint("No country selected", color.Faint))
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", flag, p.paint(record.CountryName, color.Bold))
}

// Info prints an informational message
func (p *Printer) Info(format string, args ...interface{}) {
	fmt.Fprintln(p.out, p.paint(fmt.Sprintf(format, args...), color.FgCyan))
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...interface{}) {
	if p.useColors {
		fmt.Fprintln(p.err, p.paint("⚠ "+fmt.Sprintf(format, args...), color.FgYellow))
		return
	}
	fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...interface{}) {
	if p.useColors {
		fmt.Fprintln(p.err, p.paint("✗ "+fmt.Sprintf(format, args...), color.FgRed))
		return
	}
	fmt.Fprintf(p.err, "[ERROR] "+format+"\n", args...)
}

func (p *Printer) paint(text string, attrs ...color.Attribute) string {
	if !p.useColors {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}
