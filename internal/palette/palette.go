// Package palette maps style names to terminal escape sequences.
//
// The sequences are opaque strings to the rest of outlog: they are
// concatenated into rendered lines and later removed again by the
// mirror's sanitizer before anything reaches the log file.
package palette

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// Reset is the SGR sequence that clears every active style.
const Reset = "\x1b[0m"

var attributes = map[string]color.Attribute{
	"reset":      color.Reset,
	"bold":       color.Bold,
	"dim":        color.Faint,
	"italic":     color.Italic,
	"underscore": color.Underline,
	"blink":      color.BlinkSlow,
	"background": color.ReverseVideo,
	"hidden":     color.Concealed,
	"crossed":    color.CrossedOut,

	"fgblack":   color.FgBlack,
	"fgred":     color.FgRed,
	"fggreen":   color.FgGreen,
	"fgyellow":  color.FgYellow,
	"fgblue":    color.FgBlue,
	"fgmagenta": color.FgMagenta,
	"fgcyan":    color.FgCyan,
	"fgwhite":   color.FgWhite,

	"bgblack":   color.BgBlack,
	"bgred":     color.BgRed,
	"bggreen":   color.BgGreen,
	"bgyellow":  color.BgYellow,
	"bgblue":    color.BgBlue,
	"bgmagenta": color.BgMagenta,
	"bgcyan":    color.BgCyan,
	"bgwhite":   color.BgWhite,

	"brfgblack":   color.FgHiBlack,
	"brfgred":     color.FgHiRed,
	"brfggreen":   color.FgHiGreen,
	"brfgyellow":  color.FgHiYellow,
	"brfgblue":    color.FgHiBlue,
	"brfgmagenta": color.FgHiMagenta,
	"brfgcyan":    color.FgHiCyan,
	"brfgwhite":   color.FgHiWhite,

	"brbgblack":   color.BgHiBlack,
	"brbgred":     color.BgHiRed,
	"brbggreen":   color.BgHiGreen,
	"brbgyellow":  color.BgHiYellow,
	"brbgblue":    color.BgHiBlue,
	"brbgmagenta": color.BgHiMagenta,
	"brbgcyan":    color.BgHiCyan,
	"brbgwhite":   color.BgHiWhite,
}

// Palette resolves style names. A disabled palette resolves every name to
// the empty string so callers never need to branch on color support.
type Palette struct {
	enabled bool
}

// New creates a Palette. Pass !color.NoColor to follow the terminal's
// color support the same way fatih/color does.
func New(enabled bool) *Palette {
	return &Palette{enabled: enabled}
}

// Enabled reports whether the palette emits escape sequences.
func (p *Palette) Enabled() bool {
	return p.enabled
}

// Get returns the escape sequence for a style name (case-insensitive).
// Unknown names and disabled palettes return "".
func (p *Palette) Get(name string) string {
	if !p.enabled {
		return ""
	}
	attr, ok := attributes[strings.ToLower(name)]
	if !ok {
		return ""
	}
	return Sequence(attr)
}

// Reset returns the reset sequence, or "" when the palette is disabled.
func (p *Palette) Reset() string {
	if !p.enabled {
		return ""
	}
	return Reset
}

// Style returns a fatih/color Color whose output follows the palette's
// enabled state rather than the package-global NoColor switch.
func (p *Palette) Style(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Names lists every known style name in sorted order.
func Names() []string {
	names := make([]string, 0, len(attributes))
	for name := range attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sequence formats a single SGR attribute as an escape sequence.
func Sequence(attr color.Attribute) string {
	return fmt.Sprintf("\x1b[%dm", int(attr))
}
