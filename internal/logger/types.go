package logger

import (
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/outlog/internal/palette"
)

// Entry types.
const (
	TypeInfo  = "info"
	TypeWarn  = "warn"
	TypeError = "error"
	TypeDebug = "debug"
)

// normalizeType converts an entry type to its canonical lowercase form.
// Aliases are folded ("warning" -> "warn", "err" -> "error"). Unknown types
// return "" and are printed verbatim without color.
func normalizeType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "info":
		return TypeInfo
	case "warn", "warning":
		return TypeWarn
	case "err", "error":
		return TypeError
	case "debug":
		return TypeDebug
	default:
		return ""
	}
}

// typeScheme is how one entry type is styled.
type typeScheme struct {
	label   string
	badge   *color.Color // type label
	origin  *color.Color
	message *color.Color // nil leaves the message unstyled
}

// schemeFor returns the styling of kind. Colors come from p so a disabled
// palette yields plain text.
func schemeFor(p *palette.Palette, kind string) typeScheme {
	switch normalizeType(kind) {
	case TypeInfo:
		return typeScheme{
			label:  "INFO",
			badge:  p.Style(color.FgHiCyan),
			origin: p.Style(color.FgHiCyan),
		}
	case TypeWarn:
		return typeScheme{
			label:  "WARN",
			badge:  p.Style(color.FgRed),
			origin: p.Style(color.FgRed),
		}
	case TypeError:
		return typeScheme{
			label:   "ERROR",
			badge:   p.Style(color.FgRed, color.ReverseVideo),
			origin:  p.Style(color.FgRed),
			message: p.Style(color.FgRed),
		}
	case TypeDebug:
		return typeScheme{
			label:  "DEBUG",
			badge:  p.Style(color.FgHiCyan, color.ReverseVideo),
			origin: p.Style(color.FgHiCyan),
		}
	default:
		return typeScheme{label: kind}
	}
}

func paint(c *color.Color, s string) string {
	if c == nil || s == "" {
		return s
	}
	return c.Sprint(s)
}
