package mirror

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize removes every terminal escape sequence (colors, cursor
// visibility, cursor movement) and carriage returns from a rendered line,
// leaving the text that belongs in a log file.
func Sanitize(line string) string {
	clean := ansi.Strip(line)
	if strings.ContainsRune(clean, '\r') {
		clean = strings.ReplaceAll(clean, "\r", "")
	}
	return clean
}
