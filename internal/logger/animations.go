package logger

import "sort"

// Predefined animations. Animation returns these exact slices, and the
// screen treats a repeated slice as the same running animation, so callers
// should pass Animation(name) straight through instead of copying it.
var animations = map[string][]string{
	"loading":      {"/", "-", "\\", "|"},
	"waiting":      {"   ", ".  ", ".. ", "..."},
	"bounce":       {"=     ", " =    ", "  =   ", "   =  ", "    = ", "     =", "    = ", "   =  ", "  =   ", " =    "},
	"progress":     {"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█", "▇", "▆", "▅", "▄", "▃", "▂"},
	"arrows":       {">    ", ">>   ", ">>>  ", " >>> ", "  >>>", "   >>", "    >", "     "},
	"bouncearrows": {">    ", " >   ", "  >  ", "   > ", "    >", "    <", "   < ", "  <  ", " <   ", "<    "},
}

// Animation returns the frames of a predefined animation, or nil when name
// is unknown.
func Animation(name string) []string {
	return animations[name]
}

// AnimationNames lists the predefined animations in sorted order.
func AnimationNames() []string {
	names := make([]string, 0, len(animations))
	for name := range animations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
