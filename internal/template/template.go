// Package template renders message structures such as
// "[{animation}] [{type} | {origin}] [{date}] {message}".
//
// A template is parsed once into an ordered list of segments: literals,
// fields and optional bracket groups. Rendering walks the segments and
// drops any field or group whose fields are all empty, together with one
// adjacent space, so callers never see dangling brackets or separators.
package template

import (
	"fmt"
	"strings"
)

// Separator joins the items inside an optional bracket group.
const Separator = " | "

type segmentKind int

const (
	kindLiteral segmentKind = iota
	kindField
	kindGroup
)

// part is a literal or a field inside a group item.
type part struct {
	field string
	text  string
}

type segment struct {
	kind  segmentKind
	text  string   // literal text
	field string   // field name
	open  string   // opening and closing group brackets
	close string
	items [][]part // group items, joined by Separator
}

// Template is a parsed message structure.
type Template struct {
	source   string
	segments []segment
	fields   []string
}

// Parse turns a message structure into a Template.
// Fields are written as {name}. A "[...]" or "(...)" run that contains at
// least one field becomes an optional group; its items are separated by " | ".
func Parse(source string) (*Template, error) {
	t := &Template{source: source}
	seen := make(map[string]bool)

	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			t.segments = append(t.segments, segment{kind: kindLiteral, text: literal.String()})
			literal.Reset()
		}
	}
	addField := func(name string) {
		if !seen[name] {
			seen[name] = true
			t.fields = append(t.fields, name)
		}
	}

	for i := 0; i < len(source); {
		c := source[i]

		if c == '[' || c == '(' {
			closeCh := byte(']')
			if c == '(' {
				closeCh = ')'
			}
			end := strings.IndexByte(source[i+1:], closeCh)
			if end >= 0 {
				body := source[i+1 : i+1+end]
				if items, names := parseGroup(body); len(names) > 0 && !strings.ContainsAny(body, "[]()\n") {
					flush()
					t.segments = append(t.segments, segment{
						kind:  kindGroup,
						open:  string(c),
						close: string(closeCh),
						items: items,
					})
					for _, name := range names {
						addField(name)
					}
					i += end + 2
					continue
				}
			}
		}

		if c == '{' {
			if name, n := scanField(source[i:]); n > 0 {
				flush()
				t.segments = append(t.segments, segment{kind: kindField, field: name})
				addField(name)
				i += n
				continue
			}
		}

		literal.WriteByte(c)
		i++
	}
	flush()

	if len(t.fields) == 0 {
		return nil, fmt.Errorf("template %q has no fields", source)
	}

	return t, nil
}

// MustParse is like Parse but panics on error. Intended for package-level defaults.
func MustParse(source string) *Template {
	t, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return t
}

// scanField reads "{name}" at the start of s and returns the name and the
// number of bytes consumed, or 0 when s does not start with a valid field.
func scanField(s string) (string, int) {
	end := strings.IndexByte(s, '}')
	if end <= 1 {
		return "", 0
	}
	name := s[1:end]
	for _, r := range name {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return "", 0
		}
	}
	return name, end + 1
}

// parseGroup splits a bracket body into items of literals and fields.
func parseGroup(body string) ([][]part, []string) {
	var items [][]part
	var names []string

	for _, raw := range strings.Split(body, Separator) {
		var item []part
		var literal strings.Builder
		for i := 0; i < len(raw); {
			if raw[i] == '{' {
				if name, n := scanField(raw[i:]); n > 0 {
					if literal.Len() > 0 {
						item = append(item, part{text: literal.String()})
						literal.Reset()
					}
					item = append(item, part{field: name})
					names = append(names, name)
					i += n
					continue
				}
			}
			literal.WriteByte(raw[i])
			i++
		}
		if literal.Len() > 0 {
			item = append(item, part{text: literal.String()})
		}
		items = append(items, item)
	}

	return items, names
}

// Source returns the template text the Template was parsed from.
func (t *Template) Source() string {
	return t.source
}

// Fields returns the distinct field names in order of first appearance.
func (t *Template) Fields() []string {
	out := make([]string, len(t.fields))
	copy(out, t.fields)
	return out
}

// Has reports whether the template references the named field.
func (t *Template) Has(name string) bool {
	for _, f := range t.fields {
		if f == name {
			return true
		}
	}
	return false
}

type piece struct {
	text    string
	literal bool
	omitted bool
}

// Render substitutes values into the template. Missing keys count as empty.
func (t *Template) Render(values map[string]string) string {
	pieces := make([]piece, 0, len(t.segments))

	for _, seg := range t.segments {
		switch seg.kind {
		case kindLiteral:
			pieces = append(pieces, piece{text: seg.text, literal: true})
		case kindField:
			v := values[seg.field]
			pieces = append(pieces, piece{text: v, omitted: v == ""})
		case kindGroup:
			text, ok := renderGroup(seg, values)
			pieces = append(pieces, piece{text: text, omitted: !ok})
		}
	}

	// Each dropped element takes one neighbouring space with it, preferring
	// the space that follows it.
	for i := range pieces {
		if !pieces[i].omitted {
			continue
		}
		if i+1 < len(pieces) && pieces[i+1].literal && strings.HasPrefix(pieces[i+1].text, " ") {
			pieces[i+1].text = pieces[i+1].text[1:]
			continue
		}
		if i > 0 && pieces[i-1].literal && strings.HasSuffix(pieces[i-1].text, " ") {
			pieces[i-1].text = pieces[i-1].text[:len(pieces[i-1].text)-1]
		}
	}

	var b strings.Builder
	for _, p := range pieces {
		if !p.omitted {
			b.WriteString(p.text)
		}
	}
	return b.String()
}

// renderGroup returns the group text and false when every field-bearing
// item in it is empty.
func renderGroup(seg segment, values map[string]string) (string, bool) {
	kept := make([]string, 0, len(seg.items))
	anyField := false

	for _, item := range seg.items {
		var b strings.Builder
		hasField, hasValue := false, false
		for _, p := range item {
			if p.field == "" {
				b.WriteString(p.text)
				continue
			}
			hasField = true
			if v := values[p.field]; v != "" {
				hasValue = true
				b.WriteString(v)
			}
		}
		if hasField && !hasValue {
			continue
		}
		if hasField {
			anyField = true
		}
		kept = append(kept, b.String())
	}

	if !anyField {
		return "", false
	}
	return seg.open + strings.Join(kept, Separator) + seg.close, true
}
