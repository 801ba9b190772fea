package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/moffa90/go-fdt/dtread"
)

// dump writes the reserved entries and node hierarchy of r to w, one line
// per item, children indented by two spaces.
func dump(w io.Writer, r dtread.Reader) error {
	for _, e := range r.ReservedEntries() {
		if _, err := fmt.Fprintf(w, "reserved: 0x%X, 0x%X\n", e.Address, e.Size); err != nil {
			return err
		}
	}

	indent := 0
	return r.Walk(func(it dtread.Item) error {
		var err error
		switch it.Kind {
		case dtread.BeginNode:
			name := it.Name
			if name == "" {
				name = "/"
			}
			_, err = fmt.Fprintf(w, "%s%s {\n", strings.Repeat(" ", indent), name)
			indent += 2
		case dtread.EndNode:
			indent -= 2
			_, err = fmt.Fprintf(w, "%s}\n", strings.Repeat(" ", indent))
		case dtread.Property:
			_, err = fmt.Fprintf(w, "%s%s: %s\n", strings.Repeat(" ", indent), it.Name, formatValue(it.Value))
		}
		return err
	})
}

// formatValue renders printable NUL-terminated values as quoted strings,
// whole cells as <0x..> words and anything else as a hex byte list.
func formatValue(v []byte) string {
	if len(v) == 0 {
		return "<empty>"
	}

	if s, ok := printableString(v); ok {
		return s
	}

	if len(v)%4 == 0 {
		cells := make([]string, 0, len(v)/4)
		for i := 0; i < len(v); i += 4 {
			cells = append(cells, fmt.Sprintf("0x%X", binary.BigEndian.Uint32(v[i:])))
		}
		return "<" + strings.Join(cells, " ") + ">"
	}

	return fmt.Sprintf("[% x]", v)
}

// printableString reports whether v is one or more NUL-terminated printable
// strings and returns them quoted and comma separated.
func printableString(v []byte) (string, bool) {
	if len(v) < 2 || v[len(v)-1] != 0 {
		return "", false
	}

	parts := strings.Split(string(v[:len(v)-1]), "\x00")
	for _, p := range parts {
		if p == "" {
			return "", false
		}
		for _, r := range p {
			if !unicode.IsPrint(r) {
				return "", false
			}
		}
	}

	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = fmt.Sprintf("%q", p)
	}
	return strings.Join(quoted, ", "), true
}
