package canon

import (
	"fmt"
	"sort"
	"strings"
)

// Encode renders v as canonical JSON: object members sorted
// lexicographically by key, no insignificant whitespace, and non-ASCII
// characters left raw (not \u-escaped) so the same logical string
// always produces the same bytes regardless of encoder locale.
func Encode(v Value) string {
	var b strings.Builder
	encodeInto(&b, v)
	return b.String()
}

func encodeInto(b *strings.Builder, v Value) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		if v.bool_ {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindNumber:
		b.WriteString(v.num.String())
	case KindString:
		encodeString(b, v.str)
	case KindArray:
		b.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeInto(b, item)
		}
		b.WriteByte(']')
	case KindObject:
		members := make([]Member, len(v.obj))
		copy(members, v.obj)
		sort.Slice(members, func(i, j int) bool { return members[i].Key < members[j].Key })
		b.WriteByte('{')
		for i, m := range members {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeString(b, m.Key)
			b.WriteByte(':')
			encodeInto(b, m.Value)
		}
		b.WriteByte('}')
	default:
		panic(fmt.Sprintf("canon: invalid Value kind %d", v.kind))
	}
}

// encodeString escapes only what JSON requires (quote, backslash, and
// control characters below 0x20); every other byte, including
// multi-byte UTF-8 sequences, passes through unchanged.
func encodeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}
