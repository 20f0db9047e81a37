package api

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// DecodeHTML undoes the transport encoding mobile clients apply to captured
// pages: backslash escapes first, then HTML entities.
func DecodeHTML(s string) string {
	return html.UnescapeString(DecodeEscapes(s))
}

// DecodeEscapes interprets backslash escapes (\n, \t, \", \xHH, \uXXXX,
// \UXXXXXXXX, octal). Invalid escapes are kept literally.
func DecodeEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		i := strings.IndexByte(s, '\\')
		if i < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:i])
		s = s[i:]
		if len(s) < 2 {
			b.WriteString(s)
			break
		}
		quote := byte(0)
		if s[1] == '\'' || s[1] == '"' {
			quote = s[1]
		}
		r, _, tail, err := strconv.UnquoteChar(s, quote)
		if err != nil {
			b.WriteByte('\\')
			s = s[1:]
			continue
		}
		if r < utf8.RuneSelf {
			b.WriteByte(byte(r))
		} else {
			b.WriteRune(r)
		}
		s = tail
	}
	return b.String()
}
