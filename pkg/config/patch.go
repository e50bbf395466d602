package config

import (
	"fmt"
	"strings"
)

// PatchScalar rewrites a single top-level-mapping scalar value in place,
// line by line, preserving every other line byte-for-byte — comments,
// blank lines, and formatting survive untouched (§4.3, §9: "a full
// parse/emit cycle is forbidden"). keyPath is a dot-separated path of
// mapping keys by indentation nesting, e.g. "collector.idle_timeout_min".
func PatchScalar(doc []byte, keyPath string, newValue string) ([]byte, error) {
	keys := strings.Split(keyPath, ".")
	lines := splitLinesPreserveEOL(doc)

	matchLine, indent, err := locateScalar(lines, keys)
	if err != nil {
		return nil, err
	}

	lines[matchLine] = rewriteScalarLine(lines[matchLine], indent, newValue)

	out := strings.Join(lines, "")
	return []byte(out), nil
}

// splitLinesPreserveEOL splits on "\n" but keeps the trailing "\n" attached
// to each line (except possibly the last), so re-joining is exact.
func splitLinesPreserveEOL(doc []byte) []string {
	text := string(doc)
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

// locateScalar walks keys one nesting level at a time: at each level it
// finds a line at the expected indent whose key matches, then narrows the
// search to the block of subsequent deeper-indented lines before
// descending to the next key. Returns the line index of the final
// (innermost) key and its indentation width.
func locateScalar(lines []string, keys []string) (int, int, error) {
	start, end := 0, len(lines)
	indent := 0

	for depth, key := range keys {
		found := -1
		for i := start; i < end; i++ {
			raw := stripEOL(lines[i])
			if strings.TrimSpace(raw) == "" || strings.HasPrefix(strings.TrimSpace(raw), "#") {
				continue
			}
			if strings.ContainsRune(raw, '\t') {
				return 0, 0, fmt.Errorf("config: tabs in indentation are rejected (line %d)", i+1)
			}
			lineIndent := leadingSpaces(raw)
			if lineIndent != indent {
				continue
			}
			trimmed := strings.TrimSpace(raw)
			k, _, hasColon := strings.Cut(trimmed, ":")
			if !hasColon {
				continue
			}
			if strings.TrimSpace(k) == key {
				found = i
				break
			}
		}
		if found < 0 {
			return 0, 0, fmt.Errorf("config: key %q not found in document", strings.Join(keys[:depth+1], "."))
		}

		if depth == len(keys)-1 {
			return found, indent, nil
		}

		// Narrow to this block: subsequent lines more indented than
		// the key line, up to the next line at or below this indent.
		blockEnd := end
		for i := found + 1; i < end; i++ {
			raw := stripEOL(lines[i])
			if strings.TrimSpace(raw) == "" {
				continue
			}
			if leadingSpaces(raw) <= indent {
				blockEnd = i
				break
			}
		}
		start = found + 1
		end = blockEnd
		indent = indent + 2 // conventional two-space nesting step
	}

	return 0, 0, fmt.Errorf("config: empty key path")
}

func leadingSpaces(s string) int {
	n := 0
	for n < len(s) && s[n] == ' ' {
		n++
	}
	return n
}

func stripEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}

// rewriteScalarLine replaces the value token on a "key: value  # comment"
// line, preserving the key, leading indentation, trailing whitespace, and
// any inline comment. The new value is emitted as a plain scalar when it
// contains none of YAML's indicator characters, no "# ", and no embedded
// ": "; otherwise it is double-quote-escaped.
func rewriteScalarLine(line string, indent int, newValue string) string {
	eol := ""
	body := line
	if strings.HasSuffix(body, "\r\n") {
		eol = "\r\n"
		body = body[:len(body)-2]
	} else if strings.HasSuffix(body, "\n") {
		eol = "\n"
		body = body[:len(body)-1]
	}

	key, rest, _ := strings.Cut(body, ":")
	comment := ""
	valuePart := rest
	if idx := findUnquotedHash(rest); idx >= 0 {
		valuePart = rest[:idx]
		comment = rest[idx:]
	}
	value := formatScalar(newValue)
	return fmt.Sprintf("%s: %s%s%s", key, value, trailingCommentSpacer(valuePart, comment), comment) + eol
}

// trailingCommentSpacer returns the whitespace that followed the old value
// token, so it is kept between the new value and any inline comment.
func trailingCommentSpacer(valuePart, comment string) string {
	spacer := valuePart[len(strings.TrimRight(valuePart, " \t")):]
	if spacer == "" && comment != "" {
		return " "
	}
	return spacer
}

func findUnquotedHash(s string) int {
	inSingle, inDouble := false, false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '#':
			if !inSingle && !inDouble && (i == 0 || s[i-1] == ' ') {
				return i
			}
		}
	}
	return -1
}

// formatScalar quotes newValue only when it contains characters that
// would otherwise change its parsed meaning as a bare YAML scalar.
func formatScalar(v string) string {
	if needsQuoting(v) {
		return quoteYAML(v)
	}
	return v
}

func needsQuoting(v string) bool {
	if v == "" {
		return true
	}
	if strings.ContainsAny(v, ":#'\"[]{}&*!|>%@`") {
		return true
	}
	if strings.Contains(v, ": ") {
		return true
	}
	switch strings.TrimSpace(v) {
	case "true", "false", "null", "~":
		return false
	}
	return v != strings.TrimSpace(v)
}

func quoteYAML(v string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range v {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
