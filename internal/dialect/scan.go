package dialect

import "strings"

// span is a half-open byte range of the source.
type span struct {
	start, end int
}

func (s span) empty() bool { return s.end <= s.start }

var none = span{-1, -1}

// splitLines returns the line spans of src without line terminators.
func splitLines(src string) []span {
	var lines []span

	start := 0
	for {
		i := strings.IndexByte(src[start:], '\n')
		if i < 0 {
			break
		}

		lines = append(lines, trimCR(src, span{start, start + i}))
		start += i + 1
	}

	if start < len(src) {
		lines = append(lines, trimCR(src, span{start, len(src)}))
	}

	return lines
}

func trimCR(src string, s span) span {
	if s.end > s.start && src[s.end-1] == '\r' {
		s.end--
	}

	return s
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func skipBlanks(src string, i, end int) int {
	for i < end && isBlank(src[i]) {
		i++
	}

	return i
}

// trimBlanks shrinks a span to exclude surrounding blanks.
func trimBlanks(src string, s span) span {
	for s.start < s.end && isBlank(src[s.start]) {
		s.start++
	}

	for s.end > s.start && isBlank(src[s.end-1]) {
		s.end--
	}

	return s
}

// scanQuoted returns the end of a quoted string starting at i. A doubled
// quote character stays inside the string; an unterminated string runs to end.
func scanQuoted(src string, i, end int) int {
	q := src[i]
	j := i + 1

	for j < end {
		if src[j] != q {
			j++
			continue
		}

		if j+1 < end && src[j+1] == q {
			j += 2
			continue
		}

		return j + 1
	}

	return end
}
