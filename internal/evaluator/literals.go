package evaluator

import "strings"

// promoteIntLiterals appends ".0" to every decimal integer literal outside
// string literals and identifiers. Hex, unsigned and float literals are left
// untouched.
func promoteIntLiterals(src string) string {
	var b strings.Builder
	b.Grow(len(src) + 8)
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"' || c == '\'':
			j := skipString(src, i)
			b.WriteString(src[i:j])
			i = j
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && (isIdentStart(src[j]) || isDigit(src[j])) {
				j++
			}
			b.WriteString(src[i:j])
			i = j
		case isDigit(c):
			j, promote := scanNumber(src, i)
			b.WriteString(src[i:j])
			if promote {
				b.WriteString(".0")
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// scanNumber returns the end of the numeric literal starting at i and whether
// it is a plain decimal integer.
func scanNumber(src string, i int) (int, bool) {
	if src[i] == '0' && i+1 < len(src) && (src[i+1] == 'x' || src[i+1] == 'X') {
		j := i + 2
		for j < len(src) && (isDigit(src[j]) || isHexLetter(src[j])) {
			j++
		}
		if j < len(src) && (src[j] == 'u' || src[j] == 'U') {
			j++
		}
		return j, false
	}
	j := i
	for j < len(src) && isDigit(src[j]) {
		j++
	}
	promote := true
	if j+1 < len(src) && src[j] == '.' && isDigit(src[j+1]) {
		promote = false
		j++
		for j < len(src) && isDigit(src[j]) {
			j++
		}
	}
	if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
		k := j + 1
		if k < len(src) && (src[k] == '+' || src[k] == '-') {
			k++
		}
		if k < len(src) && isDigit(src[k]) {
			promote = false
			for k < len(src) && isDigit(src[k]) {
				k++
			}
			j = k
		}
	}
	if promote && j < len(src) && (src[j] == 'u' || src[j] == 'U') {
		return j + 1, false
	}
	return j, promote
}

// skipString returns the index just past the quoted literal starting at i.
// Unterminated literals run to the end and are left for the parser to reject.
func skipString(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		}
	}
	return len(src)
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isHexLetter(c byte) bool  { return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
