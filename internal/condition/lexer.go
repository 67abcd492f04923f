package condition

import (
	"fmt"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokWord   tokenKind = iota // identifier, field path or keyword
	tokOp                      // ==, !=, >=, <=, >, <
	tokArith                   // + - * /
	tokString                  // "…" or '…'
	tokNumber                  // 42 | 3.14
	tokBool                    // true | false
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	val  string
	pos  int
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func tokenize(src string) ([]token, error) {
	var tokens []token
	emit := func(kind tokenKind, val string, pos int) {
		tokens = append(tokens, token{kind: kind, val: val, pos: pos})
	}

	for i := 0; i < len(src); {
		ch := src[i]
		switch {
		case unicode.IsSpace(rune(ch)):
			i++
		case ch == '(':
			emit(tokLParen, "(", i)
			i++
		case ch == ')':
			emit(tokRParen, ")", i)
			i++
		case ch == '=' || ch == '!' || ch == '<' || ch == '>':
			if i+1 < len(src) && src[i+1] == '=' {
				emit(tokOp, src[i:i+2], i)
				i += 2
				continue
			}
			if ch == '=' || ch == '!' {
				return nil, fmt.Errorf("unexpected %q at position %d", ch, i)
			}
			emit(tokOp, string(ch), i)
			i++
		case ch == '-' && i+1 < len(src) && isDigit(src[i+1]) && negativeAllowed(tokens):
			j := scanNumber(src, i+1)
			emit(tokNumber, src[i:j], i)
			i = j
		case ch == '+' || ch == '-' || ch == '*' || ch == '/':
			emit(tokArith, string(ch), i)
			i++
		case ch == '"' || ch == '\'':
			lit, next, err := scanString(src, i)
			if err != nil {
				return nil, err
			}
			emit(tokString, lit, i)
			i = next
		case isDigit(ch):
			j := scanNumber(src, i)
			emit(tokNumber, src[i:j], i)
			i = j
		case unicode.IsLetter(rune(ch)) || ch == '_':
			j := i
			for j < len(src) && (unicode.IsLetter(rune(src[j])) || isDigit(src[j]) || src[j] == '_' || src[j] == '.') {
				j++
			}
			word := src[i:j]
			if lw := strings.ToLower(word); lw == "true" || lw == "false" {
				emit(tokBool, lw, i)
			} else {
				emit(tokWord, word, i)
			}
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", ch, i)
		}
	}
	emit(tokEOF, "", len(src))
	return tokens, nil
}

// negativeAllowed reports whether a '-' followed by a digit starts a negative
// literal rather than a subtraction.
func negativeAllowed(prev []token) bool {
	if len(prev) == 0 {
		return true
	}
	switch prev[len(prev)-1].kind {
	case tokOp, tokArith, tokLParen:
		return true
	case tokWord:
		return isReserved(prev[len(prev)-1].val)
	}
	return false
}

// isReserved reports whether word is a keyword rather than a field path.
func isReserved(word string) bool {
	switch strings.ToUpper(word) {
	case "AND", "OR", "NOT", "CONTAINS", "MATCHES":
		return true
	}
	return false
}

func scanNumber(src string, i int) int {
	for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
		i++
	}
	return i
}

func scanString(src string, start int) (string, int, error) {
	quote := src[start]
	var b strings.Builder
	for j := start + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			if j+1 < len(src) {
				j++
				b.WriteByte(src[j])
			}
		case quote:
			return b.String(), j + 1, nil
		default:
			b.WriteByte(src[j])
		}
	}
	return "", 0, fmt.Errorf("unterminated string starting at position %d", start)
}
