package css

import (
	"fmt"
	"strings"

	"github.com/gorilla/css/scanner"
)

// punctuation around which whitespace is never needed.
const punctuation = "{}:;,"

// Minify compacts CSS text: comments are stripped, runs of whitespace are
// collapsed, whitespace around any of "{ } : ; ," is removed and a ';'
// immediately before '}' is dropped. Strings and url(…) tokens are copied
// verbatim.
func Minify(text string) (string, error) {
	var b strings.Builder
	b.Grow(len(text))
	var last byte // last byte written, 0 at start
	space := false
	scan := scanner.New(text)
	for {
		token := scan.Next()
		switch token.Type {
		case scanner.TokenEOF:
			return b.String(), nil
		case scanner.TokenError:
			return "", fmt.Errorf("%w: line %d, column %d: %s", ErrMinify,
				token.Line, token.Column, token.Value)
		case scanner.TokenComment, scanner.TokenBOM:
			continue
		case scanner.TokenS:
			space = true
			continue
		}
		value := token.Value
		if value == "" {
			continue
		}
		isPunct := token.Type == scanner.TokenChar && strings.Contains(punctuation, value)
		if space && last != 0 && !isPunct && strings.IndexByte(punctuation, last) < 0 {
			b.WriteByte(' ')
		}
		space = false
		if value == "}" && last == ';' {
			s := b.String()
			b.Reset()
			b.WriteString(s[:len(s)-1])
		}
		b.WriteString(value)
		last = value[len(value)-1]
	}
}
