package pgn

import (
	"regexp"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokTag tokenKind = iota
	tokSAN
	tokComment
	tokOpenVariation
	tokCloseVariation
	tokResult
)

type token struct {
	kind  tokenKind
	key   string
	value string
}

var (
	tagPairRegex   = regexp.MustCompile(`^\[\s*([A-Za-z0-9_]+)\s+"((?:[^"\\]|\\.)*)"\s*\]$`)
	moveNumberPref = regexp.MustCompile(`^\d+\.+`)
)

// Result tokens close the movetext of a game.
const (
	ResultWhiteWin = "1-0"
	ResultBlackWin = "0-1"
	ResultDraw     = "1/2-1/2"
	ResultNone     = "*"
)

func isResult(s string) bool {
	switch s {
	case ResultWhiteWin, ResultBlackWin, ResultDraw, ResultNone:
		return true
	}
	return false
}

// lex splits the text of one game into tags, moves, comments, variation marks and the result.
// Move numbers, NAGs and escaped lines are dropped.
func lex(text string) []token {
	var (
		out  = make([]token, 0, 128)
		word strings.Builder
		rs   = []rune(text)
	)
	flush := func() {
		if word.Len() == 0 {
			return
		}
		if tok, ok := classifyWord(word.String()); ok {
			out = append(out, tok)
		}
		word.Reset()
	}

	lineStart := true
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case lineStart && r == '%':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
			continue
		case r == '[':
			flush()
			end := indexFrom(rs, i, ']', true)
			if tok, ok := parseTag(string(rs[i:end])); ok {
				out = append(out, tok)
			}
			i = end - 1
		case r == '{':
			flush()
			end := indexFrom(rs, i+1, '}', false)
			body := string(rs[i+1 : min(end, len(rs))])
			out = append(out, token{kind: tokComment, value: strings.TrimSpace(body)})
			i = end
		case r == ';':
			flush()
			end := indexFrom(rs, i+1, '\n', false)
			out = append(out, token{kind: tokComment, value: strings.TrimSpace(string(rs[i+1 : min(end, len(rs))]))})
			i = end
		case r == '(':
			flush()
			out = append(out, token{kind: tokOpenVariation})
		case r == ')':
			flush()
			out = append(out, token{kind: tokCloseVariation})
		case unicode.IsSpace(r):
			flush()
		default:
			word.WriteRune(r)
		}
		lineStart = i < len(rs) && rs[i] == '\n'
	}
	flush()
	return out
}

// indexFrom returns the index of the first stop rune at or after from, len(rs) when absent.
// With inclusive set the returned index points just past the stop rune.
func indexFrom(rs []rune, from int, stop rune, inclusive bool) int {
	inQuote := false
	for j := from; j < len(rs); j++ {
		if inclusive && rs[j] == '"' && (j == 0 || rs[j-1] != '\\') {
			inQuote = !inQuote
		}
		if rs[j] == stop && !inQuote {
			if inclusive {
				return j + 1
			}
			return j
		}
	}
	return len(rs)
}

func parseTag(raw string) (token, bool) {
	m := tagPairRegex.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return token{}, false
	}
	value := strings.NewReplacer(`\"`, `"`, `\\`, `\`).Replace(m[2])
	return token{kind: tokTag, key: m[1], value: value}, true
}

func classifyWord(w string) (token, bool) {
	if isResult(w) {
		return token{kind: tokResult, value: w}, true
	}
	if strings.HasPrefix(w, "$") {
		return token{}, false
	}
	w = moveNumberPref.ReplaceAllString(w, "")
	if w == "" {
		return token{}, false
	}
	if isResult(w) {
		return token{kind: tokResult, value: w}, true
	}
	return token{kind: tokSAN, value: w}, true
}
