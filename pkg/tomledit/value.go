package tomledit

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is the closed set of shapes a dependency declaration can take.
// Exhaustive switches over Value should keep an explicit default arm for
// [Other]: unknown shapes are skipped, never an error.
type Value interface{ isValue() }

// String is a bare string value, e.g. `serde = "1.0"`.
type String struct {
	// Val is the decoded string content, without quotes.
	Val string
}

func (*String) isValue() {}

// Record is a structured declaration: an inline table, a dotted-key group,
// or an explicit `[table.key]` section. Pairs preserve original relative
// order.
type Record struct {
	pairs []Pair
}

func (*Record) isValue() {}

// Other is any value shape the model does not understand (arrays, numbers,
// booleans at declaration level). Callers leave these untouched.
type Other struct {
	// Raw is the original value text, for logging.
	Raw string
}

func (*Other) isValue() {}

// Pair is one key/value inside a [Record].
type Pair struct {
	Key      string // decoded key (dotted keys keep their dots)
	RawKey   string // key as written
	RawValue string // normalized single-line value text
	IsRecord bool   // value is itself a nested structure
}

// Pairs returns the record's pairs in original relative order.
func (r *Record) Pairs() []Pair { return r.pairs }

// Has reports whether the record contains a pair with the given key.
func (r *Record) Has(key string) bool {
	for _, p := range r.pairs {
		if p.Key == key {
			return true
		}
	}
	return false
}

// GetString returns the decoded string value of the given key.
// ok is false when the key is absent or its value is not a string.
func (r *Record) GetString(key string) (string, bool) {
	for _, p := range r.pairs {
		if p.Key == key {
			if s, isStr := decodeString(p.RawValue); isStr {
				return s, true
			}
			return "", false
		}
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Scanning

// scanState tracks string and bracket context across lines, so that values
// spanning multiple physical lines (multi-line arrays, multi-line strings)
// can be accumulated into one logical span.
type scanState struct {
	depth int  // unclosed [ and { nesting
	str   byte // 0 when outside a string, otherwise the quote character
	multi bool // inside a triple-quoted string
	esc   bool // previous char was a backslash inside a basic string
}

// open reports whether the scanned text still needs continuation lines.
func (s *scanState) open() bool { return s.depth > 0 || s.str != 0 }

// feed consumes one physical line (without its newline). Comment text after
// an unquoted # is ignored for nesting purposes.
func (s *scanState) feed(line string) {
	for i := 0; i < len(line); i++ {
		c := line[i]

		if s.str != 0 {
			if s.esc {
				s.esc = false
				continue
			}
			switch {
			case c == '\\' && s.str == '"':
				s.esc = true
			case c == s.str:
				if s.multi {
					if strings.HasPrefix(line[i:], strings.Repeat(string(s.str), 3)) {
						s.str, s.multi = 0, false
						i += 2
					}
				} else {
					s.str = 0
				}
			}
			continue
		}

		switch c {
		case '"', '\'':
			s.str = c
			if strings.HasPrefix(line[i:], strings.Repeat(string(c), 3)) {
				s.multi = true
				i += 2
			}
		case '[', '{':
			s.depth++
		case ']', '}':
			s.depth--
		case '#':
			return // comment runs to end of line
		}
	}
	// an unterminated single-line string is a syntax error; surface it as
	// a still-open state so the parser reports the span
	if s.str != 0 && !s.multi {
		return
	}
	s.esc = false
}

// ---------------------------------------------------------------------------
// Tokenizing

type tokenKind int

const (
	tokString tokenKind = iota // quoted string, verbatim including quotes
	tokPunct                   // one of [ ] { } , =
	tokWord                    // any other run of non-space characters
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits raw value (or key) text into tokens, dropping comments
// and collapsing whitespace. Strings are kept verbatim so their content is
// never reinterpreted.
func tokenize(raw string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(raw) {
		c := raw[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '#':
			// comment to end of line
			for i < len(raw) && raw[i] != '\n' {
				i++
			}
		case c == '"' || c == '\'':
			end, err := scanStringToken(raw, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{tokString, raw[i:end]})
			i = end
		case strings.ContainsRune("[]{},=", rune(c)):
			toks = append(toks, token{tokPunct, string(c)})
			i++
		default:
			j := i
			for j < len(raw) && !strings.ContainsRune(" \t\n\r#[]{},=\"'", rune(raw[j])) {
				j++
			}
			toks = append(toks, token{tokWord, raw[i:j]})
			i = j
		}
	}
	return toks, nil
}

// scanStringToken returns the index one past the string starting at raw[i].
func scanStringToken(raw string, i int) (int, error) {
	quote := raw[i]
	triple := strings.HasPrefix(raw[i:], strings.Repeat(string(quote), 3))
	if triple {
		close := strings.Repeat(string(quote), 3)
		if end := strings.Index(raw[i+3:], close); end >= 0 {
			return i + 3 + end + 3, nil
		}
		return 0, fmt.Errorf("unterminated string at offset %d", i)
	}
	esc := false
	for j := i + 1; j < len(raw); j++ {
		c := raw[j]
		if esc {
			esc = false
			continue
		}
		if c == '\\' && quote == '"' {
			esc = true
			continue
		}
		if c == quote {
			return j + 1, nil
		}
		if c == '\n' {
			break
		}
	}
	return 0, fmt.Errorf("unterminated string at offset %d", i)
}

// joinTokens renders tokens as canonical single-line TOML: single spaces
// between tokens, no padding inside array brackets, padded inline-table
// braces, trailing commas dropped.
func joinTokens(toks []token) string {
	var b strings.Builder
	for i, t := range toks {
		if t.text == "," && i+1 < len(toks) && (toks[i+1].text == "]" || toks[i+1].text == "}") {
			continue // trailing comma
		}
		if i > 0 {
			prev := toks[i-1].text
			if prev != "[" && t.text != "]" && t.text != "," {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.text)
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Classification and decoding

// classifyValue maps raw value text onto the Value sum.
func classifyValue(raw string) Value {
	toks, err := tokenize(raw)
	if err != nil || len(toks) == 0 {
		return &Other{Raw: strings.TrimSpace(raw)}
	}
	if len(toks) == 1 && toks[0].kind == tokString {
		if s, ok := decodeString(toks[0].text); ok {
			return &String{Val: s}
		}
		return &Other{Raw: toks[0].text}
	}
	if toks[0].text == "{" {
		pairs, err := parseInlinePairs(toks)
		if err != nil {
			return &Other{Raw: joinTokens(toks)}
		}
		return &Record{pairs: pairs}
	}
	return &Other{Raw: joinTokens(toks)}
}

// parseInlinePairs parses the token stream of an inline table, outer braces
// included.
func parseInlinePairs(toks []token) ([]Pair, error) {
	if len(toks) < 2 || toks[0].text != "{" || toks[len(toks)-1].text != "}" {
		return nil, fmt.Errorf("not an inline table")
	}
	inner := toks[1 : len(toks)-1]

	var pairs []Pair
	i := 0
	for i < len(inner) {
		// key (word or quoted)
		if inner[i].kind == tokPunct {
			return nil, fmt.Errorf("expected key, got %q", inner[i].text)
		}
		rawKey := inner[i].text
		i++
		if i >= len(inner) || inner[i].text != "=" {
			return nil, fmt.Errorf("expected = after key %q", rawKey)
		}
		i++
		// value tokens until a top-level comma
		start := i
		depth := 0
		for i < len(inner) {
			switch inner[i].text {
			case "[", "{":
				depth++
			case "]", "}":
				depth--
			case ",":
				if depth == 0 {
					goto valueDone
				}
			}
			i++
		}
	valueDone:
		if i == start {
			return nil, fmt.Errorf("missing value for key %q", rawKey)
		}
		pairs = append(pairs, Pair{
			Key:      decodeKey(rawKey),
			RawKey:   rawKey,
			RawValue: joinTokens(inner[start:i]),
			IsRecord: inner[start].text == "{",
		})
		if i < len(inner) && inner[i].text == "," {
			i++
		}
	}
	return pairs, nil
}

// decodeString decodes a single quoted TOML string literal.
// ok is false when raw is not a plain single-line string.
func decodeString(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 2 {
		return "", false
	}
	switch {
	case strings.HasPrefix(raw, `"""`) || strings.HasPrefix(raw, "'''"):
		return "", false
	case raw[0] == '\'' && raw[len(raw)-1] == '\'':
		return raw[1 : len(raw)-1], true
	case raw[0] == '"' && raw[len(raw)-1] == '"':
		if s, err := strconv.Unquote(raw); err == nil {
			return s, true
		}
		return "", false
	default:
		return "", false
	}
}

// decodeKey decodes a possibly quoted key. Dotted keys keep their dots.
func decodeKey(raw string) string {
	if s, ok := decodeString(raw); ok {
		return s
	}
	return raw
}

// formatKey renders a key, quoting it when it is not a bare key.
func formatKey(key string) string {
	for _, c := range key {
		bare := c == '-' || c == '_' || c == '.' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !bare {
			return strconv.Quote(key)
		}
	}
	return key
}

// quoteString renders a string as a TOML basic string.
func quoteString(s string) string {
	return strconv.Quote(s)
}
