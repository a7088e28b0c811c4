package gura

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// Character classes used by the grammar. A literal '-' must appear last in
// a class, otherwise it is interpreted as a range separator.
const (
	keyChars     = "0-9A-Za-z_"
	numberChars  = "0-9A-Fa-fxobinEe+._-"
	hexChars     = "0-9a-fA-F"
	newLineChars = "\n\v\f\r"
)

// charRange is one expanded element of a character class: a single
// cluster when lo == hi, otherwise an inclusive range.
type charRange struct {
	lo, hi string
}

// cursor holds the state of one parse: the input as grapheme clusters, the
// scan position, the variable table, the indentation-level stack and the
// set of files already spliced in by the import pre-pass. It is
// constructed once per Parse call and threaded through every rule.
type cursor struct {
	text []string // Input as grapheme clusters.
	pos  int      // Index of the next cluster to consume.
	line int      // Current line number, 1-based.

	classes   map[string][]charRange // Memoized character-class expansions.
	variables map[string]Value       // Document-scoped variable table.
	indents   []int                  // Indentation levels, innermost last.
	imported  map[string]struct{}    // Canonical paths already imported.
	fs        fileSystem
}

func newCursor(fs fileSystem) *cursor {
	return &cursor{
		line:      1,
		classes:   make(map[string][]charRange),
		variables: make(map[string]Value),
		imported:  make(map[string]struct{}),
		fs:        fs,
	}
}

// reset replaces the input text and rewinds the scan position. The
// variable table, indentation stack and imported-files set survive; the
// import expander relies on this when it splices a rewritten document.
func (c *cursor) reset(text string) {
	c.text = graphemes(text)
	c.pos = 0
	c.line = 1
}

// graphemes splits text into user-perceived characters so that multi-byte
// and combining sequences are never split mid-cluster.
func graphemes(text string) []string {
	out := make([]string, 0, len(text))
	for gs := uniseg.NewGraphemes(text); gs.Next(); {
		out = append(out, gs.Str())
	}
	return out
}

// mark is a snapshot of the scan position, taken before trying a grammar
// alternative and restored verbatim when it fails.
type mark struct {
	pos  int
	line int
}

func (c *cursor) mark() mark          { return mark{pos: c.pos, line: c.line} }
func (c *cursor) restore(m mark)      { c.pos = m.pos; c.line = m.line }
func (c *cursor) atEnd() bool         { return c.pos >= len(c.text) }
func (c *cursor) remaining() []string { return c.text[c.pos:] }

// advance consumes n clusters, counting line terminators as it goes. All
// consumption funnels through here so line numbers stay exact no matter
// which rule eats the newline.
func (c *cursor) advance(n int) {
	for i := 0; i < n; i++ {
		if strings.ContainsAny(c.text[c.pos], newLineChars) {
			c.line++
		}
		c.pos++
	}
}

// err builds a positioned error of the given kind at the current location.
func (c *cursor) err(kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
		Pos:  c.pos,
		Line: c.line,
	}
}

func (c *cursor) syntaxErr(format string, args ...any) *Error {
	return c.err(SyntaxError, format, args...)
}

// expandClass parses a class string like "0-9A-Za-z_" into ranges,
// memoizing the result for the lifetime of the cursor. A malformed range
// (descending bounds) is an internal error, not a recoverable mismatch.
func (c *cursor) expandClass(class string) ([]charRange, error) {
	if cached, ok := c.classes[class]; ok {
		return cached, nil
	}

	clusters := graphemes(class)
	var out []charRange
	for i := 0; i < len(clusters); {
		if i+2 < len(clusters) && clusters[i+1] == "-" {
			if clusters[i] >= clusters[i+2] {
				return nil, fmt.Errorf("invalid character range '%s-%s'", clusters[i], clusters[i+2])
			}
			out = append(out, charRange{lo: clusters[i], hi: clusters[i+2]})
			i += 3
		} else {
			out = append(out, charRange{lo: clusters[i], hi: clusters[i]})
			i++
		}
	}

	c.classes[class] = out
	return out, nil
}

// char consumes and returns the next cluster. An empty class matches any
// cluster; otherwise the cluster must be a literal member of the class or
// fall within one of its ranges. End of input is reported distinctly from
// a mismatch so diagnostics at EOF do not name a phantom character.
func (c *cursor) char(class string) (string, error) {
	if c.atEnd() {
		if class == "" {
			return "", c.syntaxErr("expected next character but got end of string")
		}
		return "", c.syntaxErr("expected [%s] but got end of string", class)
	}

	next := c.text[c.pos]
	if class == "" {
		c.advance(1)
		return next, nil
	}

	ranges, err := c.expandClass(class)
	if err != nil {
		return "", err
	}
	for _, r := range ranges {
		if r.lo == r.hi {
			if next == r.lo {
				c.advance(1)
				return next, nil
			}
		} else if r.lo <= next && next <= r.hi {
			c.advance(1)
			return next, nil
		}
	}

	return "", c.syntaxErr("expected [%s] but got '%s'", class, next)
}

// keyword tries each option in order and consumes the first whose literal
// text matches the upcoming input.
func (c *cursor) keyword(options ...string) (string, error) {
	if c.atEnd() {
		return "", c.syntaxErr("expected '%s' but got end of string", strings.Join(options, ", "))
	}

	for _, kw := range options {
		n := uniseg.GraphemeClusterCount(kw)
		if c.pos+n > len(c.text) {
			continue
		}
		if strings.Join(c.text[c.pos:c.pos+n], "") == kw {
			c.advance(n)
			return kw, nil
		}
	}

	return "", c.syntaxErr("expected '%s' but got '%s'", strings.Join(options, ", "), c.text[c.pos])
}

// maybeChar is char with failure converted to a no-match: the cursor is
// left untouched and ok is false. Non-syntax errors still propagate.
func (c *cursor) maybeChar(class string) (string, bool, error) {
	s, err := c.char(class)
	if err != nil {
		if recoverable(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return s, true, nil
}

// maybeKeyword is keyword with failure converted to a no-match.
func (c *cursor) maybeKeyword(options ...string) (string, bool, error) {
	s, err := c.keyword(options...)
	if err != nil {
		if recoverable(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return s, true, nil
}

// matchKind tags the result of a grammar rule. Most rules yield a plain
// value; the rest are structural markers the object/pair machinery needs.
type matchKind int

const (
	matchValue       matchKind = iota
	matchObject                // Freshly parsed object carrying its indentation level.
	matchPair                  // key/value/indentation triple.
	matchBreakParent           // End of the enclosing object's block.
	matchUselessLine           // Blank or comment-only line.
	matchComment
	matchImport // Import sentence carrying the target path.
	matchVariable
	matchWs
	matchIndentation // Leading-space run carrying its length.
)

// result is what a grammar rule produces on success.
type result struct {
	kind   matchKind
	value  Value
	key    string // Pair key.
	indent int    // Pair / object / indentation level.
	path   string // Import target.
}

// rule is a single grammar nonterminal.
type rule func(*cursor) (result, error)

// match tries each rule in order against the current position. The first
// success wins. A failing rule has the cursor rewound; among all failed
// alternatives only the error that progressed furthest into the input is
// kept, as the deepest failure is the most informative diagnostic.
// Non-syntax errors abort immediately without trying further rules.
func (c *cursor) match(rules ...rule) (result, error) {
	var furthest *Error
	for _, r := range rules {
		m := c.mark()
		res, err := r(c)
		if err == nil {
			return res, nil
		}
		if !recoverable(err) {
			return result{}, err
		}
		c.restore(m)
		if pe := err.(*Error); furthest == nil || pe.Pos > furthest.Pos {
			furthest = pe
		}
	}
	return result{}, furthest
}

// maybeMatch is match with syntax failure converted to a no-match.
func (c *cursor) maybeMatch(rules ...rule) (result, bool, error) {
	res, err := c.match(rules...)
	if err != nil {
		if recoverable(err) {
			return result{}, false, nil
		}
		return result{}, false, err
	}
	return res, true, nil
}

// eatWsAndNewLines silently consumes any run of spaces and line
// terminators, including CRLF clusters.
func (c *cursor) eatWsAndNewLines() {
	for !c.atEnd() {
		cl := c.text[c.pos]
		if cl == " " || cl == "\r\n" || (len(cl) == 1 && strings.ContainsAny(cl, newLineChars)) {
			c.advance(1)
			continue
		}
		break
	}
}

// eatNewLine consumes a single line terminator if one is next.
func (c *cursor) eatNewLine() {
	if c.atEnd() {
		return
	}
	cl := c.text[c.pos]
	if cl == "\r\n" || (len(cl) == 1 && strings.ContainsAny(cl, newLineChars)) {
		c.advance(1)
	}
}

// Indentation stack. Levels are strictly increasing bottom to top; the
// stack is cursor-wide because nesting is expressed by whitespace rather
// than delimiters.

func (c *cursor) pushIndent(level int) {
	c.indents = append(c.indents, level)
}

func (c *cursor) popIndent() {
	if len(c.indents) > 0 {
		c.indents = c.indents[:len(c.indents)-1]
	}
}

func (c *cursor) lastIndent() (int, bool) {
	if len(c.indents) == 0 {
		return 0, false
	}
	return c.indents[len(c.indents)-1], true
}
