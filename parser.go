package gura

import (
	"math"
	"math/big"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// escapeSequences maps the character after a backslash in a basic string
// to its replacement. Unknown escapes are kept literally.
var escapeSequences = map[string]string{
	"b": "\b",
	"f": "\f",
	"n": "\n",
	"r": "\r",
	"t": "\t",
	`"`: `"`,
	`\`: `\`,
	"$": "$",
}

// start expands imports, parses the single top-level object and consumes
// any trailing whitespace.
func start(c *cursor, baseDir string) (result, error) {
	if err := c.expandImports(baseDir); err != nil {
		return result{}, err
	}
	res, err := c.match(object)
	if err != nil {
		return result{}, err
	}
	c.eatWsAndNewLines()
	return res, nil
}

// assertEnd fails unless the whole document has been consumed.
func (c *cursor) assertEnd() error {
	if !c.atEnd() {
		return c.syntaxErr("expected end of document but got '%s'", c.text[c.pos])
	}
	return nil
}

// anyType matches any primitive or complex value.
func anyType(c *cursor) (result, error) {
	res, ok, err := c.maybeMatch(primitiveType)
	if err != nil {
		return result{}, err
	}
	if ok {
		return res, nil
	}
	return c.match(complexType)
}

// primitiveType matches null, booleans, strings, numbers, variable
// references and the explicit `empty` object marker.
func primitiveType(c *cursor) (result, error) {
	if _, _, err := c.maybeMatch(ws); err != nil {
		return result{}, err
	}
	return c.match(
		nullRule,
		boolean,
		basicString,
		literalString,
		number,
		variableValue,
		emptyObject,
	)
}

// complexType matches a list or an object.
func complexType(c *cursor) (result, error) {
	return c.match(list, object)
}

func nullRule(c *cursor) (result, error) {
	if _, err := c.keyword("null"); err != nil {
		return result{}, err
	}
	return result{kind: matchValue, value: NullValue()}, nil
}

// emptyObject consumes the `empty` keyword: the only way to express an
// object with no pairs.
func emptyObject(c *cursor) (result, error) {
	if _, err := c.keyword("empty"); err != nil {
		return result{}, err
	}
	return result{kind: matchValue, value: ObjectValue(NewObj())}, nil
}

func boolean(c *cursor) (result, error) {
	kw, err := c.keyword("true", "false")
	if err != nil {
		return result{}, err
	}
	return result{kind: matchValue, value: BoolValue(kw == "true")}, nil
}

// ws consumes blanks and tabs. It never fails.
func ws(c *cursor) (result, error) {
	for {
		_, ok, err := c.maybeKeyword(" ", "\t")
		if err != nil {
			return result{}, err
		}
		if !ok {
			break
		}
	}
	return result{kind: matchWs}, nil
}

// wsWithIndentation measures the leading run of spaces of a pair. Tabs
// are never a legal indentation character.
func wsWithIndentation(c *cursor) (result, error) {
	level := 0
	for !c.atEnd() {
		blank, ok, err := c.maybeKeyword(" ", "\t")
		if err != nil {
			return result{}, err
		}
		if !ok {
			break
		}
		if blank == "\t" {
			return result{}, c.err(InvalidIndentationError, "tabs are not allowed to define indentation blocks")
		}
		level++
	}
	return result{kind: matchIndentation, indent: level}, nil
}

// comment consumes '#' through the end of the physical line.
func comment(c *cursor) (result, error) {
	if _, err := c.keyword("#"); err != nil {
		return result{}, err
	}
	for !c.atEnd() {
		cl := c.text[c.pos]
		c.advance(1)
		if strings.ContainsAny(cl, newLineChars) {
			break
		}
	}
	return result{kind: matchComment}, nil
}

// uselessLine matches a line holding only blanks and/or a comment. A line
// with neither a comment nor a terminator is not useless, so the caller
// gets a mismatch and tries other alternatives.
func uselessLine(c *cursor) (result, error) {
	if _, err := ws(c); err != nil {
		return result{}, err
	}
	_, hasComment, err := c.maybeMatch(comment)
	if err != nil {
		return result{}, err
	}
	before := c.pos
	c.eatNewLine()
	if !hasComment && c.pos == before {
		return result{}, c.syntaxErr("it is a valid line")
	}
	return result{kind: matchUselessLine}, nil
}

// varName reads a (possibly empty) variable identifier after '$'.
func varName(c *cursor) (string, error) {
	var b strings.Builder
	for {
		ch, ok, err := c.maybeChar(keyChars)
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		b.WriteString(ch)
	}
	return b.String(), nil
}

// lookupVariable resolves $name: first from the document's variable
// table, then from the process environment (always as a string).
func (c *cursor) lookupVariable(name string) (Value, error) {
	if v, ok := c.variables[name]; ok {
		return v, nil
	}
	if env, ok := os.LookupEnv(name); ok {
		return StringValue(env), nil
	}
	return Value{}, c.err(VariableNotDefinedError,
		"variable '%s' is not defined in the document nor as an environment variable", name)
}

// scalarText stringifies a variable value for interpolation inside a
// string.
func scalarText(v Value) string {
	switch v.Kind {
	case String:
		return v.Str
	case Int:
		return strconv.FormatInt(v.Int, 10)
	case Float:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return ""
	}
}

// basicString matches a `"` or `"""` delimited string with escape
// sequences and $variable interpolation. A newline immediately following
// the opening triple quote is trimmed; inside a multiline string a
// backslash followed by a newline eats all subsequent whitespace.
func basicString(c *cursor) (result, error) {
	quote, err := c.keyword(`"""`, `"`)
	if err != nil {
		return result{}, err
	}
	multiline := quote == `"""`
	if multiline {
		c.eatNewLine()
	}

	var b strings.Builder
	for {
		_, closed, err := c.maybeKeyword(quote)
		if err != nil {
			return result{}, err
		}
		if closed {
			break
		}

		ch, err := c.char("")
		if err != nil {
			return result{}, err
		}
		switch {
		case ch == `\`:
			esc, err := c.char("")
			if err != nil {
				return result{}, err
			}
			switch {
			case multiline && strings.ContainsAny(esc, newLineChars):
				c.eatWsAndNewLines()
			case esc == "u" || esc == "U":
				digits := 4
				if esc == "U" {
					digits = 8
				}
				var cp strings.Builder
				for i := 0; i < digits; i++ {
					h, err := c.char(hexChars)
					if err != nil {
						return result{}, err
					}
					cp.WriteString(h)
				}
				code, err := strconv.ParseUint(cp.String(), 16, 32)
				if err != nil || !utf8.ValidRune(rune(code)) {
					return result{}, c.syntaxErr("bad hex value '%s'", cp.String())
				}
				b.WriteRune(rune(code))
			default:
				if rep, ok := escapeSequences[esc]; ok {
					b.WriteString(rep)
				} else {
					// Unknown escapes stay literal.
					b.WriteString(`\`)
					b.WriteString(esc)
				}
			}
		case ch == "$":
			name, err := varName(c)
			if err != nil {
				return result{}, err
			}
			v, err := c.lookupVariable(name)
			if err != nil {
				return result{}, err
			}
			b.WriteString(scalarText(v))
		default:
			b.WriteString(ch)
		}
	}

	return result{kind: matchValue, value: StringValue(b.String())}, nil
}

// literalString matches a single- or triple-apostrophe delimited string.
// No escaping and no interpolation happen inside it.
func literalString(c *cursor) (result, error) {
	quote, err := c.keyword("'''", "'")
	if err != nil {
		return result{}, err
	}
	if quote == "'''" {
		c.eatNewLine()
	}

	var b strings.Builder
	for {
		_, closed, err := c.maybeKeyword(quote)
		if err != nil {
			return result{}, err
		}
		if closed {
			break
		}
		ch, err := c.char("")
		if err != nil {
			return result{}, err
		}
		b.WriteString(ch)
	}

	return result{kind: matchValue, value: StringValue(b.String())}, nil
}

// quotedStringWithVar matches a double-quoted string that interpolates
// $name but has no escape sequences. Import paths use it.
func quotedStringWithVar(c *cursor) (result, error) {
	if _, err := c.keyword(`"`); err != nil {
		return result{}, err
	}

	var b strings.Builder
	for {
		ch, err := c.char("")
		if err != nil {
			return result{}, err
		}
		if ch == `"` {
			break
		}
		if ch == "$" {
			name, err := varName(c)
			if err != nil {
				return result{}, err
			}
			v, err := c.lookupVariable(name)
			if err != nil {
				return result{}, err
			}
			b.WriteString(scalarText(v))
			continue
		}
		b.WriteString(ch)
	}

	return result{kind: matchValue, value: StringValue(b.String())}, nil
}

// variableValue matches a bare $name reference and yields the variable's
// typed value.
func variableValue(c *cursor) (result, error) {
	if _, err := c.keyword("$"); err != nil {
		return result{}, err
	}
	nameRes, err := c.match(unquotedString)
	if err != nil {
		return result{}, err
	}
	v, err := c.lookupVariable(nameRes.value.Str)
	if err != nil {
		return result{}, err
	}
	return result{kind: matchValue, value: v}, nil
}

// variableDefinition matches `$name: value` and stores the value in the
// variable table. Variables are write-once for the whole flattened
// document and only string, integer and float values are legal.
func variableDefinition(c *cursor) (result, error) {
	if _, err := c.keyword("$"); err != nil {
		return result{}, err
	}
	keyRes, err := c.match(key)
	if err != nil {
		return result{}, err
	}
	name := keyRes.value.Str

	if _, _, err := c.maybeMatch(ws); err != nil {
		return result{}, err
	}

	valRes, err := c.match(basicString, literalString, number, variableValue)
	if err != nil {
		return result{}, err
	}

	if _, exists := c.variables[name]; exists {
		return result{}, c.err(DuplicatedVariableError, "variable '%s' has been already declared", name)
	}

	v := valRes.value
	switch v.Kind {
	case String, Int, Float:
	default:
		return result{}, c.syntaxErr("invalid variable value")
	}

	c.variables[name] = v
	return result{kind: matchVariable}, nil
}

// gImport matches an `import "path"` sentence and yields the path text
// for the import pre-pass.
func gImport(c *cursor) (result, error) {
	if _, err := c.keyword("import"); err != nil {
		return result{}, err
	}
	if _, err := c.char(" "); err != nil {
		return result{}, err
	}
	pathRes, err := c.match(quotedStringWithVar)
	if err != nil {
		return result{}, err
	}
	if _, err := ws(c); err != nil {
		return result{}, err
	}
	c.eatNewLine()
	return result{kind: matchImport, path: pathRes.value.Str}, nil
}

// unquotedString reads one or more key-class characters.
func unquotedString(c *cursor) (result, error) {
	first, err := c.char(keyChars)
	if err != nil {
		return result{}, err
	}
	var b strings.Builder
	b.WriteString(first)
	for {
		ch, ok, err := c.maybeChar(keyChars)
		if err != nil {
			return result{}, err
		}
		if !ok {
			break
		}
		b.WriteString(ch)
	}
	return result{kind: matchValue, value: StringValue(b.String())}, nil
}

// key matches an unquoted identifier followed by ':'.
func key(c *cursor) (result, error) {
	keyRes, err := c.match(unquotedString)
	if err != nil {
		if c.atEnd() {
			return result{}, c.syntaxErr("expected a key but got end of string")
		}
		return result{}, c.syntaxErr("expected a key but got '%s'", c.text[c.pos])
	}
	if _, err := c.keyword(":"); err != nil {
		return result{}, err
	}
	return keyRes, nil
}

// number matches any numeric literal: decimal integers (with an
// arbitrary-precision fallback on overflow), 0x/0o/0b radix integers,
// floats with exponents, and the inf/nan special values. Underscores are
// stripped before conversion.
func number(c *cursor) (result, error) {
	isFloat := false

	first, err := c.char(numberChars)
	if err != nil {
		return result{}, err
	}
	if first == "E" || first == "e" || first == "." {
		isFloat = true
	}

	var b strings.Builder
	b.WriteString(first)
	for {
		ch, ok, err := c.maybeChar(numberChars)
		if err != nil {
			return result{}, err
		}
		if !ok {
			break
		}
		if ch == "E" || ch == "e" || ch == "." {
			isFloat = true
		}
		b.WriteString(ch)
	}

	lit := strings.ReplaceAll(b.String(), "_", "")

	// Radix literals are always integers.
	if len(lit) > 2 {
		var base int
		switch lit[:2] {
		case "0x":
			base = 16
		case "0o":
			base = 8
		case "0b":
			base = 2
		}
		if base != 0 {
			v, err := strconv.ParseInt(lit[2:], base, 64)
			if err != nil {
				return result{}, c.syntaxErr("'%s' is not a valid number", lit)
			}
			return result{kind: matchValue, value: IntValue(v)}, nil
		}
	}

	switch {
	case strings.HasSuffix(lit, "inf"):
		sign := 1
		if strings.HasPrefix(lit, "-") {
			sign = -1
		}
		return result{kind: matchValue, value: FloatValue(math.Inf(sign))}, nil
	case strings.HasSuffix(lit, "nan"):
		return result{kind: matchValue, value: FloatValue(math.NaN())}, nil
	}

	if !isFloat {
		if v, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return result{kind: matchValue, value: IntValue(v)}, nil
		}
		// Decimal literal beyond 64 bits.
		if bi, ok := new(big.Int).SetString(lit, 10); ok {
			return result{kind: matchValue, value: BigIntValue(bi)}, nil
		}
	} else if v, err := strconv.ParseFloat(lit, 64); err == nil {
		return result{kind: matchValue, value: FloatValue(v)}, nil
	}

	return result{}, c.syntaxErr("'%s' is not a valid number", lit)
}

// list matches a bracketed, comma-separated sequence of values. Blank and
// comment-only lines between elements are skipped, and a trailing comma
// before ']' is optional.
func list(c *cursor) (result, error) {
	if _, err := ws(c); err != nil {
		return result{}, err
	}
	if _, err := c.keyword("["); err != nil {
		return result{}, err
	}

	var elems []Value
	for {
		if _, ok, err := c.maybeMatch(uselessLine); err != nil {
			return result{}, err
		} else if ok {
			continue
		}

		res, ok, err := c.maybeMatch(anyType)
		if err != nil {
			return result{}, err
		}
		if !ok {
			break
		}
		if res.kind != matchBreakParent {
			elems = append(elems, res.value)
		}

		if _, err := ws(c); err != nil {
			return result{}, err
		}
		c.eatNewLine()
		if _, ok, err := c.maybeKeyword(","); err != nil {
			return result{}, err
		} else if !ok {
			break
		}
	}

	if _, err := ws(c); err != nil {
		return result{}, err
	}
	c.eatNewLine()
	if _, err := c.keyword("]"); err != nil {
		return result{}, err
	}

	return result{kind: matchValue, value: Value{Kind: Array, List: elems}}, nil
}

// object accumulates variable definitions, pairs and useless lines until
// the block ends: nothing matches anymore, a pair at a shallower
// indentation signalled the end of this block, or a ']'/',' shows an
// enclosing list is taking over.
func object(c *cursor) (result, error) {
	obj := NewObj()
	indentLevel := 0

	for !c.atEnd() {
		res, ok, err := c.maybeMatch(variableDefinition, pair, uselessLine)
		if err != nil {
			return result{}, err
		}
		if !ok || res.kind == matchBreakParent {
			break
		}
		if res.kind == matchPair {
			if obj.Has(res.key) {
				return result{}, c.err(DuplicatedKeyError, "the key '%s' has been already defined", res.key)
			}
			obj.Set(res.key, res.value)
			indentLevel = res.indent
		}

		// A ']' or ',' here means an enclosing list owns the rest of the
		// input; leave it unconsumed for the list rule.
		m := c.mark()
		if _, ok, err := c.maybeKeyword("]", ","); err != nil {
			return result{}, err
		} else if ok {
			c.popIndent()
			c.restore(m)
			break
		}
	}

	if obj.Len() > 0 {
		return result{kind: matchObject, value: ObjectValue(obj), indent: indentLevel}, nil
	}
	return result{kind: matchBreakParent}, nil
}

// pair matches `key: value`, interpreting the leading run of spaces
// through the indentation stack: deeper opens a nested block, shallower
// pops the stack and hands the same text back to the parent object, equal
// means a sibling.
func pair(c *cursor) (result, error) {
	before := c.mark()

	indentRes, err := c.match(wsWithIndentation)
	if err != nil {
		return result{}, err
	}
	level := indentRes.indent

	keyRes, err := c.match(key)
	if err != nil {
		return result{}, err
	}
	keyName := keyRes.value.Str

	if _, _, err := c.maybeMatch(ws); err != nil {
		return result{}, err
	}

	if level%4 != 0 {
		return result{}, c.err(InvalidIndentationError, "indentation block (%d) must be divisible by 4", level)
	}

	if last, ok := c.lastIndent(); ok {
		switch {
		case level > last:
			c.pushIndent(level)
		case level < last:
			// End of the current block. Rewind so the parent object
			// re-examines this same pair at its own level.
			c.popIndent()
			c.restore(before)
			return result{kind: matchBreakParent}, nil
		}
	} else {
		// First pair of the document.
		if level != 0 {
			return result{}, c.err(InvalidIndentationError, "the first key of the document must not be indented")
		}
		c.pushIndent(level)
	}

	valRes, err := c.match(anyType)
	if err != nil {
		return result{}, err
	}

	var value Value
	switch valRes.kind {
	case matchBreakParent:
		return result{}, c.syntaxErr("invalid pair: missing value for key '%s'", keyName)
	case matchObject:
		// A nested object must sit exactly one level (4 spaces) away
		// from its parent.
		if valRes.indent == level {
			return result{}, c.err(InvalidIndentationError, "wrong indentation level for parent with key '%s'", keyName)
		}
		diff := valRes.indent - level
		if diff < 0 {
			diff = -diff
		}
		if diff != 4 {
			return result{}, c.err(InvalidIndentationError, "difference between different indentation levels must be 4")
		}
		value = valRes.value
	default:
		value = valRes.value
	}

	if value.Kind == Array {
		// Objects inside the list may have shifted the stack; restore
		// this pair's own level for the siblings that follow.
		c.popIndent()
		c.pushIndent(level)
	}

	c.eatNewLine()
	return result{kind: matchPair, key: keyName, value: value, indent: level}, nil
}
