package gura

import "fmt"

// ErrorKind classifies a parse failure. Only SyntaxError is recoverable:
// the combinator backtracks past it to try other grammar alternatives,
// while every other kind aborts the parse immediately.
type ErrorKind int

const (
	// SyntaxError is a plain grammar mismatch.
	SyntaxError ErrorKind = iota
	// InvalidIndentationError covers tabs in indentation, runs not
	// divisible by 4, and nesting deltas other than 4.
	InvalidIndentationError
	// DuplicatedKeyError is the same key twice in one object.
	DuplicatedKeyError
	// DuplicatedVariableError is the same variable defined twice anywhere
	// in the flattened document.
	DuplicatedVariableError
	// VariableNotDefinedError is a reference to a variable absent from
	// both the document and the environment.
	VariableNotDefinedError
	// FileNotFoundError is an unreadable import target.
	FileNotFoundError
	// DuplicatedImportError is the same resolved path imported twice.
	DuplicatedImportError
)

// String returns the kind's name.
func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "syntax error"
	case InvalidIndentationError:
		return "invalid indentation"
	case DuplicatedKeyError:
		return "duplicated key"
	case DuplicatedVariableError:
		return "duplicated variable"
	case VariableNotDefinedError:
		return "variable not defined"
	case FileNotFoundError:
		return "file not found"
	case DuplicatedImportError:
		return "duplicated import"
	default:
		return "unknown error"
	}
}

// Error is the failure value returned by Parse. Pos is the grapheme offset
// from the start of the flattened document (-1 before the first
// character); Line is 1-based.
type Error struct {
	Kind ErrorKind
	Msg  string
	Pos  int
	Line int
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s (position %d)", e.Line, e.Msg, e.Pos)
}

// recoverable reports whether err may be backtracked past by the
// combinator. Non-*Error values and non-syntax kinds abort the parse.
func recoverable(err error) bool {
	pe, ok := err.(*Error)
	return ok && pe.Kind == SyntaxError
}
