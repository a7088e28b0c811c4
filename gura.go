// Package gura provides functionality for parsing, encoding and decoding
// Gura configuration documents.
//
// Parse and ParseFile produce an ordered Value tree; Dump serializes a
// tree back to text. Unmarshal and Marshal map documents onto Go structs,
// maps and slices the way encoding/json does, using `gura` struct tags.
package gura

import (
	"fmt"
	"path/filepath"
)

// Parse parses a document and returns its value tree. The result is
// always an object; an empty or comment-only document yields an object
// with no keys. Imports inside the text resolve relative to the current
// working directory.
func Parse(text string) (Value, error) {
	return parseText(text, "", osFS{})
}

// ParseFile reads and parses the document at path. Imports inside it
// resolve relative to the file's directory.
func ParseFile(path string) (Value, error) {
	fs := osFS{}
	if !fs.Exists(path) {
		return Value{}, &Error{
			Kind: FileNotFoundError,
			Msg:  fmt.Sprintf("the file '%s' does not exist", path),
			Pos:  -1,
			Line: 0,
		}
	}
	content, err := fs.ReadFile(path)
	if err != nil {
		return Value{}, &Error{
			Kind: FileNotFoundError,
			Msg:  fmt.Sprintf("the file '%s' could not be read", path),
			Pos:  -1,
			Line: 0,
		}
	}
	return parseText(content, filepath.Dir(path), fs)
}

func parseText(text, baseDir string, fs fileSystem) (Value, error) {
	c := newCursor(fs)
	c.reset(text)

	res, err := start(c, baseDir)
	if err != nil {
		return Value{}, err
	}
	if err := c.assertEnd(); err != nil {
		return Value{}, err
	}

	if res.kind == matchObject {
		return res.value, nil
	}
	return ObjectValue(NewObj()), nil
}
