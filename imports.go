package gura

import (
	"os"
	"path/filepath"
	"strings"
)

// fileSystem abstracts file access for import resolution so tests can
// parse documents without touching the real disk.
type fileSystem interface {
	ReadFile(path string) (string, error)
	Exists(path string) bool
}

// osFS reads imports from the operating system.
type osFS struct{}

func (osFS) ReadFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (osFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

type pendingImport struct {
	path    string
	baseDir string
}

// expandImports runs the textual import pre-pass: it consumes the leading
// run of import sentences, variable definitions and useless lines,
// resolves every imported file relative to baseDir, recursively expands
// it, and splices the expanded text in front of the rest of the document.
// The cursor is reset to the flattened text.
func (c *cursor) expandImports(baseDir string) error {
	var pending []pendingImport
	for !c.atEnd() {
		res, ok, err := c.maybeMatch(gImport, variableDefinition, uselessLine)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if res.kind == matchImport {
			pending = append(pending, pendingImport{path: res.path, baseDir: baseDir})
		}
	}
	if len(pending) == 0 {
		return nil
	}

	var spliced strings.Builder
	for _, imp := range pending {
		target := imp.path
		if imp.baseDir != "" {
			target = filepath.Join(imp.baseDir, imp.path)
		}
		canonical := target
		if abs, err := filepath.Abs(target); err == nil {
			canonical = abs
		}

		if _, seen := c.imported[canonical]; seen {
			return c.err(DuplicatedImportError, "the file '%s' has been already imported", imp.path)
		}
		if !c.fs.Exists(target) {
			return c.err(FileNotFoundError, "the file '%s' does not exist", target)
		}
		content, err := c.fs.ReadFile(target)
		if err != nil {
			return c.err(FileNotFoundError, "the file '%s' could not be read", target)
		}

		// Record before recursing so an import cycle surfaces as a
		// duplicate instead of recursing forever.
		c.imported[canonical] = struct{}{}

		expanded, err := c.expandSubDocument(content, filepath.Dir(target))
		if err != nil {
			return err
		}
		spliced.WriteString(expanded)
		spliced.WriteString("\n")
	}

	rest := strings.Join(c.remaining(), "")
	c.reset(spliced.String() + rest)
	return nil
}

// expandSubDocument expands an imported file's own imports. The sub-cursor
// shares this cursor's imported-files set so duplicates are caught across
// the whole import graph, but keeps its own variable table: the spliced
// text still carries the file's variable definitions and the grammar pass
// defines them once, in order.
func (c *cursor) expandSubDocument(content, baseDir string) (string, error) {
	sub := newCursor(c.fs)
	sub.imported = c.imported
	sub.reset(content)
	if err := sub.expandImports(baseDir); err != nil {
		return "", err
	}
	return strings.Join(sub.text, ""), nil
}
