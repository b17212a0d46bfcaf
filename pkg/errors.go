package pysub

import "fmt"

type Category int

const (
	MissingFileError Category = iota
	FileOpenError
	IndentationError
	LexicalError
	ReservedKeywordError
	SyntaxError
	InternalError
	SemanticError
	IndexError
	EvaluationError
	ZeroDivision
	TypeError
)

var categoryNames = map[Category]string{
	MissingFileError:     "MISSING_FILE_ERROR",
	FileOpenError:        "FILE_OPEN_ERROR",
	IndentationError:     "INDENTATION_ERROR",
	LexicalError:         "LEXICAL_ERROR",
	ReservedKeywordError: "RESERVED_KEYWORD_ERROR",
	SyntaxError:          "SYNTAX_ERROR",
	InternalError:        "INTERNAL_ERROR",
	SemanticError:        "SEMANTIC_ERROR",
	IndexError:           "INDEX_ERROR",
	EvaluationError:      "EVALUATION_ERROR",
	ZeroDivision:         "ZERO_DIVISION",
	TypeError:            "TYPE_ERROR",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}

	return "UNKNOWN_ERROR"
}

// Error is the single diagnostic type shared by every pipeline stage. The
// first Error raised aborts the run; only the driver turns it into a process
// exit.
type Error struct {
	Category Category
	Line     int
	Column   int
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("Error: %s [%d:%d] - %s", e.Category, e.Line, e.Column, e.Message)
}

func newError(cat Category, loc Location, format string, args ...interface{}) *Error {
	return &Error{
		Category: cat,
		Line:     loc.Line,
		Column:   loc.Column,
		Message:  fmt.Sprintf(format, args...),
	}
}

func lexicalErrorf(loc Location, format string, args ...interface{}) *Error {
	return newError(LexicalError, loc, format, args...)
}

func indentationErrorf(loc Location, format string, args ...interface{}) *Error {
	return newError(IndentationError, loc, format, args...)
}

func syntaxErrorf(loc Location, format string, args ...interface{}) *Error {
	return newError(SyntaxError, loc, format, args...)
}

func semanticErrorf(loc Location, format string, args ...interface{}) *Error {
	return newError(SemanticError, loc, format, args...)
}

func indexErrorf(loc Location, format string, args ...interface{}) *Error {
	return newError(IndexError, loc, format, args...)
}

func typeErrorf(loc Location, format string, args ...interface{}) *Error {
	return newError(TypeError, loc, format, args...)
}

func internalErrorf(loc Location, format string, args ...interface{}) *Error {
	return newError(InternalError, loc, format, args...)
}

func zeroDivisionErrorf(loc Location, format string, args ...interface{}) *Error {
	return newError(ZeroDivision, loc, format, args...)
}
