package pysub

import (
	"io"
	"os"
)

// Interpreter wires the three pipeline stages together: lexer, parser,
// evaluator. Each stage consumes the previous stage's full output before the
// next one starts.
type Interpreter struct {
	out io.Writer
}

func NewInterpreter() *Interpreter {
	return &Interpreter{
		out: os.Stdout,
	}
}

func NewInterpreterWithOutput(out io.Writer) *Interpreter {
	return &Interpreter{
		out: out,
	}
}

func (i *Interpreter) Run(filename string) *Error {
	file, err := os.Open(filename)
	if err != nil {
		return &Error{
			Category: FileOpenError,
			Message:  "Could not open input file: " + filename,
		}
	}
	defer file.Close()

	return i.RunFromReader(file)
}

func (i *Interpreter) RunFromReader(reader io.Reader) *Error {
	program, err := Parse(reader)
	if err != nil {
		return err
	}

	return NewEvaluator(program, i.out).Run()
}

// Parse runs the lexer and parser over a source stream. The token sequence
// is fully materialized before parsing begins.
func Parse(reader io.Reader) (*Program, *Error) {
	tokens, err := NewLexer(reader).RunBlocking()
	if err != nil {
		return nil, err
	}

	return NewParser(tokens).Run()
}
