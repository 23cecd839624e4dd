package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/cognicore/scode/pkg/scode/internalerr"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

// ArityError reports a line whose token count differs from the expected arity.
type ArityError struct {
	Line int // 1-based line number
	Got  int
	Want int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("line %d: expected %d tokens, got %d", e.Line, e.Want, e.Got)
}

// Unwrap lets errors.Is match internalerr.ErrInvalidInput.
func (e *ArityError) Unwrap() error {
	return internalerr.ErrInvalidInput
}

// ReadLines splits every line of r on whitespace and passes the fields to fn.
// Every line, including blank ones, must carry exactly arity tokens; the
// first line that does not stops the scan with an *ArityError.
func ReadLines(r io.Reader, arity int, fn func(fields []string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) != arity {
			return &ArityError{Line: line, Got: len(fields), Want: arity}
		}
		if err := fn(fields); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}
