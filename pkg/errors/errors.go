// Package errors annotates errors with the place they are wrapped at.
//
// A wrapped error reads as
//
//	@ <func> "<file>" l<line> (<note>) <- <wrapped error>
//
// and wrapping errors repeatedly gives a trail of places, one per "<-".
package errors

import (
	"fmt"
	"runtime"
)

type ErrWithCaller struct {
	funcname string
	file     string
	line     int
	note     string
	err      error
}

// Note returns the annotation given with WrapWithNote.
func (e *ErrWithCaller) Note() string {
	return e.note
}

func (e *ErrWithCaller) Error() string {
	return fmt.Sprintf(`@ %s "%s" l%d (%s) <- %s`, e.funcname, e.file, e.line, e.note, e.err.Error())
}

func (e *ErrWithCaller) Unwrap() error {
	return e.err
}

// WrapWithNote wraps err with note and the caller location.
//
// nil is not wrapped.
func WrapWithNote(note string, err error) error {
	if err == nil {
		return nil
	}

	pc, file, line, ok := runtime.Caller(1)
	if !ok {
		file, line = "?", -1
	}
	funcname := "(unknown func)"
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcname = fn.Name()
	}
	return &ErrWithCaller{funcname: funcname, file: file, line: line, note: note, err: err}
}
