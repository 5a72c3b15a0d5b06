package main

import (
	"errors"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
)

const (
	exitFailure = 1
	exitConfig  = 2
	exitInvalid = 3
)

type exitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e exitError) Unwrap() error {
	return e.err
}

func (e exitError) ExitCode() int {
	if e.code == 0 {
		return exitFailure
	}
	return e.code
}

func withExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return exitError{code: code, err: err}
}

// exitCodeForError prefers an explicit code, then maps configuration and
// validation error codes.
func exitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	var coded exitCoder
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	switch cerrors.GetCode(err) {
	case cerrors.ErrCodeConfigLoad, cerrors.ErrCodeConfigParse, cerrors.ErrCodeConfigInvalid:
		return exitConfig
	case cerrors.ErrCodeLibMgmtInvalid, cerrors.ErrCodeInvalidInput, cerrors.ErrCodeNotebookRegion:
		return exitInvalid
	}
	return exitFailure
}
