// Package fserr defines the error taxonomy of the filesystem mediation layer.
// All error types support errors.Is against the sentinel of their kind and
// errors.As for the concrete type.
package fserr

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

// Kind classifies a failure
type Kind int

const (
	KindUnknown Kind = iota
	KindSecurityViolation
	KindValidation
	KindNotFound
	KindNotADirectory
	KindIsADirectory
	KindAlreadyExists
	KindDenied
	KindIOFailure
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindSecurityViolation: "security_violation",
	KindValidation:        "validation_error",
	KindNotFound:          "not_found",
	KindNotADirectory:     "not_a_directory",
	KindIsADirectory:      "is_a_directory",
	KindAlreadyExists:     "already_exists",
	KindDenied:            "denied",
	KindIOFailure:         "io_failure",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", text)
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrSecurityViolation = &Error{Kind: KindSecurityViolation}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrNotADirectory     = &Error{Kind: KindNotADirectory}
	ErrIsADirectory      = &Error{Kind: KindIsADirectory}
	ErrAlreadyExists     = &Error{Kind: KindAlreadyExists}
	ErrDenied            = &Error{Kind: KindDenied}
	ErrIOFailure         = &Error{Kind: KindIOFailure}
)

// Error is a classified failure of a single operation.
// Path is always the caller-facing (workspace-relative or as-supplied) path.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

// New creates an Error of the given kind
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Validationf creates a validation error with a formatted message
func Validationf(op, path, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Op: op, Path: path, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := kindMessage(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Path == "" && t.Err == nil && t.Kind == e.Kind
}

func kindMessage(k Kind) string {
	switch k {
	case KindSecurityViolation:
		return "security violation"
	case KindValidation:
		return "invalid request"
	case KindNotFound:
		return "no such file or directory"
	case KindNotADirectory:
		return "not a directory"
	case KindIsADirectory:
		return "is a directory"
	case KindAlreadyExists:
		return "already exists"
	case KindDenied:
		return "operation denied"
	case KindIOFailure:
		return "i/o failure"
	default:
		return "error"
	}
}

// SecurityViolation reports a path whose canonical form lies outside the
// workspace. The message names only the path the caller supplied; the
// resolved host location is never included.
type SecurityViolation struct {
	AttemptedPath string
	WorkspaceRoot string
}

func (e *SecurityViolation) Error() string {
	return fmt.Sprintf("security violation: path %q resolves outside the workspace", e.AttemptedPath)
}

// Is matches ErrSecurityViolation
func (e *SecurityViolation) Is(target error) bool {
	return target == ErrSecurityViolation
}

// KindOf returns the Kind of err, or KindUnknown when err is not classified
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var sv *SecurityViolation
	if errors.As(err, &sv) {
		return KindSecurityViolation
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// FromOS classifies an error returned by the os package. The *fs.PathError
// wrapper is stripped so the host absolute path does not reach callers.
func FromOS(op, path string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}

	cause := err
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		cause = pathErr.Err
	}
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		cause = linkErr.Err
	}

	kind := KindIOFailure
	switch {
	case errors.Is(cause, fs.ErrNotExist):
		kind = KindNotFound
	case errors.Is(cause, fs.ErrExist):
		kind = KindAlreadyExists
	case errors.Is(cause, syscall.ENOTDIR):
		kind = KindNotADirectory
	case errors.Is(cause, syscall.EISDIR):
		kind = KindIsADirectory
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: cause}
}
