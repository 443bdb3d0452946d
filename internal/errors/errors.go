// Package errors provides structured error types for session-switcher.
// Errors carry the operation that failed and a Kind so callers can branch on
// the category (for example a missing session versus a failing tmux call)
// without matching on message text.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Op describes an operation, usually as "package.function".
type Op string

// Kind categorizes the type of error.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindExternalTool
	KindMalformedOutput
	KindDependencyMissing
	KindUnsupported
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindExternalTool:
		return "external tool failure"
	case KindMalformedOutput:
		return "malformed external output"
	case KindDependencyMissing:
		return "dependency missing"
	case KindUnsupported:
		return "unsupported"
	case KindConfig:
		return "configuration error"
	default:
		return "unknown error"
	}
}

// Error is the structured error type for session-switcher.
type Error struct {
	Op      Op     // Operation that failed
	Kind    Kind   // Category of error
	Err     error  // Underlying error
	Context string // Additional context
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Context, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error. Arguments can be:
// - Op: the operation name
// - Kind: the error kind
// - string: context message
// - error: the underlying error
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case string:
			e.Context = a
		case error:
			e.Err = a
		}
	}
	if e.Err == nil {
		e.Err = errors.New(e.Context)
		e.Context = ""
	}
	return e
}

// Is reports whether err is of the given Kind. The outermost *Error in the
// chain decides.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// GetKind returns the Kind of an error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Dispatch errors

func SessionNotFound(name string) error {
	return E(Op("registry.FindOwner"), KindNotFound, fmt.Sprintf("session %s not found", name))
}

// NotOwned reports that a source does not own the named session.
func NotOwned(source, name string) error {
	return E(Op(source+".Resolve"), KindNotFound, fmt.Sprintf("session %s not found", name))
}

func Unsupported(action string) error {
	return E(Op("switcher.Run"), KindUnsupported, action+" not implemented")
}

// External tool errors

func ExternalToolFailed(tool string, args []string, err error) error {
	return E(Op(tool), KindExternalTool, fmt.Sprintf("%s %s", tool, strings.Join(args, " ")), err)
}

func MalformedOutput(tool, detail string) error {
	return E(Op(tool), KindMalformedOutput, detail)
}

func DependencyMissing(source, dep string) error {
	return E(Op("registry.CheckDependencies"), KindDependencyMissing,
		fmt.Sprintf("source %s requires %q which is not in PATH", source, dep))
}

// Config errors

func ConfigLoadFailed(path string, err error) error {
	return E(Op("config.Load"), KindConfig, fmt.Sprintf("failed to load config from %s", path), err)
}

func ConfigSaveFailed(path string, err error) error {
	return E(Op("config.Save"), KindConfig, fmt.Sprintf("failed to save config to %s", path), err)
}
