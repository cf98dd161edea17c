// Package apperror defines the error taxonomy shared across agents: a
// small set of typed errors that every skill handler and A2A transport
// boundary can recognize by errors.As instead of string sniffing.
package apperror

import "fmt"

// Kind identifies one of the error categories named in the system's
// error-handling design.
type Kind string

const (
	KindTransport      Kind = "TransportError"
	KindModel          Kind = "ModelError"
	KindValidation     Kind = "ValidationError"
	KindUnknownTool    Kind = "UnknownTool"
	KindMissingTool    Kind = "MissingTool"
	KindToolInvocation Kind = "ToolInvocationError"
	KindNoToolsAvail   Kind = "NoToolsAvailable"
	KindUnknownSkill   Kind = "UnknownSkill"
)

// Error is a typed error carrying a Kind plus a human-readable message and
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, apperror.New(apperror.KindX, "")) style checks:
// any *Error target matches when its Kind equals e's, whatever its message
// or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Transport(message string, cause error) *Error {
	return Wrap(KindTransport, message, cause)
}

func Model(message string, cause error) *Error {
	return Wrap(KindModel, message, cause)
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func UnknownTool(name string) *Error {
	return New(KindUnknownTool, fmt.Sprintf("tool %q is not in the discovered catalog", name))
}

func MissingTool(name string) *Error {
	return New(KindMissingTool, fmt.Sprintf("required tool %q is missing from the catalog", name))
}

func ToolInvocation(name string, cause error) *Error {
	return Wrap(KindToolInvocation, fmt.Sprintf("tool %q returned an error", name), cause)
}

func NoToolsAvailable() *Error {
	return New(KindNoToolsAvail, "no tools are available from the executor")
}

func UnknownSkill(skill string) *Error {
	return New(KindUnknownSkill, fmt.Sprintf("skill %q is not registered", skill))
}

// KindOf extracts the Kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	for err != nil {
		if v, ok := err.(*Error); ok {
			e = v
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if e == nil {
		return "", false
	}
	return e.Kind, true
}
