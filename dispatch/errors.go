package dispatch

import "fmt"

// Kind classifies why an interaction failed.
type Kind int

const (
	UnknownFunction Kind = iota
	MissingArgument
	InvalidArguments
	ExecutionFailure
	ServiceFailure
)

func (k Kind) String() string {
	switch k {
	case UnknownFunction:
		return "UnknownFunction"
	case MissingArgument:
		return "MissingArgument"
	case InvalidArguments:
		return "InvalidArguments"
	case ExecutionFailure:
		return "ExecutionFailure"
	case ServiceFailure:
		return "ServiceFailure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the failure half of a Result. Err holds the underlying cause, so
// errors.Is sees through to sentinels such as indicator.ErrDataUnavailable.
type Error struct {
	Kind     Kind
	Function string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, function string, err error) *Error {
	return &Error{Kind: kind, Function: function, Message: err.Error(), Err: err}
}
