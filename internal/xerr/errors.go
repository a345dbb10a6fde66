// Package xerr classifies the error kinds the core distinguishes in its
// propagation policy (spec §7): driver errors pass through untouched,
// invariant violations and serialization-limit overruns are fatal, decode
// and replay problems degrade to warnings.
//
// Grounded on the teacher's errors.go (isError/newError/orPanic/checkErr):
// the same shape, generalized from a single vk.Result wrapper into the
// five-kind taxonomy spec.md §7 requires.
package xerr

import (
	"fmt"
	"runtime"
)

// Kind distinguishes how an error must propagate.
type Kind int

const (
	// KindDriver is a non-VK_SUCCESS return from the real driver. Passed
	// through unmodified to the application.
	KindDriver Kind = iota
	// KindInvariant is a core precondition violation (unknown handle,
	// duplicate create). Fatal.
	KindInvariant
	// KindSerializationLimit is a payload exceeding the fixed ceiling.
	// Fatal.
	KindSerializationLimit
	// KindDecode is a decode underflow or unknown schema tag. Logged,
	// call skipped where possible.
	KindDecode
	// KindUnsupportedReplay is e.g. a physical device unavailable at
	// replay time. Warned, handle marked dead.
	KindUnsupportedReplay
)

func (k Kind) String() string {
	switch k {
	case KindDriver:
		return "driver"
	case KindInvariant:
		return "invariant"
	case KindSerializationLimit:
		return "serialization-limit"
	case KindDecode:
		return "decode"
	case KindUnsupportedReplay:
		return "unsupported-in-replay"
	default:
		return "unknown"
	}
}

// Error is the core's own error type; it carries the Kind so callers can
// apply the right propagation policy without string matching.
type Error struct {
	Kind Kind
	Msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.err }

// New builds an *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an *Error of the given kind around a cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, err: cause}
}

// Invariant panics with a KindInvariant error. Spec §7.2: core invariants
// never surface to the application but crash the process, because
// continuing would silently corrupt the trace.
func Invariant(format string, args ...interface{}) {
	panic(New(KindInvariant, fmt.Sprintf(format, args...)))
}

// OrPanic is the teacher's orPanic, generalized to run finalizers before
// panicking so callers can release locks/handles on the fatal path.
func OrPanic(err error, finalizers ...func()) {
	if err != nil {
		for _, fn := range finalizers {
			fn()
		}
		panic(err)
	}
}

// Recover is the teacher's checkErrStack: recovers a panic at an API
// boundary (the base caller, the Spy's public entry points) and turns it
// back into an error (an *Error is returned as is; any other panic value
// gets the goroutine's stack trace appended), so a single invariant
// violation anywhere in the pipeline aborts only the current call chain's
// Go stack instead of dragging down unrelated goroutines without context.
func Recover(err *error) {
	if v := recover(); v != nil {
		stack := make([]byte, 32*1024)
		n := runtime.Stack(stack, false)
		switch e := v.(type) {
		case *Error:
			*err = e
		case error:
			*err = fmt.Errorf("%w\n%s", e, stack[:n])
		default:
			*err = fmt.Errorf("%+v\n%s", v, stack[:n])
		}
	}
}
