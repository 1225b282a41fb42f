// Package coreerr classifies every error the session core can surface.
// Errors are plain returned values, never panics: a panic crossing an entry point
// would break the "exactly one action per call" contract the connection
// and statement machines depend on. Wrapping and stack capture go through
// github.com/cockroachdb/errors so a caller that wants the original cause
// (a transport error, a decode failure) can still unwrap to it.
package coreerr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind classifies an error for the connection-fatality decision.
type Kind int

const (
	KindUnspecified Kind = iota
	KindTransportFailed
	KindTLSSetupFailed
	KindTLSVerificationFailed
	KindUncleanShutdown
	KindMessageDecodingFailure
	KindUnexpectedBackendMessage
	KindServerVersionUnsupported
	KindSIDUnsupported
	KindUnsupportedDataType
	KindNationalCharsetUnsupported
	KindMissingParameter
	KindMissingStatement
	KindInvalidServerResponse
	KindStatementCancelled
	KindClientClosedConnection
	KindClientClosesConnection
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTransportFailed:
		return "TransportFailed"
	case KindTLSSetupFailed:
		return "TLSSetupFailed"
	case KindTLSVerificationFailed:
		return "TLSVerificationFailed"
	case KindUncleanShutdown:
		return "UncleanShutdown"
	case KindMessageDecodingFailure:
		return "MessageDecodingFailure"
	case KindUnexpectedBackendMessage:
		return "UnexpectedBackendMessage"
	case KindServerVersionUnsupported:
		return "ServerVersionUnsupported"
	case KindSIDUnsupported:
		return "SIDUnsupported"
	case KindUnsupportedDataType:
		return "UnsupportedDataType"
	case KindNationalCharsetUnsupported:
		return "NationalCharsetUnsupported"
	case KindMissingParameter:
		return "MissingParameter"
	case KindMissingStatement:
		return "MissingStatement"
	case KindInvalidServerResponse:
		return "InvalidServerResponse"
	case KindStatementCancelled:
		return "StatementCancelled"
	case KindClientClosedConnection:
		return "ClientClosedConnection"
	case KindClientClosesConnection:
		return "ClientClosesConnection"
	case KindServer:
		return "Server"
	default:
		return "Unspecified"
	}
}

// CoreError is the concrete error type every core-originated error is
// wrapped in. UnexpectedKind carries the UnexpectedBackendMessage(kind)
// payload; the loose string keeps the core decoupled from any particular
// message-tag enumeration (byte-level framing is out of scope here).
type CoreError struct {
	Kind          Kind
	UnexpectedKind string
	cause         error
}

func (e *CoreError) Error() string {
	if e.UnexpectedKind != "" {
		return fmt.Sprintf("%s(%s)", e.Kind, e.UnexpectedKind)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	}
	return e.Kind.String()
}

func (e *CoreError) Unwrap() error { return e.cause }

// New builds a CoreError of the given kind whose cause is the formatted
// message.
func New(kind Kind, format string, args ...any) error {
	return errors.WithStack(&CoreError{Kind: kind, cause: fmt.Errorf(format, args...)})
}

// Wrap builds a CoreError of the given kind wrapping cause.
func Wrap(kind Kind, cause error) error {
	if cause == nil {
		return nil
	}
	return errors.WithStack(&CoreError{Kind: kind, cause: cause})
}

// Unexpected builds an UnexpectedBackendMessage(kind) error.
func Unexpected(messageKind string) error {
	return errors.WithStack(&CoreError{Kind: KindUnexpectedBackendMessage, UnexpectedKind: messageKind})
}

// Is reports whether err (or something it wraps) is a CoreError of kind k.
func Is(err error, k Kind) bool {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Kind == k
	}
	return false
}

// As extracts the *CoreError from err, if any.
func As(err error) (*CoreError, bool) {
	var ce *CoreError
	ok := errors.As(err, &ce)
	return ce, ok
}

// ClientClosed is the canonical error used to fail queued tasks when a
// session is quiescing or terminal; equality-comparable via Is.
var ClientClosed = New(KindClientClosedConnection, "client closed the connection")

// ClientCloses is the canonical error fed into the cleanup pipeline when the
// caller itself initiates the close, as distinct from ClientClosed (used to
// fail tasks that were merely caught in the blast radius).
var ClientCloses = New(KindClientClosesConnection, "client is closing the connection")

// StatementCancelled is the canonical error surfaced when a statement is
// cancelled by the consumer.
var StatementCancelled = New(KindStatementCancelled, "statement cancelled")
