package connection

import (
	"github.com/oradrv/tnscore"
	"github.com/oradrv/tnscore/coreerr"
)

// CleanupContext is handed to the I/O layer by close-and-cleanup: the
// queued tasks to fail, the error to fail them with, whether a read is
// still needed to drain a pending marker response, and an optional
// close-promise cascaded from a quiescing shutdown request.
type CleanupContext struct {
	Tasks        []Task
	Err          error
	Read         bool
	ClosePromise *tnscore.Promise[struct{}]
}

// fatalKinds are the CoreError kinds that classify a connection as beyond
// repair.
var fatalKinds = map[coreerr.Kind]bool{
	coreerr.KindTransportFailed:          true,
	coreerr.KindTLSSetupFailed:           true,
	coreerr.KindTLSVerificationFailed:    true,
	coreerr.KindMessageDecodingFailure:   true,
	coreerr.KindUnexpectedBackendMessage: true,
	coreerr.KindMissingParameter:         true,
	coreerr.KindServerVersionUnsupported: true,
	coreerr.KindSIDUnsupported:           true,
	coreerr.KindUncleanShutdown:          true,
	coreerr.KindUnsupportedDataType:      true,
}

// fatalServerErrorNumbers are the server error numbers that put the
// connection itself in a closed state (the "connection-closed family").
var fatalServerErrorNumbers = map[int]bool{
	28:  true, // ORA-00028 session has been killed
	600: true, // ORA-00600 internal error
}

// shouldCloseConnection classifies whether err requires tearing the
// connection down (true) or can be handled as a local/recoverable failure
// (false). Pure client-side close errors (ClientClosedConnection,
// ClientClosesConnection) must never be passed in here — the cleanup
// pipeline already knows it is closing in that case.
func shouldCloseConnection(err error) bool {
	ce, ok := coreerr.As(err)
	if !ok {
		return true // an error not modeled in the taxonomy is treated conservatively
	}
	if ce.Kind == coreerr.KindClientClosedConnection || ce.Kind == coreerr.KindClientClosesConnection {
		panic("connection: shouldCloseConnection called with a pure client-side close error")
	}
	if fatalKinds[ce.Kind] {
		return true
	}
	if ce.Kind == coreerr.KindServer {
		return false // server error numbers are classified via BackendError, see isFatalServerError
	}
	return false
}

// isFatalServerError reports whether a server error number puts the
// connection itself in the "connection-closed family".
func isFatalServerError(number int) bool {
	return fatalServerErrorNumbers[number]
}

// isUncleanShutdown reports whether err represents an unclean shutdown,
// which the cleanup pipeline surfaces as "fire channel inactive" rather
// than an ordinary close.
func isUncleanShutdown(err error) bool {
	return coreerr.Is(err, coreerr.KindUncleanShutdown)
}
