package connection

import (
	"github.com/oradrv/tnscore"
	"github.com/oradrv/tnscore/statement"
)

// ActionKind tags the single action ConnectionCore emits per entry point.
type ActionKind int

const (
	ActionWait ActionKind = iota
	ActionRead
	ActionLogoffConnection
	ActionCloseConnection
	ActionFireChannelInactive
	ActionFireEventReadyForStatement
	ActionCloseAndCleanup

	ActionSendConnect
	ActionSendOOBCheck
	ActionSendProtocol
	ActionSendDataTypes
	ActionSendMarker

	ActionProvideAuthenticationContext
	ActionSendFastAuth
	ActionSendAuthPhaseOne
	ActionSendAuthPhaseTwo
	ActionAuthenticated

	ActionSendPing
	ActionSucceedPing
	ActionFailPing
	ActionSendCommit
	ActionSucceedCommit
	ActionFailCommit
	ActionSendRollback
	ActionSucceedRollback
	ActionFailRollback

	ActionSendLobOp
	ActionSucceedLobOp
	ActionFailLobOp

	ActionSendExecute
	ActionSendReexecute
	ActionSendFetch
	ActionSendFlushOutBinds
	ActionSucceedStatement
	ActionFailStatement
	ActionForwardRows
	ActionForwardStreamComplete
	ActionForwardStreamError
	ActionForwardCancelComplete
)

// Action is the tagged result of one ConnectionCore entry-point call.
type Action struct {
	Kind ActionKind

	Promise *tnscore.Promise[struct{}] // logoff-connection/close-connection

	Allowed  bool // provide-authentication-context(allowed|denied)
	AuthCtx  any
	Params   tnscore.Parameters
	ReadFlag bool // send-marker(read), forward-stream-error read flag

	Cleanup *CleanupContext

	// StatusPromise carries the ping/commit/rollback/LOB-op promise on the
	// corresponding succeed-X/fail-X action; it has already been fulfilled
	// by the time the action is returned.
	StatusPromise *tnscore.Promise[Status]
	LobOp         *LobOp

	Err error

	// Statement-shaped payload, forwarded from StatementCore 1:1.
	CursorID        tnscore.CursorID
	Describe        *tnscore.DescribeInfo
	RequiresDefine  bool
	NoPrefetch      bool
	Result          statement.Result
	Rows            []tnscore.DataRow
	AffectedRows    int64
	LastRowID       string
	ClientCancelled bool
}

func wait() Action { return Action{Kind: ActionWait} }
func read() Action { return Action{Kind: ActionRead} }

func sendConnect() Action  { return Action{Kind: ActionSendConnect} }
func sendOOBCheck() Action { return Action{Kind: ActionSendOOBCheck} }
func sendProtocol() Action { return Action{Kind: ActionSendProtocol} }
func sendDataTypes() Action { return Action{Kind: ActionSendDataTypes} }
func sendMarker(read bool) Action {
	return Action{Kind: ActionSendMarker, ReadFlag: read}
}

func provideAuthenticationContext(allowed bool) Action {
	return Action{Kind: ActionProvideAuthenticationContext, Allowed: allowed}
}

func fireEventReadyForStatement() Action { return Action{Kind: ActionFireEventReadyForStatement} }

func closeConnection(promise *tnscore.Promise[struct{}]) Action {
	return Action{Kind: ActionCloseConnection, Promise: promise}
}

func sendPing() Action     { return Action{Kind: ActionSendPing} }
func sendCommit() Action   { return Action{Kind: ActionSendCommit} }
func sendRollback() Action { return Action{Kind: ActionSendRollback} }
func sendLobOp(op *LobOp) Action {
	return Action{Kind: ActionSendLobOp, LobOp: op}
}
