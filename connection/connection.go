// Package connection implements ConnectionCore: the top-level session state
// machine. It sequences connect/OOB-check/protocol negotiation, embeds
// AuthCore and StatementCore as sub-machines via 1:1 action forwarding,
// maintains the FIFO task queue and the out-of-band marker state, and runs
// the cleanup pipeline that tears a session down on a fatal error.
package connection

import (
	"github.com/oradrv/tnscore"
	"github.com/oradrv/tnscore/auth"
	"github.com/oradrv/tnscore/coreerr"
	"github.com/oradrv/tnscore/rowstream"
	"github.com/oradrv/tnscore/statement"
)

type phase int

const (
	phaseInitialized phase = iota
	phaseConnectMessageSent
	phaseOOBCheckInProgress
	phaseProtocolMessageSent
	phaseDataTypesMessageSent
	phaseWaitingToStartAuthentication
	phaseAuthenticating
	phaseReadyForStatement
	phaseStatement
	phasePing
	phaseCommit
	phaseRollback
	phaseLobOperation
	phaseReadyToLogOff
	phaseLoggingOff
	phaseClosing
	phaseClosed
	phaseRenegotiatingTLS
)

func (p phase) String() string {
	switch p {
	case phaseInitialized:
		return "initialized"
	case phaseConnectMessageSent:
		return "connect-message-sent"
	case phaseOOBCheckInProgress:
		return "oob-check-in-progress"
	case phaseProtocolMessageSent:
		return "protocol-message-sent"
	case phaseDataTypesMessageSent:
		return "data-types-message-sent"
	case phaseWaitingToStartAuthentication:
		return "waiting-to-start-authentication"
	case phaseAuthenticating:
		return "authenticating"
	case phaseReadyForStatement:
		return "ready-for-statement"
	case phaseStatement:
		return "statement"
	case phasePing:
		return "ping"
	case phaseCommit:
		return "commit"
	case phaseRollback:
		return "rollback"
	case phaseLobOperation:
		return "lob-operation"
	case phaseReadyToLogOff:
		return "ready-to-log-off"
	case phaseLoggingOff:
		return "logging-off"
	case phaseClosing:
		return "closing"
	case phaseClosed:
		return "closed"
	case phaseRenegotiatingTLS:
		return "renegotiating-tls"
	default:
		return "unknown"
	}
}

// Core is ConnectionCore.
type Core struct {
	ph   phase
	opts Options

	verifier     auth.ServerResponseVerifier
	caps         Capabilities
	fastAuthHint bool

	auth    *auth.Core
	stmt    *statement.Core
	stmtCtx *statement.Context

	queue      []Task
	markerSent bool

	quiescing           bool
	quiesceClosePromise *tnscore.Promise[struct{}]

	activeTaskPromise *tnscore.Promise[Status]
	activeLobOp       *LobOp
}

// New constructs a ConnectionCore. verifier is handed to every AuthCore this
// session instantiates; it may be nil (see auth.ServerResponseVerifier).
func New(verifier auth.ServerResponseVerifier, opts Options) *Core {
	return &Core{verifier: verifier, opts: opts}
}

// Snapshot's Phase field and diagnostics read c.ph directly; no locking is
// needed because the core is single-threaded-cooperative by contract.

// IsClosed reports whether the session has reached its absorbing terminal
// state.
func (c *Core) IsClosed() bool {
	return c.ph == phaseClosed
}

// Connected handles connected().
func (c *Core) Connected() Action {
	if c.ph != phaseInitialized && c.ph != phaseRenegotiatingTLS {
		return wait()
	}
	c.ph = phaseConnectMessageSent
	c.opts.Logger.Debug().Str("phase", c.ph.String()).Msg("connection: sending connect message")
	return sendConnect()
}

// branch implements the shared accept(caps)/oob-check-complete()/
// marker-received(while oob-check-in-progress) decision table.
func (c *Core) branch(caps Capabilities) Action {
	if caps.SupportsOOB && caps.ProtocolVersion >= c.opts.MinOOBCheckVersion {
		c.fastAuthHint = caps.SupportsFastAuth
		c.ph = phaseOOBCheckInProgress
		c.opts.Logger.Debug().Str("phase", c.ph.String()).Msg("connection: probing OOB support")
		return sendOOBCheck()
	}
	if caps.SupportsFastAuth {
		c.ph = phaseWaitingToStartAuthentication
		c.fastAuthHint = true
		c.opts.Logger.Debug().Str("phase", c.ph.String()).Msg("connection: fast-auth eligible, skipping protocol negotiation")
		return provideAuthenticationContext(true)
	}
	c.ph = phaseProtocolMessageSent
	c.opts.Logger.Debug().Str("phase", c.ph.String()).Msg("connection: starting classic protocol negotiation")
	return sendProtocol()
}

// Accept handles accept(caps, description).
func (c *Core) Accept(caps Capabilities) Action {
	if c.ph != phaseConnectMessageSent {
		return wait()
	}
	c.caps = caps
	return c.branch(caps)
}

// branchAfterOOB picks up where branch left off once the OOB probe has
// resolved: the OOB arm itself must not be re-entered, so only the
// fast-auth and classic-protocol arms remain, steered by the hint captured
// from the accept capabilities.
func (c *Core) branchAfterOOB() Action {
	if c.fastAuthHint {
		c.ph = phaseWaitingToStartAuthentication
		c.opts.Logger.Debug().Str("phase", c.ph.String()).Msg("connection: fast-auth eligible, skipping protocol negotiation")
		return provideAuthenticationContext(true)
	}
	c.ph = phaseProtocolMessageSent
	c.opts.Logger.Debug().Str("phase", c.ph.String()).Msg("connection: starting classic protocol negotiation")
	return sendProtocol()
}

// OOBCheckComplete handles oob-check-complete().
func (c *Core) OOBCheckComplete() Action {
	if c.ph != phaseOOBCheckInProgress {
		return wait()
	}
	return c.branchAfterOOB()
}

// MarkerReceived handles marker-received. While an OOB check is in
// progress, a marker-received event carries the same branching information
// as oob-check-complete. Otherwise it is the server's out-of-band cancel
// marker: emit SendMarker if none is in flight; a repeat while one is in
// flight is absorbed without sending and resets the marker state.
func (c *Core) MarkerReceived() Action {
	if c.ph == phaseOOBCheckInProgress {
		return c.branchAfterOOB()
	}
	if !c.markerSent {
		c.markerSent = true
		return sendMarker(false)
	}
	c.markerSent = false
	return wait()
}

// ProtocolReceived handles protocol-received.
func (c *Core) ProtocolReceived() Action {
	switch c.ph {
	case phaseProtocolMessageSent:
		c.ph = phaseDataTypesMessageSent
		return sendDataTypes()
	case phaseAuthenticating:
		if c.auth == nil {
			return wait()
		}
		return c.mapAuthAction(c.auth.ProtocolReceived())
	default:
		return wait()
	}
}

// DataTypesReceived handles data-types-received.
func (c *Core) DataTypesReceived() Action {
	switch c.ph {
	case phaseDataTypesMessageSent:
		c.ph = phaseWaitingToStartAuthentication
		return provideAuthenticationContext(false)
	case phaseAuthenticating:
		if c.auth == nil {
			return wait()
		}
		return c.mapAuthAction(c.auth.DataTypesReceived())
	default:
		return wait()
	}
}

// ProvideAuthenticationContext handles provide-authentication-context(ctx,
// fast-auth): instantiates AuthCore and starts it.
func (c *Core) ProvideAuthenticationContext(authCtx any, fastAuth bool) Action {
	if c.ph != phaseWaitingToStartAuthentication {
		return wait()
	}
	c.auth = auth.New(c.verifier)
	c.ph = phaseAuthenticating
	c.opts.Logger.Debug().Bool("fastAuth", fastAuth).Msg("connection: starting authentication")
	return c.mapAuthAction(c.auth.Start(authCtx, fastAuth))
}

// ParameterReceived handles parameter-received(params).
func (c *Core) ParameterReceived(authCtx any, params tnscore.Parameters) Action {
	if c.ph != phaseAuthenticating || c.auth == nil {
		return wait()
	}
	return c.mapAuthAction(c.auth.ParameterReceived(authCtx, params))
}

// StatusReceived handles status-received(status): the server acknowledgment
// for ping/commit/rollback/LOB-op, or the logoff acknowledgment.
func (c *Core) StatusReceived(st Status) Action {
	switch c.ph {
	case phasePing:
		return c.completeActiveRequest(st, ActionSucceedPing)
	case phaseCommit:
		return c.completeActiveRequest(st, ActionSucceedCommit)
	case phaseRollback:
		return c.completeActiveRequest(st, ActionSucceedRollback)
	case phaseLobOperation:
		return c.completeActiveRequest(st, ActionSucceedLobOp)
	case phaseReadyToLogOff, phaseLoggingOff:
		c.ph = phaseClosing
		p := c.quiesceClosePromise
		c.quiesceClosePromise = nil
		return closeConnection(p)
	default:
		return c.closeConnectionAndCleanup(coreerr.Unexpected("status"))
	}
}

func (c *Core) completeActiveRequest(st Status, succeedKind ActionKind) Action {
	p := c.activeTaskPromise
	c.activeTaskPromise = nil
	if p != nil {
		p.Succeed(st)
	}
	lobOp := c.activeLobOp
	return Action{Kind: succeedKind, StatusPromise: p, LobOp: lobOp}
}

// BackendErrorReceived handles backend-error-received.
func (c *Core) BackendErrorReceived(be tnscore.BackendError) Action {
	switch c.ph {
	case phaseStatement:
		if c.stmt == nil {
			return wait()
		}
		if isFatalServerError(be.Number) {
			return c.closeConnectionAndCleanup(coreerr.Wrap(coreerr.KindServer, &be))
		}
		return c.mapStatementAction(c.stmt.ServerError(be))
	case phaseAuthenticating:
		if c.auth == nil {
			return wait()
		}
		return c.mapAuthAction(c.auth.ErrorReceived(be))
	case phasePing, phaseCommit, phaseRollback, phaseLobOperation:
		return c.failActiveRequest(coreerr.Wrap(coreerr.KindServer, &be))
	default:
		return c.closeConnectionAndCleanup(coreerr.Wrap(coreerr.KindServer, &be))
	}
}

func (c *Core) failActiveRequest(err error) Action {
	if isFatalServerError(serverErrorNumber(err)) || shouldCloseConnection(err) {
		return c.closeConnectionAndCleanup(err)
	}
	p := c.activeTaskPromise
	c.activeTaskPromise = nil
	if p != nil {
		p.Fail(err)
	}
	lobOp := c.activeLobOp
	var kind ActionKind
	switch c.ph {
	case phasePing:
		kind = ActionFailPing
	case phaseCommit:
		kind = ActionFailCommit
	case phaseRollback:
		kind = ActionFailRollback
	case phaseLobOperation:
		kind = ActionFailLobOp
	}
	return Action{Kind: kind, StatusPromise: p, Err: err, LobOp: lobOp}
}

func serverErrorNumber(err error) int {
	ce, ok := coreerr.As(err)
	if !ok {
		return 0
	}
	var be *tnscore.BackendError
	if berr, ok := ce.Unwrap().(*tnscore.BackendError); ok {
		be = berr
	}
	if be == nil {
		return 0
	}
	return be.Number
}

// Statement-bound event forwarding. Each of these is a no-op unless a
// statement is currently active.

func (c *Core) DescribeInfoReceived(d tnscore.DescribeInfo) Action {
	if c.ph != phaseStatement || c.stmt == nil {
		return wait()
	}
	return c.mapStatementAction(c.stmt.DescribeInfo(d))
}

func (c *Core) RowHeaderReceived(rh tnscore.RowHeader) Action {
	if c.ph != phaseStatement || c.stmt == nil {
		return wait()
	}
	return c.mapStatementAction(c.stmt.RowHeader(rh))
}

func (c *Core) RowDataReceived(row tnscore.DataRow) Action {
	if c.ph != phaseStatement || c.stmt == nil {
		return wait()
	}
	return c.mapStatementAction(c.stmt.RowData(row))
}

func (c *Core) BitVectorReceived(bv []byte) Action {
	if c.ph != phaseStatement || c.stmt == nil {
		return wait()
	}
	return c.mapStatementAction(c.stmt.BitVector(bv))
}

func (c *Core) QueryParameterReceived(qp statement.QueryParameter) Action {
	if c.ph != phaseStatement || c.stmt == nil {
		return wait()
	}
	return c.mapStatementAction(c.stmt.QueryParameter(qp))
}

func (c *Core) IOVectorReceived(n int) Action {
	if c.ph != phaseStatement || c.stmt == nil {
		return wait()
	}
	return c.mapStatementAction(c.stmt.InOutVector(n))
}

func (c *Core) FlushOutBindsReceived() Action {
	if c.ph != phaseStatement || c.stmt == nil {
		return wait()
	}
	return c.mapStatementAction(c.stmt.FlushOutBinds())
}

// LobDataReceived and LobParameterReceived are sequenced by the core but
// their payloads are opaque (LOB value decoding is out of scope); no
// statement-level reaction is defined for them.
func (c *Core) LobDataReceived() Action      { return wait() }
func (c *Core) LobParameterReceived() Action { return wait() }

func (c *Core) ChannelReadComplete() Action {
	if c.ph != phaseStatement || c.stmt == nil {
		return wait()
	}
	return c.mapStatementAction(c.stmt.ChannelReadComplete())
}

func (c *Core) ReadEventCaught() Action {
	if c.ph == phaseStatement && c.stmt != nil {
		return c.mapStatementAction(c.stmt.ReadEvent())
	}
	return read()
}

func (c *Core) RequestStatementRows() Action {
	if c.ph != phaseStatement || c.stmt == nil {
		return wait()
	}
	return c.mapStatementAction(c.stmt.RequestRows())
}

func (c *Core) CancelStatementStream() Action {
	if c.ph != phaseStatement || c.stmt == nil {
		return wait()
	}
	return c.mapStatementAction(c.stmt.Cancel())
}

// StatementStreamCancelled handles statement-stream-cancelled: the consumer
// has observed the cancellation signal, so the connection now sends the
// out-of-band cancel marker. At most one marker may be in flight; if one
// already is, the pending server response doubles as the cancel signal.
func (c *Core) StatementStreamCancelled() Action {
	if c.markerSent {
		return wait()
	}
	c.markerSent = true
	return sendMarker(true)
}

// ReadyForStatement handles readyForStatement-received: a request (statement
// /ping/commit/rollback/LOB-op) has finished and the session returns to
// ready, either starting the next queued task, closing if quiescing, or
// firing the ready event.
func (c *Core) ReadyForStatement() Action {
	switch c.ph {
	case phaseStatement, phasePing, phaseCommit, phaseRollback, phaseLobOperation:
		c.ph = phaseReadyForStatement
		c.stmt = nil
		c.stmtCtx = nil
		c.activeLobOp = nil
		// any in-flight cancel marker has had its response consumed by the
		// request that just completed; the next cancel needs a fresh one
		c.markerSent = false
		c.opts.Logger.Debug().Int("queueDepth", len(c.queue)).Msg("connection: returned to ready-for-statement")
		return c.afterReadyForStatement()
	default:
		return wait()
	}
}

func (c *Core) afterReadyForStatement() Action {
	if c.quiescing {
		c.ph = phaseClosing
		p := c.quiesceClosePromise
		c.quiescing = false
		c.quiesceClosePromise = nil
		return closeConnection(p)
	}
	if len(c.queue) > 0 {
		t := c.queue[0]
		c.queue = c.queue[1:]
		return c.startTask(t)
	}
	return fireEventReadyForStatement()
}

func (c *Core) startTask(t Task) Action {
	c.opts.Logger.Debug().Str("taskID", string(t.ID)).Int("kind", int(t.Kind)).Msg("connection: dispatching task")
	switch t.Kind {
	case TaskStatement:
		c.stmtCtx = t.Statement
		core, a := statement.New(t.Statement)
		c.stmt = core
		c.ph = phaseStatement
		return c.mapStatementAction(a)
	case TaskPing:
		c.activeTaskPromise = t.Promise
		c.ph = phasePing
		return sendPing()
	case TaskCommit:
		c.activeTaskPromise = t.Promise
		c.ph = phaseCommit
		return sendCommit()
	case TaskRollback:
		c.activeTaskPromise = t.Promise
		c.ph = phaseRollback
		return sendRollback()
	case TaskLobOp:
		c.activeTaskPromise = t.Promise
		c.activeLobOp = t.LobOp
		c.ph = phaseLobOperation
		return sendLobOp(t.LobOp)
	default:
		return wait()
	}
}

// Enqueue handles enqueue(task): immediate dispatch when ready, queued
// otherwise, failed outright when quiescing or terminal.
func (c *Core) Enqueue(t Task) Action {
	if c.quiescing || c.ph == phaseReadyToLogOff || c.ph == phaseLoggingOff || c.ph == phaseClosing || c.ph == phaseClosed {
		t.fail(coreerr.ClientClosed)
		return wait()
	}
	if c.ph == phaseReadyForStatement {
		return c.startTask(t)
	}
	c.queue = append(c.queue, t)
	return wait()
}

// Logoff requests a graceful session shutdown from ready-for-statement.
// Outside that state, it is folded into quiescing so the close happens once
// the session returns to ready (see Close).
func (c *Core) Logoff(promise *tnscore.Promise[struct{}]) Action {
	if c.ph != phaseReadyForStatement {
		c.quiescing = true
		c.quiesceClosePromise = promise
		return wait()
	}
	c.ph = phaseReadyToLogOff
	c.quiesceClosePromise = promise
	return Action{Kind: ActionLogoffConnection, Promise: promise}
}

// LogoffSent records that the transport has put the logoff message on the
// wire; the session now waits for the server's status acknowledgment.
func (c *Core) LogoffSent() Action {
	if c.ph != phaseReadyToLogOff {
		return wait()
	}
	c.ph = phaseLoggingOff
	return wait()
}

// Close handles close(promise): from an idle state it enters the cleanup
// pipeline immediately with a client-closes-connection error; from any
// active state it quiesces, deferring the close until the session returns to
// ready-for-statement (see afterReadyForStatement).
func (c *Core) Close(promise *tnscore.Promise[struct{}]) Action {
	switch c.ph {
	case phaseReadyForStatement, phaseInitialized:
		return c.closeConnectionAndCleanupWithPromise(coreerr.ClientCloses, promise)
	case phaseReadyToLogOff, phaseLoggingOff, phaseClosing, phaseClosed:
		return wait() // shutdown already under way
	default:
		c.quiescing = true
		c.quiesceClosePromise = promise
		return wait()
	}
}

// ErrorHappened handles errorHappened(err): forwards to whichever
// sub-machine is active and incomplete, otherwise runs cleanup directly.
func (c *Core) ErrorHappened(err error) Action {
	return c.closeConnectionAndCleanup(err)
}

// Closed handles closed() (channel inactive).
func (c *Core) Closed() Action {
	switch c.ph {
	case phaseReadyToLogOff, phaseLoggingOff, phaseClosing:
		c.ph = phaseClosed
		return Action{Kind: ActionFireChannelInactive}
	case phaseClosed:
		return wait()
	default:
		return c.closeConnectionAndCleanup(coreerr.New(coreerr.KindUncleanShutdown, "channel closed unexpectedly"))
	}
}

// TLSInitiated handles tls-initiated (renegotiation kickoff).
func (c *Core) TLSInitiated() Action {
	if c.ph == phaseClosing || c.ph == phaseClosed {
		return wait()
	}
	c.ph = phaseRenegotiatingTLS
	return wait()
}

// TLSEstablished handles tls-established(); outside renegotiating-tls, a
// no-op.
func (c *Core) TLSEstablished() Action {
	if c.ph != phaseRenegotiatingTLS {
		return wait()
	}
	c.ph = phaseConnectMessageSent
	return sendConnect()
}

// closeConnectionAndCleanup runs the cleanup pipeline with no explicit
// close-promise (the error-driven path).
func (c *Core) closeConnectionAndCleanup(err error) Action {
	return c.closeConnectionAndCleanupWithPromise(err, nil)
}

// closeConnectionAndCleanupWithPromise is the cleanup pipeline proper:
// per-substate handling first, then the fatal-vs-unclean-shutdown
// classification of the resulting action.
func (c *Core) closeConnectionAndCleanupWithPromise(err error, closePromise *tnscore.Promise[struct{}]) Action {
	switch c.ph {
	case phaseReadyToLogOff, phaseLoggingOff, phaseClosing, phaseClosed:
		return wait() // reentrancy safe

	case phasePing, phaseCommit, phaseRollback, phaseLobOperation:
		p := c.activeTaskPromise
		c.activeTaskPromise = nil
		if p != nil {
			p.Fail(err)
		}
		return c.finishCleanup(err, closePromise)

	case phaseAuthenticating:
		if c.auth != nil && !c.auth.IsComplete() {
			c.auth.ErrorHappened(err) // must answer with ReportAuthenticationError; no session promise of its own to fail here
		}
		return c.finishCleanup(err, closePromise)

	case phaseStatement:
		if c.stmt != nil && !c.stmt.IsComplete() {
			a := c.stmt.Fail(err)
			switch a.Kind {
			case statement.ActionEvaluateErrorAtConnectionLevel:
				if c.stmtCtx != nil && c.stmtCtx.Promise != nil {
					c.stmtCtx.Promise.Fail(err)
				}
			case statement.ActionForwardStreamError:
				cleanup := c.buildCleanup(err, closePromise)
				return Action{
					Kind:            ActionForwardStreamError,
					Err:             a.Err,
					ReadFlag:        a.Read == rowstream.RequestRead,
					CursorID:        a.CursorID,
					ClientCancelled: a.ClientCancelled,
					Cleanup:         cleanup,
				}
			// ActionFailStatement: the statement already failed its own
			// promise; nothing further to do here.
			default:
			}
		}
		return c.finishCleanup(err, closePromise)

	default:
		return c.finishCleanup(err, closePromise)
	}
}

func (c *Core) buildCleanup(err error, closePromise *tnscore.Promise[struct{}]) *CleanupContext {
	tasks := c.queue
	c.queue = nil
	for _, t := range tasks {
		t.fail(coreerr.ClientClosed)
	}
	read := c.markerSent
	return &CleanupContext{Tasks: tasks, Err: err, Read: read, ClosePromise: closePromise}
}

func (c *Core) finishCleanup(err error, closePromise *tnscore.Promise[struct{}]) Action {
	cleanup := c.buildCleanup(err, closePromise)
	if isUncleanShutdown(err) {
		c.ph = phaseClosed
		c.opts.Logger.Debug().Err(err).Msg("connection: unclean shutdown, firing channel inactive")
		return Action{Kind: ActionFireChannelInactive, Cleanup: cleanup}
	}
	c.ph = phaseClosing
	c.opts.Logger.Debug().Err(err).Msg("connection: running cleanup and closing")
	return Action{Kind: ActionCloseAndCleanup, Cleanup: cleanup}
}

func (c *Core) mapAuthAction(a auth.Action) Action {
	switch a.Kind {
	case auth.ActionWait:
		return wait()
	case auth.ActionSendFastAuth:
		return Action{Kind: ActionSendFastAuth, AuthCtx: a.Context}
	case auth.ActionSendAuthPhaseOne:
		return Action{Kind: ActionSendAuthPhaseOne, AuthCtx: a.Context}
	case auth.ActionSendAuthPhaseTwo:
		return Action{Kind: ActionSendAuthPhaseTwo, AuthCtx: a.Context, Params: a.Parameters}
	case auth.ActionAuthenticated:
		c.ph = phaseReadyForStatement
		return Action{Kind: ActionAuthenticated, Params: a.Parameters}
	case auth.ActionReportAuthenticationError:
		// authentication errors are always fatal to the session
		return c.closeConnectionAndCleanup(a.Err)
	default:
		return wait()
	}
}

func (c *Core) mapStatementAction(a statement.Action) Action {
	switch a.Kind {
	case statement.ActionWait:
		return wait()
	case statement.ActionRead:
		return read()
	case statement.ActionSendExecute:
		return Action{Kind: ActionSendExecute, CursorID: a.CursorID, Describe: a.Describe, RequiresDefine: a.RequiresDefine, NoPrefetch: a.NoPrefetch}
	case statement.ActionSendReexecute:
		return Action{Kind: ActionSendReexecute, CursorID: a.CursorID, Describe: a.Describe, RequiresDefine: a.RequiresDefine}
	case statement.ActionSendFetch:
		return Action{Kind: ActionSendFetch, CursorID: a.CursorID}
	case statement.ActionSendFlushOutBinds:
		return Action{Kind: ActionSendFlushOutBinds}
	case statement.ActionSucceedStatement:
		return Action{Kind: ActionSucceedStatement, Result: a.Result}
	case statement.ActionFailStatement:
		return Action{Kind: ActionFailStatement, Err: a.Err}
	case statement.ActionForwardRows:
		return Action{Kind: ActionForwardRows, Rows: a.Rows}
	case statement.ActionForwardStreamComplete:
		return Action{Kind: ActionForwardStreamComplete, Rows: a.Rows, CursorID: a.CursorID, AffectedRows: a.AffectedRows, LastRowID: a.LastRowID}
	case statement.ActionForwardStreamError:
		return Action{Kind: ActionForwardStreamError, Err: a.Err, ReadFlag: a.Read == rowstream.RequestRead, CursorID: a.CursorID, ClientCancelled: a.ClientCancelled}
	case statement.ActionForwardCancelComplete:
		// the statement is done; drain the queue the same way any other
		// completed request would.
		return c.ReadyForStatement()
	case statement.ActionEvaluateErrorAtConnectionLevel:
		if shouldCloseConnection(a.Err) {
			return c.closeConnectionAndCleanup(a.Err)
		}
		if c.stmtCtx != nil && c.stmtCtx.Promise != nil {
			c.stmtCtx.Promise.Fail(a.Err)
		}
		return Action{Kind: ActionFailStatement, Err: a.Err}
	default:
		return wait()
	}
}
