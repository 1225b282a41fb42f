package connection

import (
	"testing"

	"github.com/oradrv/tnscore"
	"github.com/oradrv/tnscore/coreerr"
	"github.com/oradrv/tnscore/statement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opts() Options { return Options{MinOOBCheckVersion: 20} }

func TestFastAuthHappyPath(t *testing.T) {
	c := New(nil, opts())

	require.Equal(t, ActionSendConnect, c.Connected().Kind)

	a := c.Accept(Capabilities{SupportsFastAuth: true, ProtocolVersion: 20, SupportsOOB: false})
	require.Equal(t, ActionProvideAuthenticationContext, a.Kind)
	assert.True(t, a.Allowed)

	a = c.ProvideAuthenticationContext("ctx", true)
	require.Equal(t, ActionSendFastAuth, a.Kind)
	assert.Equal(t, "ctx", a.AuthCtx)

	assert.Equal(t, ActionWait, c.ProtocolReceived().Kind)
	assert.Equal(t, ActionWait, c.DataTypesReceived().Kind)

	a = c.ParameterReceived("ctx", tnscore.Parameters{})
	require.Equal(t, ActionSendAuthPhaseTwo, a.Kind)

	a = c.ParameterReceived("ctx", tnscore.Parameters{})
	require.Equal(t, ActionAuthenticated, a.Kind)
}

func TestClassicAuthHappyPath(t *testing.T) {
	c := New(nil, opts())

	require.Equal(t, ActionSendConnect, c.Connected().Kind)

	a := c.Accept(Capabilities{SupportsFastAuth: false, ProtocolVersion: 1})
	require.Equal(t, ActionSendProtocol, a.Kind)

	require.Equal(t, ActionSendDataTypes, c.ProtocolReceived().Kind)

	a = c.DataTypesReceived()
	require.Equal(t, ActionProvideAuthenticationContext, a.Kind)
	assert.False(t, a.Allowed)

	a = c.ProvideAuthenticationContext("ctx", false)
	require.Equal(t, ActionSendAuthPhaseOne, a.Kind)

	a = c.ParameterReceived("ctx", tnscore.Parameters{})
	require.Equal(t, ActionSendAuthPhaseTwo, a.Kind)

	a = c.ParameterReceived("ctx", tnscore.Parameters{})
	require.Equal(t, ActionAuthenticated, a.Kind)
}

func readyCore() *Core {
	c := New(nil, opts())
	c.Connected()
	c.Accept(Capabilities{SupportsFastAuth: true, ProtocolVersion: 1})
	c.ProvideAuthenticationContext("ctx", true)
	c.ParameterReceived("ctx", tnscore.Parameters{})
	c.ParameterReceived("ctx", tnscore.Parameters{})
	return c
}

func newStmtTask(sql string) (Task, *tnscore.Promise[statement.Result]) {
	p := tnscore.NewPromise[statement.Result]()
	ctx := &statement.Context{SQL: sql, Promise: p}
	return NewStatementTask(ctx), p
}

func TestPingQueuedBehindActiveStatement(t *testing.T) {
	c := readyCore()
	require.Equal(t, phaseReadyForStatement, c.ph)

	stmtTask, _ := newStmtTask("SELECT 1 FROM dual")
	a := c.Enqueue(stmtTask)
	require.Equal(t, ActionSendExecute, a.Kind)
	assert.Equal(t, phaseStatement, c.ph)

	pingTask := NewPingTask()
	a = c.Enqueue(pingTask)
	assert.Equal(t, ActionWait, a.Kind)
	assert.Len(t, c.queue, 1)

	// statement completes with no rows
	a = c.BackendErrorReceived(tnscore.BackendError{Number: tnscore.ErrNoDataFound, RowCount: 0})
	require.Equal(t, ActionSucceedStatement, a.Kind)

	a = c.ReadyForStatement()
	require.Equal(t, ActionSendPing, a.Kind)
	assert.Equal(t, phasePing, c.ph)
	assert.Empty(t, c.queue)
}

func TestUncleanShutdownInReadyState(t *testing.T) {
	c := readyCore()
	require.Equal(t, phaseReadyForStatement, c.ph)

	a := c.Closed()
	require.Equal(t, ActionFireChannelInactive, a.Kind)
	require.NotNil(t, a.Cleanup)
	assert.True(t, coreerr.Is(a.Cleanup.Err, coreerr.KindUncleanShutdown))
	assert.False(t, a.Cleanup.Read)
	assert.Empty(t, a.Cleanup.Tasks)
	assert.True(t, c.IsClosed())
}

func TestMarkerReceivedIdempotent(t *testing.T) {
	c := readyCore()

	a := c.MarkerReceived()
	require.Equal(t, ActionSendMarker, a.Kind)
	assert.False(t, a.ReadFlag)
	assert.True(t, c.markerSent)

	a = c.MarkerReceived()
	assert.Equal(t, ActionWait, a.Kind)
	assert.False(t, c.markerSent)
}

func TestEnqueueFIFOOrdering(t *testing.T) {
	c := readyCore()

	stmtTask, _ := newStmtTask("SELECT 1 FROM dual")
	c.Enqueue(stmtTask)

	pingTask := NewPingTask()
	commitTask := NewCommitTask()
	c.Enqueue(pingTask)
	c.Enqueue(commitTask)

	require.Len(t, c.queue, 2)
	assert.Equal(t, pingTask.ID, c.queue[0].ID)
	assert.Equal(t, commitTask.ID, c.queue[1].ID)

	c.BackendErrorReceived(tnscore.BackendError{Number: tnscore.ErrNoDataFound})
	a := c.ReadyForStatement()
	require.Equal(t, ActionSendPing, a.Kind)
	require.Len(t, c.queue, 1)
	assert.Equal(t, commitTask.ID, c.queue[0].ID)
}

func TestEnqueueWhileQuiescingFailsImmediately(t *testing.T) {
	c := readyCore()
	c.quiescing = true

	p := tnscore.NewPromise[statement.Result]()
	ctx := &statement.Context{SQL: "SELECT 1 FROM dual", Promise: p}
	a := c.Enqueue(NewStatementTask(ctx))
	assert.Equal(t, ActionWait, a.Kind)

	_, err := p.Result()
	assert.True(t, coreerr.Is(err, coreerr.KindClientClosedConnection))
}

func TestQuiescingClosesOnReturnToReady(t *testing.T) {
	c := readyCore()

	stmtTask, _ := newStmtTask("SELECT 1 FROM dual")
	c.Enqueue(stmtTask)

	closeP := tnscore.NewPromise[struct{}]()
	a := c.Close(closeP)
	assert.Equal(t, ActionWait, a.Kind)
	assert.True(t, c.quiescing)

	c.BackendErrorReceived(tnscore.BackendError{Number: tnscore.ErrNoDataFound})
	a = c.ReadyForStatement()
	require.Equal(t, ActionCloseConnection, a.Kind)
	assert.Same(t, closeP, a.Promise)
	assert.Equal(t, phaseClosing, c.ph)
}

func TestCloseFromReadyRunsCleanupImmediately(t *testing.T) {
	c := readyCore()
	closeP := tnscore.NewPromise[struct{}]()

	a := c.Close(closeP)
	require.Equal(t, ActionCloseAndCleanup, a.Kind)
	require.NotNil(t, a.Cleanup)
	assert.Same(t, closeP, a.Cleanup.ClosePromise)
	assert.True(t, coreerr.Is(a.Cleanup.Err, coreerr.KindClientClosesConnection))
}

func TestCleanupDuringActiveStatementFailsQueuedTasks(t *testing.T) {
	c := readyCore()

	stmtTask, stmtPromise := newStmtTask("SELECT 1 FROM dual")
	c.Enqueue(stmtTask)

	pingTask := NewPingTask()
	c.Enqueue(pingTask)

	a := c.ErrorHappened(coreerr.New(coreerr.KindTransportFailed, "boom"))
	require.Equal(t, ActionCloseAndCleanup, a.Kind)
	require.NotNil(t, a.Cleanup)
	assert.Len(t, a.Cleanup.Tasks, 1)
	assert.Equal(t, pingTask.ID, a.Cleanup.Tasks[0].ID)

	_, err := pingTask.Promise.Result()
	assert.True(t, coreerr.Is(err, coreerr.KindClientClosedConnection))

	_, err = stmtPromise.Result()
	assert.True(t, coreerr.Is(err, coreerr.KindTransportFailed))
}

func TestStatementCancellationDrainsToReadyForStatement(t *testing.T) {
	c := readyCore()

	stmtTask, stmtPromise := newStmtTask("SELECT id FROM dual")
	a := c.Enqueue(stmtTask)
	require.Equal(t, ActionSendExecute, a.Kind)

	a = c.DescribeInfoReceived(tnscore.DescribeInfo{Columns: []tnscore.Column{{Name: "ID"}}})
	assert.Equal(t, ActionWait, a.Kind)

	a = c.RowHeaderReceived(tnscore.RowHeader{})
	require.Equal(t, ActionSucceedStatement, a.Kind)

	res, err := stmtPromise.Result()
	require.NoError(t, err)
	assert.Equal(t, statement.ResultDescribe, res.ResultKind)

	a = c.CancelStatementStream()
	require.Equal(t, ActionForwardStreamError, a.Kind)
	assert.True(t, a.ClientCancelled)

	a = c.StatementStreamCancelled()
	require.Equal(t, ActionSendMarker, a.Kind)
	assert.True(t, a.ReadFlag)

	a = c.BackendErrorReceived(tnscore.BackendError{Number: tnscore.ErrCancelAck})
	require.Equal(t, ActionFireEventReadyForStatement, a.Kind)
	assert.Equal(t, phaseReadyForStatement, c.ph)
}

func TestOOBCheckThenFastAuth(t *testing.T) {
	c := New(nil, opts())
	c.Connected()

	a := c.Accept(Capabilities{SupportsOOB: true, SupportsFastAuth: true, ProtocolVersion: 21})
	require.Equal(t, ActionSendOOBCheck, a.Kind)
	assert.Equal(t, phaseOOBCheckInProgress, c.ph)

	a = c.OOBCheckComplete()
	require.Equal(t, ActionProvideAuthenticationContext, a.Kind)
	assert.True(t, a.Allowed)
	assert.Equal(t, phaseWaitingToStartAuthentication, c.ph)
}

func TestOOBCheckThenClassicProtocol(t *testing.T) {
	c := New(nil, opts())
	c.Connected()

	a := c.Accept(Capabilities{SupportsOOB: true, SupportsFastAuth: false, ProtocolVersion: 21})
	require.Equal(t, ActionSendOOBCheck, a.Kind)

	// a marker arriving while the OOB probe is outstanding resolves the
	// probe the same way oob-check-complete does.
	a = c.MarkerReceived()
	require.Equal(t, ActionSendProtocol, a.Kind)
	assert.Equal(t, phaseProtocolMessageSent, c.ph)
}

func TestOOBSkippedBelowMinimumProtocolVersion(t *testing.T) {
	c := New(nil, opts())
	c.Connected()
	a := c.Accept(Capabilities{SupportsOOB: true, SupportsFastAuth: false, ProtocolVersion: 12})
	assert.Equal(t, ActionSendProtocol, a.Kind)
}

func TestLogoffLifecycle(t *testing.T) {
	c := readyCore()
	p := tnscore.NewPromise[struct{}]()

	a := c.Logoff(p)
	require.Equal(t, ActionLogoffConnection, a.Kind)
	assert.Same(t, p, a.Promise)

	assert.Equal(t, ActionWait, c.LogoffSent().Kind)

	a = c.StatusReceived(Status{})
	require.Equal(t, ActionCloseConnection, a.Kind)
	assert.Same(t, p, a.Promise)

	a = c.Closed()
	assert.Equal(t, ActionFireChannelInactive, a.Kind)
	assert.True(t, c.IsClosed())
}

// Cancelling a second statement after a completed cancel must send a fresh
// marker: the first marker's response was consumed by the ORA-01013 ack, so
// the in-flight state resets when the session returns to ready.
func TestCancelAfterCompletedCancelSendsFreshMarker(t *testing.T) {
	c := readyCore()

	runCancelledStatement := func() {
		stmtTask, _ := newStmtTask("SELECT id FROM big_table")
		require.Equal(t, ActionSendExecute, c.Enqueue(stmtTask).Kind)
		c.DescribeInfoReceived(tnscore.DescribeInfo{Columns: []tnscore.Column{{Name: "ID"}}})
		c.RowHeaderReceived(tnscore.RowHeader{})

		a := c.CancelStatementStream()
		require.Equal(t, ActionForwardStreamError, a.Kind)

		a = c.StatementStreamCancelled()
		require.Equal(t, ActionSendMarker, a.Kind)
		assert.True(t, a.ReadFlag)

		a = c.BackendErrorReceived(tnscore.BackendError{Number: tnscore.ErrCancelAck})
		require.Equal(t, ActionFireEventReadyForStatement, a.Kind)
		assert.False(t, c.markerSent)
	}

	runCancelledStatement()
	runCancelledStatement()
}

func TestStatementStreamCancelledAbsorbedWhenMarkerInFlight(t *testing.T) {
	c := readyCore()
	stmtTask, _ := newStmtTask("SELECT id FROM dual")
	c.Enqueue(stmtTask)

	a := c.MarkerReceived()
	require.Equal(t, ActionSendMarker, a.Kind)

	a = c.StatementStreamCancelled()
	assert.Equal(t, ActionWait, a.Kind)
}

// A server error in the "connection-closed family" (ORA-00028/ORA-00600)
// arriving while a statement is active must escalate to connection
// cleanup, not just fail the one statement.
func TestFatalServerErrorDuringStatementEscalatesToCleanup(t *testing.T) {
	c := readyCore()

	stmtTask, stmtPromise := newStmtTask("SELECT id FROM dual")
	a := c.Enqueue(stmtTask)
	require.Equal(t, ActionSendExecute, a.Kind)
	require.Equal(t, phaseStatement, c.ph)

	a = c.BackendErrorReceived(tnscore.BackendError{Number: 28, Message: "session has been killed"})
	require.Equal(t, ActionCloseAndCleanup, a.Kind)
	require.NotNil(t, a.Cleanup)
	assert.True(t, coreerr.Is(a.Cleanup.Err, coreerr.KindServer))
	assert.Equal(t, phaseClosing, c.ph)

	_, err := stmtPromise.Result()
	assert.True(t, coreerr.Is(err, coreerr.KindServer))
}
