// Package statement implements StatementCore: the execute/describe/fetch
// /cancel lifecycle for one statement, including the server-error decision
// table and the LOB/JSON/vector re-describe rewrite. It embeds one
// rowstream.Core once row streaming begins.
package statement

import (
	"github.com/oradrv/tnscore"
	"github.com/oradrv/tnscore/coreerr"
	"github.com/oradrv/tnscore/rowstream"
)

type phase int

const (
	phaseInitialized phase = iota
	phaseRowCountsReceived
	phaseDescribeInfoReceived
	phaseStreaming
	phaseDrain
	phaseCommandComplete
	phaseError
)

// integrityClassNumbers are the server error numbers StatementCore treats
// as "integrity" class: unique/foreign-key constraint violations, where
// the caller should not attempt to re-close a cursor the server never
// fully opened.
var integrityClassNumbers = map[int]bool{
	1:    true, // ORA-00001 unique constraint violated
	2290: true, // ORA-02290 check constraint violated
	2291: true, // ORA-02291 integrity constraint violated - parent key not found
	2292: true, // ORA-02292 integrity constraint violated - child record found
	2293: true, // ORA-02293 check constraint violated
}

func isIntegrityClass(number int) bool {
	return integrityClassNumbers[number]
}

// Core is StatementCore.
type Core struct {
	ctx *Context
	ph  phase

	describe  *tnscore.DescribeInfo
	rowHeader *tnscore.RowHeader
	stream    *rowstream.Core

	rowCounts []int64
	cancelled bool
	succeeded bool

	drainColumns int
	err          error

	pendingCursorClose tnscore.CursorID
}

// New constructs a Core for ctx and returns the Start action.
func New(ctx *Context) (*Core, Action) {
	c := &Core{ctx: ctx, ph: phaseInitialized}
	if ctx.CursorID != 0 && ctx.PresetDescribe != nil {
		c.ph = phaseDescribeInfoReceived
		c.describe = ctx.PresetDescribe
	}
	ctx.Logger.Debug().Str("sql", ctx.SQL).Uint32("cursorID", uint32(ctx.CursorID)).Msg("statement: starting execute")
	return c, sendExecute(ctx, nil)
}

// IsComplete reports whether the statement has reached a terminal state.
func (c *Core) IsComplete() bool {
	return c.ph == phaseCommandComplete || c.ph == phaseError
}

// DescribeInfo handles the describe-info-received event.
func (c *Core) DescribeInfo(d tnscore.DescribeInfo) Action {
	if c.ph != phaseInitialized {
		return wait()
	}
	c.describe = &d
	c.ph = phaseDescribeInfoReceived
	return wait()
}

// RowHeader handles the row-header-received event.
func (c *Core) RowHeader(rh tnscore.RowHeader) Action {
	switch c.ph {
	case phaseDescribeInfoReceived:
		c.stream = rowstream.New()
		header := rh
		c.rowHeader = &header
		c.ph = phaseStreaming
		c.ctx.Logger.Debug().Int("columns", len(c.describe.Columns)).Msg("statement: streaming rows")
		return c.succeed(Result{ResultKind: ResultDescribe, Describe: *c.describe})
	case phaseStreaming:
		if c.rowHeader == nil || c.rowHeader.BitVector == nil {
			header := rh
			c.rowHeader = &header
		}
		// else: a persistent bit-vector spans rows until the server
		// resends one; keep the one already attached.
		return wait()
	default:
		return wait()
	}
}

// BitVector handles the bit-vector-received event.
func (c *Core) BitVector(bv []byte) Action {
	if c.ph != phaseStreaming || c.rowHeader == nil {
		return wait()
	}
	c.rowHeader.BitVector = bv
	return wait()
}

// RowData handles the row-data-received event.
func (c *Core) RowData(row tnscore.DataRow) Action {
	switch c.ph {
	case phaseInitialized:
		if hasOutBinds(c.ctx.Binds) {
			writeOutBindRow(c.ctx, row)
		}
		return wait()
	case phaseStreaming:
		c.stream.ReceiveRow(c.materializeRow(row))
		if c.rowHeader != nil {
			c.rowHeader.BitVector = nil
		}
		return wait()
	default:
		return wait()
	}
}

// materializeRow substitutes any duplicate-flagged column with the
// re-framed value resolved from the previous row, leaving present columns
// untouched (they already carry their original wire framing).
func (c *Core) materializeRow(row tnscore.DataRow) tnscore.DataRow {
	out := make(tnscore.DataRow, len(row))
	for i, col := range row {
		if c.rowHeader.IsDuplicate(i) {
			out[i] = tnscore.FrameColumn(c.stream.ReceiveDuplicate(i))
			continue
		}
		out[i] = col
	}
	return out
}

// QueryParameter is the query-parameter-received event payload: it only
// matters to StatementCore when it carries per-statement row counts from a
// batch execution.
type QueryParameter struct {
	RowCounts []int64
}

func (c *Core) QueryParameter(qp QueryParameter) Action {
	if len(qp.RowCounts) > 0 {
		c.rowCounts = qp.RowCounts
		c.ph = phaseRowCountsReceived
	}
	return wait()
}

// InOutVector handles the io-vector-received event; n is the number of
// entries the server sent.
func (c *Core) InOutVector(n int) Action {
	if n != len(c.ctx.Binds) {
		c.ph = phaseError
		c.err = coreerr.Unexpected("in-out-vector")
		return failStatement(c.ctx, c.err)
	}
	return wait()
}

// FlushOutBinds handles the flush-out-binds-received event.
func (c *Core) FlushOutBinds() Action {
	return sendFlushOutBinds()
}

// ChannelReadComplete handles the channel-read-complete event.
func (c *Core) ChannelReadComplete() Action {
	if c.ph != phaseStreaming {
		return wait()
	}
	rows, ok := c.stream.BatchComplete()
	if !ok {
		return wait()
	}
	return forwardRows(rows)
}

// ReadEvent handles the read-event-caught event.
func (c *Core) ReadEvent() Action {
	if c.ph == phaseStreaming {
		if c.stream.ReadSignal() == rowstream.RequestRead {
			return Action{Kind: ActionRead}
		}
		return wait()
	}
	return Action{Kind: ActionRead}
}

// ServerError handles backend-error-received: the central decision table
// that turns a server error number into stream completion, a stream error,
// a re-describe, or statement failure.
func (c *Core) ServerError(be tnscore.BackendError) Action {
	switch {
	case tnscore.IsEndOfFetch(be.Number):
		return c.endOfFetch(be)

	case c.cancelled && be.Number == tnscore.ErrCancelAck:
		c.ph = phaseCommandComplete
		return forwardCancelComplete()

	case be.Number == tnscore.ErrVarNotInSelectList && be.CursorID != 0:
		err := coreerr.Wrap(coreerr.KindServer, &be)
		if c.ph == phaseInitialized {
			c.ph = phaseError
			c.err = err
			return failStatement(c.ctx, err)
		}
		c.notePendingCursorClose(be.CursorID)
		return forwardStreamError(err, rowstream.Wait, be.CursorID, false)

	case be.Number != 0 && be.CursorID != 0:
		err := coreerr.Wrap(coreerr.KindServer, &be)
		cursorID := be.CursorID
		if isIntegrityClass(be.Number) {
			cursorID = 0
		}
		c.notePendingCursorClose(cursorID)
		return forwardStreamError(err, rowstream.Wait, cursorID, false)

	case be.Number == 0:
		// warning-class message: the statement is still alive. A non-zero
		// cursor-id is the server assigning (or confirming) the statement's
		// cursor; adopt it so subsequent fetches address the right one.
		if be.CursorID != 0 {
			c.ctx.CursorID = be.CursorID
		}
		switch c.ph {
		case phaseDescribeInfoReceived:
			return c.reDescribeOrFetch()
		case phaseStreaming:
			// batch boundary with more rows pending; re-issue the fetch
			return sendFetch(c.ctx)
		default:
			return wait()
		}

	case be.Number != 0 && be.CursorID == 0 && c.ph != phaseDrain && c.ph != phaseCommandComplete:
		err := coreerr.Wrap(coreerr.KindServer, &be)
		c.ph = phaseError
		c.err = err
		return failStatement(c.ctx, err)

	default:
		return wait()
	}
}

func (c *Core) endOfFetch(be tnscore.BackendError) Action {
	c.ctx.Logger.Debug().Int64("affectedRows", be.RowCount).Msg("statement: end of fetch")
	switch c.ph {
	case phaseInitialized, phaseDescribeInfoReceived, phaseRowCountsReceived:
		c.ph = phaseCommandComplete
		return c.succeed(Result{
			ResultKind:   ResultNoRows,
			AffectedRows: be.RowCount,
			RowCounts:    c.rowCounts,
			BatchErrors:  be.BatchErrors,
		})
	case phaseStreaming:
		rows := c.stream.End()
		c.ph = phaseCommandComplete
		c.notePendingCursorClose(be.CursorID)
		return forwardStreamComplete(rows, be.CursorID, be.RowCount, be.RowID)
	default:
		return wait()
	}
}

// notePendingCursorClose records a non-zero cursor-id that a
// ForwardStreamComplete/ForwardStreamError just handed to the caller, per
// the glossary's "cursor-id ... must be closed by a future roundtrip when
// abandoned". PendingCursorClose lets the caller drain this bookkeeping
// without having to thread the cursor-id through its own plumbing.
func (c *Core) notePendingCursorClose(cursorID tnscore.CursorID) {
	if cursorID != 0 {
		c.pendingCursorClose = cursorID
	}
}

// PendingCursorClose returns the most recently abandoned cursor-id, if any,
// and clears it. A false second return means there is nothing to close.
func (c *Core) PendingCursorClose() (tnscore.CursorID, bool) {
	if c.pendingCursorClose == 0 {
		return 0, false
	}
	id := c.pendingCursorClose
	c.pendingCursorClose = 0
	return id, true
}

func (c *Core) reDescribeOrFetch() Action {
	if c.describe.NeedsLOBRewrite() && !c.ctx.Options.FetchLOBs {
		rewritten := c.describe.Rewritten()
		c.describe = &rewritten
		c.ctx.RequiresDefine = true
		c.ctx.NoPrefetch = true
		return sendExecute(c.ctx, c.describe)
	}
	return sendFetch(c.ctx)
}

// succeed emits ActionSucceedStatement at most once per statement.
func (c *Core) succeed(result Result) Action {
	if c.succeeded {
		return wait()
	}
	c.succeeded = true
	return succeedStatement(c.ctx, result)
}

// Cancel handles cancel-statement-stream. Idempotent after the first call.
func (c *Core) Cancel() Action {
	if c.cancelled {
		return wait()
	}
	c.cancelled = true
	c.ctx.Logger.Debug().Msg("statement: cancel requested")
	switch c.ph {
	case phaseRowCountsReceived, phaseDescribeInfoReceived:
		c.ph = phaseError
		c.err = coreerr.StatementCancelled
		return failStatement(c.ctx, coreerr.StatementCancelled)
	case phaseStreaming:
		if c.describe != nil {
			c.drainColumns = len(c.describe.Columns)
		}
		c.ph = phaseDrain
		sig := c.stream.Fail()
		return forwardStreamError(coreerr.StatementCancelled, sig, 0, true)
	default:
		return wait()
	}
}

// RequestRows handles request-statement-rows (consumer demand signal),
// forwarding to the row stream while streaming; a no-op otherwise.
func (c *Core) RequestRows() Action {
	if c.ph != phaseStreaming {
		return wait()
	}
	if c.stream.DemandMore() == rowstream.RequestRead {
		return Action{Kind: ActionRead}
	}
	return wait()
}

// Fail handles the connection's "ask the statement to fail" step of its
// cleanup pipeline: a connection-scoped error arrived and the statement must
// decide how it is affected. A no-op once already complete.
func (c *Core) Fail(err error) Action {
	if c.IsComplete() {
		return wait()
	}
	switch c.ph {
	case phaseStreaming:
		if c.describe != nil {
			c.drainColumns = len(c.describe.Columns)
		}
		c.ph = phaseDrain
		sig := c.stream.Fail()
		return forwardStreamError(err, sig, 0, false)
	case phaseRowCountsReceived, phaseDescribeInfoReceived:
		c.ph = phaseError
		c.err = err
		return failStatement(c.ctx, err)
	default: // phaseInitialized: nothing has been surfaced to the consumer yet
		c.ph = phaseError
		c.err = err
		return evaluateErrorAtConnectionLevel(err)
	}
}

func hasOutBinds(binds []Bind) bool {
	for _, b := range binds {
		if b.Out {
			return true
		}
	}
	return false
}

// writeOutBindRow appends one row's worth of out-bind values, one per
// Out bind, in declaration order; a "returning into" bind simply
// accumulates one more entry in its container each time this is called.
func writeOutBindRow(ctx *Context, row tnscore.DataRow) {
	col := 0
	for i := range ctx.Binds {
		b := &ctx.Binds[i]
		if !b.Out {
			continue
		}
		if col >= len(row) {
			break
		}
		b.container = append(b.container, row[col])
		col++
	}
}
