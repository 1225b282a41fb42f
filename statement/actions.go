package statement

import (
	"github.com/oradrv/tnscore"
	"github.com/oradrv/tnscore/rowstream"
)

// ActionKind tags the single action StatementCore emits from each entry
// point.
type ActionKind int

const (
	ActionWait ActionKind = iota
	ActionRead
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
	ActionEvaluateErrorAtConnectionLevel
)

// Action is the tagged result of one StatementCore entry-point call. Only
// the fields relevant to Kind are meaningful; each constructor below sets
// exactly the fields its kind uses.
type Action struct {
	Kind ActionKind

	CursorID       tnscore.CursorID
	Describe       *tnscore.DescribeInfo
	RequiresDefine bool
	NoPrefetch     bool

	Result Result
	Err    error

	Rows            []tnscore.DataRow
	AffectedRows    int64
	LastRowID       string
	ClientCancelled bool

	// Read reports whether the caller still owes the network a read
	// before it can tear anything down; populated on
	// ActionForwardStreamError.
	Read rowstream.Signal
}

func wait() Action { return Action{Kind: ActionWait} }

func sendExecute(ctx *Context, describe *tnscore.DescribeInfo) Action {
	return Action{
		Kind:           ActionSendExecute,
		Describe:       describe,
		CursorID:       ctx.CursorID,
		RequiresDefine: ctx.RequiresDefine,
		NoPrefetch:     ctx.NoPrefetch,
	}
}

func sendReexecute(ctx *Context, describe *tnscore.DescribeInfo) Action {
	return Action{
		Kind:           ActionSendReexecute,
		Describe:       describe,
		CursorID:       ctx.CursorID,
		RequiresDefine: ctx.RequiresDefine,
	}
}

func sendFetch(ctx *Context) Action {
	return Action{Kind: ActionSendFetch, CursorID: ctx.CursorID}
}

func sendFlushOutBinds() Action {
	return Action{Kind: ActionSendFlushOutBinds}
}

func succeedStatement(ctx *Context, result Result) Action {
	ctx.Promise.Succeed(result)
	return Action{Kind: ActionSucceedStatement, Result: result}
}

func failStatement(ctx *Context, err error) Action {
	ctx.Promise.Fail(err)
	return Action{Kind: ActionFailStatement, Err: err}
}

func forwardRows(rows []tnscore.DataRow) Action {
	return Action{Kind: ActionForwardRows, Rows: rows}
}

func forwardStreamComplete(rows []tnscore.DataRow, cursorID tnscore.CursorID, affectedRows int64, lastRowID string) Action {
	return Action{
		Kind:         ActionForwardStreamComplete,
		Rows:         rows,
		CursorID:     cursorID,
		AffectedRows: affectedRows,
		LastRowID:    lastRowID,
	}
}

func forwardStreamError(err error, read rowstream.Signal, cursorID tnscore.CursorID, clientCancelled bool) Action {
	return Action{
		Kind:            ActionForwardStreamError,
		Err:             err,
		Read:            read,
		CursorID:        cursorID,
		ClientCancelled: clientCancelled,
	}
}

func forwardCancelComplete() Action {
	return Action{Kind: ActionForwardCancelComplete}
}

// evaluateErrorAtConnectionLevel defers a connection-scoped error to the
// connection's own shouldCloseConnection classification: nothing has been
// surfaced to the statement's consumer yet, so there is no local promise or
// stream to fail from inside the statement itself.
func evaluateErrorAtConnectionLevel(err error) Action {
	return Action{Kind: ActionEvaluateErrorAtConnectionLevel, Err: err}
}
