package statement

import (
	"github.com/oradrv/tnscore"
	"github.com/rs/zerolog"
)

// Kind classifies what a statement's SQL text is. StatementCore does not
// branch on it: a statement succeeds with describe-info when a row-header
// arrives first, and with no rows when end of fetch arrives first.
type Kind int

const (
	KindDDL Kind = iota
	KindDML
	KindPLSQL
	KindQuery
	KindCursor
	KindPlain
)

// Options are the per-statement execution knobs.
type Options struct {
	FetchLOBs         bool
	ArraySize         int
	BatchErrors       bool
	ArrayDMLRowCounts bool
}

// Bind is one bind value slot; the core treats bind payloads as opaque,
// pre-encoded bytes (bind-value encoding is out of scope).
type Bind struct {
	Name  string
	Value []byte
	// Out marks an out-bind (or in-out); ReturningInto marks a
	// "returning into" out-bind, which may receive multiple rows.
	Out           bool
	ReturningInto bool
	container     [][]byte // rows written back for an out-bind, in arrival order
}

// OutValues returns the rows the server wrote back into this out-bind, in
// arrival order, still wire-framed. Empty until the execute roundtrip that
// carries the out-bind payload has been processed.
func (b *Bind) OutValues() [][]byte {
	return b.container
}

// Context is StatementContext: everything that travels with one statement
// across its whole lifecycle, including the mutable cells the server-error
// decision table and the re-describe path update in place.
type Context struct {
	SQL   string
	Binds []Bind
	Kind  Kind

	// CursorID is the mutable cursor-ID cell. A non-zero value on
	// construction together with a non-nil PresetDescribe means this is a
	// reusable ref-cursor; New skips straight to DescribeInfoReceived in
	// that case.
	CursorID tnscore.CursorID

	// PresetDescribe is the describe-info that accompanies a reusable
	// cursor; nil for a fresh statement.
	PresetDescribe *tnscore.DescribeInfo

	RequiresDefine bool // sticky once set by a re-describe
	NoPrefetch     bool // sticky once set by a re-describe

	Options Options

	Promise *tnscore.Promise[Result]
	Logger  zerolog.Logger

	CorrelationID tnscore.TaskID
}

// ResultKind distinguishes the two shapes a statement promise can succeed
// with.
type ResultKind int

const (
	ResultDescribe ResultKind = iota
	ResultNoRows
)

// Result is the value a statement's promise succeeds with.
type Result struct {
	ResultKind ResultKind

	Describe tnscore.DescribeInfo // valid when ResultKind == ResultDescribe

	AffectedRows int64                // valid when ResultKind == ResultNoRows
	RowCounts    []int64              // per-statement row counts, batch execution
	BatchErrors  []tnscore.BatchError
}
