// Package rowstream implements RowStreamCore, the demand/supply
// coordinator between the network (which produces row batches and a
// batch-complete marker) and the row-iterating consumer. It does no I/O of
// its own; every entry point mutates state and returns a Signal describing
// whether the caller still owes the network a read.
package rowstream

import "github.com/oradrv/tnscore"

// state is the internal RowStreamCore state. "WaitingForX" means X is the
// one signal still missing before the machine can resume handing rows to
// the network/consumer pair.
type state int

const (
	waitingForRows state = iota
	waitingForReadOrDemand
	waitingForRead
	waitingForDemand
	failed
)

// Signal is returned by every entry point that may need to kick off (or
// suppress) a network read.
type Signal int

const (
	// Wait means no I/O action is needed right now.
	Wait Signal = iota
	// RequestRead means the caller must issue (or keep issuing) a network
	// read to keep rows flowing.
	RequestRead
)

// Core is RowStreamCore. The zero value is not ready to use; call New.
type Core struct {
	st   state
	buf  []tnscore.DataRow
	tail tnscore.DataRow // preserved last row of the previous batch, for duplicate resolution
}

// New creates a RowStreamCore. It starts in waitingForRows: the statement
// machine only ever constructs one right after emitting the action that
// causes the network to start producing rows (the first row-header), so a
// read is already presumed outstanding.
func New() *Core {
	return &Core{st: waitingForRows, buf: make([]tnscore.DataRow, 0, 16)}
}

// IsFailed reports whether Fail has already been called.
func (c *Core) IsFailed() bool {
	return c.st == failed
}

// ReceiveRow appends row to the buffer. Valid in any non-failed state; rows
// may arrive unsolicited if the server closes the connection early, and
// are simply buffered until the next BatchComplete/End.
func (c *Core) ReceiveRow(row tnscore.DataRow) {
	if c.st == failed {
		panic("rowstream: ReceiveRow after Fail")
	}
	c.buf = append(c.buf, row)
}

// ReceiveDuplicate resolves column colIndex from the last row seen: the
// current buffer's last row if non-empty, otherwise the preserved tail of
// the previous batch. The source column is stored wire-framed (it was
// appended via ReceiveRow exactly as it arrived); this unframes it and
// returns the raw value, nil if the source column was null. The caller is
// responsible for re-framing the value with its own length prefix.
func (c *Core) ReceiveDuplicate(colIndex int) []byte {
	var src tnscore.DataRow
	if len(c.buf) > 0 {
		src = c.buf[len(c.buf)-1]
	} else {
		src = c.tail
	}
	if colIndex < 0 || colIndex >= len(src) {
		return nil
	}
	return tnscore.UnframeColumn(src[colIndex])
}

// BatchComplete signals that the network has finished delivering one
// batch. If the buffer is empty, transitions to waitingForRead and returns
// (nil, false). Otherwise it preserves the last row as the previous-batch
// tail, hands the buffer to the caller, transitions to
// waitingForReadOrDemand, and returns (rows, true). The internal buffer is
// replaced with a fresh slice of the same capacity so handovers never
// reallocate on the hot path.
func (c *Core) BatchComplete() (rows []tnscore.DataRow, ok bool) {
	if c.st == failed {
		panic("rowstream: BatchComplete after Fail")
	}
	if len(c.buf) == 0 {
		c.st = waitingForRead
		return nil, false
	}
	c.tail = c.buf[len(c.buf)-1].Clone()
	out := c.buf
	c.buf = make([]tnscore.DataRow, 0, cap(out))
	c.st = waitingForReadOrDemand
	return out, true
}

// DemandMore records that the consumer wants more rows.
func (c *Core) DemandMore() Signal {
	switch c.st {
	case waitingForDemand:
		c.st = waitingForRows
		return RequestRead
	case waitingForReadOrDemand:
		c.st = waitingForRead
		return Wait
	default:
		// demand already signalled, or not applicable yet
		return Wait
	}
}

// ReadSignal records that the network has a read ready to deliver (or has
// delivered one).
func (c *Core) ReadSignal() Signal {
	switch c.st {
	case waitingForRead:
		c.st = waitingForRows
		return RequestRead
	case waitingForReadOrDemand:
		c.st = waitingForDemand
		return Wait
	case waitingForRows:
		// pass the read straight through; still mid-batch
		return RequestRead
	default: // waitingForDemand
		return Wait
	}
}

// Fail transitions to the terminal failed state and reports whether a
// network read is still outstanding and must be drained by the caller
// before tearing the connection down. waitingForDemand is the one state
// where a prior read has already landed and nothing is in flight; every
// other state may still have bytes on the wire.
func (c *Core) Fail() Signal {
	prev := c.st
	c.st = failed
	if prev == waitingForDemand {
		return Wait
	}
	return RequestRead
}

// End returns whatever rows remain buffered, e.g. when the server closes
// the connection mid-stream before a final batch-complete arrives.
func (c *Core) End() []tnscore.DataRow {
	out := c.buf
	c.buf = nil
	return out
}
