package rowstream

import (
	"testing"

	"github.com/oradrv/tnscore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// row builds a DataRow of wire-framed columns, the way ReceiveRow expects
// to receive one: each value passes through tnscore.FrameColumn, so an
// empty string frames as a null column.
func row(cols ...string) tnscore.DataRow {
	out := make(tnscore.DataRow, len(cols))
	for i, c := range cols {
		if c == "" {
			out[i] = tnscore.FrameColumn(nil)
			continue
		}
		out[i] = tnscore.FrameColumn([]byte(c))
	}
	return out
}

func TestBatchCompleteEmptyBufferWaitsForRead(t *testing.T) {
	c := New()
	rows, ok := c.BatchComplete()
	assert.False(t, ok)
	assert.Nil(t, rows)
	assert.Equal(t, waitingForRead, c.st)
}

func TestBatchCompleteHandsOffBufferAndPreservesTail(t *testing.T) {
	c := New()
	c.ReceiveRow(row("1", "a"))
	c.ReceiveRow(row("2", "b"))

	rows, ok := c.BatchComplete()
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, waitingForReadOrDemand, c.st)

	// the preserved tail resolves a duplicate reference in the next batch,
	// even though the handed-off buffer is gone.
	assert.Equal(t, []byte("b"), c.ReceiveDuplicate(1))
}

func TestReceiveDuplicateFallsBackToPreviousBatchTailWhenBufferEmpty(t *testing.T) {
	c := New()
	c.ReceiveRow(row("1", "x"))
	_, ok := c.BatchComplete()
	require.True(t, ok)

	// new batch: first row references the tail for column 1
	assert.Equal(t, []byte("x"), c.ReceiveDuplicate(1))
	c.ReceiveRow(row("2", "x")) // materialized with the duplicate substituted
	assert.Equal(t, []byte("x"), c.ReceiveDuplicate(1))
}

func TestReceiveDuplicateReturnsNilForNullSource(t *testing.T) {
	c := New()
	c.ReceiveRow(row("1", ""))
	assert.Nil(t, c.ReceiveDuplicate(1))
}

func TestDemandMoreTransitions(t *testing.T) {
	tests := []struct {
		name     string
		start    state
		wantNext state
		wantSig  Signal
	}{
		{"fromWaitingForDemand", waitingForDemand, waitingForRows, RequestRead},
		{"fromWaitingForReadOrDemand", waitingForReadOrDemand, waitingForRead, Wait},
		{"fromWaitingForRows", waitingForRows, waitingForRows, Wait},
		{"fromWaitingForRead", waitingForRead, waitingForRead, Wait},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Core{st: tt.start, buf: make([]tnscore.DataRow, 0, 4)}
			sig := c.DemandMore()
			assert.Equal(t, tt.wantSig, sig)
			assert.Equal(t, tt.wantNext, c.st)
		})
	}
}

func TestReadSignalTransitions(t *testing.T) {
	tests := []struct {
		name     string
		start    state
		wantNext state
		wantSig  Signal
	}{
		{"fromWaitingForRead", waitingForRead, waitingForRows, RequestRead},
		{"fromWaitingForReadOrDemand", waitingForReadOrDemand, waitingForDemand, Wait},
		{"fromWaitingForRows_passThrough", waitingForRows, waitingForRows, RequestRead},
		{"fromWaitingForDemand", waitingForDemand, waitingForDemand, Wait},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Core{st: tt.start, buf: make([]tnscore.DataRow, 0, 4)}
			sig := c.ReadSignal()
			assert.Equal(t, tt.wantSig, sig)
			assert.Equal(t, tt.wantNext, c.st)
		})
	}
}

func TestFailReportsReadNeededPerState(t *testing.T) {
	tests := []struct {
		start   state
		wantSig Signal
	}{
		{waitingForRows, RequestRead},
		{waitingForRead, RequestRead},
		{waitingForReadOrDemand, RequestRead},
		{waitingForDemand, Wait},
	}
	for _, tt := range tests {
		c := &Core{st: tt.start}
		sig := c.Fail()
		assert.Equal(t, tt.wantSig, sig)
		assert.True(t, c.IsFailed())
	}
}

func TestReceiveRowAfterFailPanics(t *testing.T) {
	c := New()
	c.Fail()
	assert.Panics(t, func() { c.ReceiveRow(row("1")) })
}

func TestEndReturnsBufferedRowsOnEarlyServerClose(t *testing.T) {
	c := New()
	c.ReceiveRow(row("1"))
	c.ReceiveRow(row("2"))
	rows := c.End()
	assert.Len(t, rows, 2)
}
