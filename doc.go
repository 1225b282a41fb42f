// Package tnscore holds the data model shared by the TNS session core: the
// column/row/error types that travel between ConnectionCore, StatementCore,
// AuthCore and RowStreamCore, plus the one-shot Promise type used to
// complete caller-owned requests. The core performs no I/O; it consumes
// already-decoded backend messages and emits actions for an outer transport
// layer to carry out.
package tnscore
