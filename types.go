package tnscore

// CursorID identifies a parsed statement on the server. Zero means "no
// cursor yet" (or "let the server assign one").
type CursorID uint32

// ColumnType mirrors the subset of Oracle data types the core needs to
// recognize by name: those relevant to end-of-fetch detection, the
// LOB/JSON/vector re-describe rewrite, and nothing else. Value decoding is
// out of scope; these constants only steer control flow.
type ColumnType uint16

const (
	TypeUnspecified ColumnType = iota
	TypeBLOB
	TypeCLOB
	TypeNCLOB
	TypeLongRaw
	TypeLong
	TypeLongNVarchar
	TypeJSON
	TypeVector
	TypeOther
)

// IsLOBLike reports whether the column requires the fetch-LOBs re-describe
// treatment described in StatementCore's server-error handling table.
func (t ColumnType) IsLOBLike() bool {
	switch t {
	case TypeBLOB, TypeCLOB, TypeNCLOB, TypeJSON, TypeVector:
		return true
	default:
		return false
	}
}

// VectorMetadata carries the extra describe-info annotations vector
// columns need; the core never interprets the payload itself.
type VectorMetadata struct {
	Format     byte
	Dimensions uint32
}

// Column is one entry of a DescribeInfo.
type Column struct {
	Name        string
	DataType    ColumnType
	Scale       int16
	Precision   int16
	BufferSize  uint32
	Nullable    bool
	VectorMeta  *VectorMetadata
	TypeScheme  string
	TypeName    string
	Annotations map[string]string
}

// The *DefaultSize/longNVarcharSize constants and bufferSizeFactor describe how a substituted LOB-less type's
// buffer size is recomputed during the re-describe rewrite. These are the
// LONG-family defaults; a real client wires the server's actual chunk
// negotiation in, but the rewrite itself only needs a deterministic
// default-size-times-factor rule.
const (
	longRawDefaultSize = 2000
	longDefaultSize    = 4000
	longNVarcharSize   = 4000
	bufferSizeFactor   = 1
)

// rewriteForLOB substitutes a LOB/JSON/vector column's type with its
// LONG-family equivalent and recomputes BufferSize, in place semantics but
// returning a new Column value (DescribeInfo.Rewritten copies the slice).
func rewriteForLOB(c Column) Column {
	switch c.DataType {
	case TypeBLOB:
		c.DataType = TypeLongRaw
		c.BufferSize = longRawDefaultSize * bufferSizeFactor
	case TypeCLOB:
		c.DataType = TypeLong
		c.BufferSize = longDefaultSize * bufferSizeFactor
	case TypeNCLOB:
		c.DataType = TypeLongNVarchar
		c.BufferSize = longNVarcharSize * bufferSizeFactor
	case TypeJSON, TypeVector:
		// JSON/vector columns fall back to LONG RAW representation when
		// the client declines LOB objects; same sizing as BLOB.
		c.DataType = TypeLongRaw
		c.BufferSize = longRawDefaultSize * bufferSizeFactor
	}
	return c
}

// DescribeInfo is the ordered column metadata for a result set. It is
// immutable after the initial receive except for the LOB-rewrite path.
type DescribeInfo struct {
	Columns []Column
}

// NeedsLOBRewrite reports whether any column is LOB/JSON/vector-typed.
func (d DescribeInfo) NeedsLOBRewrite() bool {
	for _, c := range d.Columns {
		if c.DataType.IsLOBLike() {
			return true
		}
	}
	return false
}

// Rewritten returns a copy of d with every LOB/JSON/vector column
// substituted for its LONG-family equivalent. The original is left
// untouched; the caller replaces its stored DescribeInfo with the result.
func (d DescribeInfo) Rewritten() DescribeInfo {
	cols := make([]Column, len(d.Columns))
	for i, c := range d.Columns {
		if c.DataType.IsLOBLike() {
			c = rewriteForLOB(c)
		}
		cols[i] = c
	}
	return DescribeInfo{Columns: cols}
}

// RowHeader is per-row-batch metadata: an optional bit-vector marking which
// columns duplicate the previous row's value at that index. A 0 bit means
// "duplicate, resolve from the previous row"; a 1 bit (or an absent vector)
// means "present on the wire".
type RowHeader struct {
	BitVector []byte
}

// IsDuplicate reports whether column col is flagged as a duplicate of the
// previous row. With a nil bit-vector, nothing is a duplicate.
func (h *RowHeader) IsDuplicate(col int) bool {
	if h == nil || h.BitVector == nil {
		return false
	}
	byteIdx := col / 8
	if byteIdx >= len(h.BitVector) {
		return false
	}
	bit := (h.BitVector[byteIdx] >> uint(col%8)) & 1
	return bit == 0
}

// DataRow is an ordered sequence of opaque, already length-framed column
// byte slices, one per DescribeInfo column.
type DataRow [][]byte

// Clone returns a copy of the row; used when the core must retain a row
// (e.g. as the previous-batch tail) past the lifetime of the caller's
// buffer.
func (r DataRow) Clone() DataRow {
	out := make(DataRow, len(r))
	copy(out, r)
	return out
}

// Parameters is the opaque key/value map the server sends back; the only
// key the core interprets by name is AUTH_SVR_RESPONSE.
type Parameters map[string]string

const ParamAuthServerResponse = "AUTH_SVR_RESPONSE"

// BatchError is one entry of a BackendError's per-row batch-errors list
// (array DML execution with batch-errors enabled).
type BatchError struct {
	Index int
	Err   error
}

// BackendError is a parsed server error/warning. Certain Number values are
// sentinels interpreted by StatementCore; see the Err* constants below.
type BackendError struct {
	Number      int
	CursorID    CursorID
	Position    int
	RowCount    int64
	IsWarning   bool
	Message     string
	RowID       string
	BatchErrors []BatchError
}

func (e *BackendError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Sentinel server error numbers interpreted by the core: ORA-01403 (no
// data found), ORA-24381 (array DML completed with batch errors),
// ORA-01007 (variable not in select list, surfaced as a statement failure
// or a stream error), and
// ORA-01013 (the server's acknowledgment of a client-initiated cancel).
const (
	ErrNoDataFound        = 1403
	ErrArrayDMLErrors     = 24381
	ErrVarNotInSelectList = 1007
	ErrCancelAck          = 1013
)

// IsEndOfFetch reports whether number is one of the two sentinels that
// terminate a fetch/array-DML normally rather than signaling failure.
func IsEndOfFetch(number int) bool {
	return number == ErrNoDataFound || number == ErrArrayDMLErrors
}
