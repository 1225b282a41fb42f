package connection

import "github.com/rs/zerolog"

// Capabilities is the accept(capabilities, description) payload: what the
// server told the client it supports during the initial handshake.
type Capabilities struct {
	SupportsOOB      bool
	SupportsFastAuth bool
	ProtocolVersion  int
}

// Options are the typed, caller-supplied session knobs; the core never
// parses a connect string (that is an outer-layer concern), it only reads
// these fields.
type Options struct {
	MinOOBCheckVersion int
	Logger             zerolog.Logger
}

// Snapshot is a read-only projection of the session's current state, for a
// caller's diagnostics or health-check surface. It never drives behavior.
type Snapshot struct {
	Phase      string
	Quiescing  bool
	MarkerSent bool
	QueueDepth int
}

func (c *Core) Snapshot() Snapshot {
	return Snapshot{
		Phase:      c.ph.String(),
		Quiescing:  c.quiescing,
		MarkerSent: c.markerSent,
		QueueDepth: len(c.queue),
	}
}
