// Package auth implements AuthCore: the two-phase authentication
// sub-machine, with an optional fast-auth variant that fuses
// protocol/data-types negotiation with authentication, and server-response
// verification against a combo-key derived during phase one.
package auth

import (
	"github.com/oradrv/tnscore"
	"github.com/oradrv/tnscore/coreerr"
)

type phase int

const (
	phaseInitialized phase = iota
	phasePhaseOneSent
	phasePhaseTwoSent
	phaseAuthenticated
	phaseError
)

// ActionKind tags the single action AuthCore emits per entry point.
type ActionKind int

const (
	ActionWait ActionKind = iota
	ActionSendFastAuth
	ActionSendAuthPhaseOne
	ActionSendAuthPhaseTwo
	ActionAuthenticated
	ActionReportAuthenticationError
)

// Action is the tagged result of one AuthCore entry-point call.
type Action struct {
	Kind       ActionKind
	Context    any // the opaque authentication context the caller supplied to Start
	Parameters tnscore.Parameters
	Err        error
}

// ServerResponseVerifier decrypts and checks the AUTH_SVR_RESPONSE
// parameter against the combo-key derived during phase one. The core never
// touches cryptographic primitives itself; this interface is the seam a
// real client wires a CBC-decrypt implementation into. A nil verifier means
// no combo-key was derived and verification is skipped rather than failing
// closed; whether the transport layer mandates TLS-level validation in that
// configuration is the caller's concern.
type ServerResponseVerifier interface {
	// Verify decrypts the hex-decoded AUTH_SVR_RESPONSE value and reports
	// whether the plaintext contains "SERVER_TO_CLIENT" at bytes [16:32).
	Verify(authSvrResponse string) (bool, error)
}

// Core is AuthCore.
type Core struct {
	ph       phase
	verifier ServerResponseVerifier
	fastAuth bool
}

// New constructs an AuthCore. verifier may be nil (see
// ServerResponseVerifier's doc comment); it is consulted only during the
// phase-two parameter-received event and only if non-nil.
func New(verifier ServerResponseVerifier) *Core {
	return &Core{verifier: verifier}
}

// IsComplete reports whether the machine has reached a terminal state.
func (c *Core) IsComplete() bool {
	return c.ph == phaseAuthenticated || c.ph == phaseError
}

// Start handles the start() entry point.
func (c *Core) Start(authCtx any, fastAuth bool) Action {
	c.fastAuth = fastAuth
	c.ph = phasePhaseOneSent
	if fastAuth {
		return Action{Kind: ActionSendFastAuth, Context: authCtx}
	}
	return Action{Kind: ActionSendAuthPhaseOne, Context: authCtx}
}

// ProtocolReceived handles protocolReceived(); valid only during fast-auth
// in phasePhaseOneSent, where the protocol message rides along before the
// phase-two parameter.
func (c *Core) ProtocolReceived() Action {
	return Action{Kind: ActionWait}
}

// DataTypesReceived handles dataTypesReceived(); same shape as
// ProtocolReceived.
func (c *Core) DataTypesReceived() Action {
	return Action{Kind: ActionWait}
}

// ParameterReceived handles parameterReceived(params).
func (c *Core) ParameterReceived(authCtx any, params tnscore.Parameters) Action {
	switch c.ph {
	case phasePhaseOneSent:
		c.ph = phasePhaseTwoSent
		return Action{Kind: ActionSendAuthPhaseTwo, Context: authCtx, Parameters: params}
	case phasePhaseTwoSent:
		if c.verifier != nil {
			resp, ok := params[tnscore.ParamAuthServerResponse]
			if !ok {
				err := coreerr.New(coreerr.KindMissingParameter, "missing %s", tnscore.ParamAuthServerResponse)
				c.ph = phaseError
				return Action{Kind: ActionReportAuthenticationError, Err: err}
			}
			verified, err := c.verifier.Verify(resp)
			if err != nil {
				c.ph = phaseError
				return Action{Kind: ActionReportAuthenticationError, Err: coreerr.Wrap(coreerr.KindInvalidServerResponse, err)}
			}
			if !verified {
				c.ph = phaseError
				err := coreerr.New(coreerr.KindInvalidServerResponse, "server response verification failed")
				return Action{Kind: ActionReportAuthenticationError, Err: err}
			}
		}
		c.ph = phaseAuthenticated
		return Action{Kind: ActionAuthenticated, Parameters: params}
	default:
		return Action{Kind: ActionWait}
	}
}

// ErrorReceived handles errorReceived(backendError).
func (c *Core) ErrorReceived(be tnscore.BackendError) Action {
	err := coreerr.Wrap(coreerr.KindServer, &be)
	c.ph = phaseError
	return Action{Kind: ActionReportAuthenticationError, Err: err}
}

// ErrorHappened handles errorHappened(err): fatal in either sent phase.
func (c *Core) ErrorHappened(err error) Action {
	switch c.ph {
	case phasePhaseOneSent, phasePhaseTwoSent:
		c.ph = phaseError
		return Action{Kind: ActionReportAuthenticationError, Err: err}
	default:
		return Action{Kind: ActionWait}
	}
}
