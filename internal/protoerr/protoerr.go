// Package protoerr defines the typed error taxonomy used across the
// challenge/response engine: Input, Protocol, Ledger and Invariant
// failures, each tagged with a Kind so callers can branch on errors.As
// instead of string-matching messages.
package protoerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error into one of the taxonomy buckets from the
// protocol's error handling design. A Contradiction is deliberately not
// a Kind here — it is a signal surfaced as a return value, never an error.
type Kind string

const (
	// Input errors: malformed external data.
	BadCircuit   Kind = "bad_circuit"
	BadPreimage  Kind = "bad_preimage"
	AlienPreimage Kind = "alien_preimage"

	// Protocol errors: violations of the setup/play ordering guarantees.
	SignatureMissing Kind = "signature_missing"
	SignatureInvalid Kind = "signature_invalid"
	WrongRound       Kind = "wrong_round"
	MalformedWitness Kind = "malformed_witness"
	ValueUnderflow   Kind = "value_underflow"

	// Ledger errors: surfaced by a LedgerClient implementation.
	RpcError       Kind = "rpc_error"
	NotConfirmed   Kind = "not_confirmed"
	PolicyRejected Kind = "policy_rejected"

	// Invariant errors: bugs in this implementation, not the caller's fault.
	ControlBlockUnavailable Kind = "control_block_unavailable"
	ScriptTooLarge          Kind = "script_too_large"
)

// Error wraps an underlying cause with a taxonomy Kind and enough context
// to let a driver print "the offending round, the gate index (when
// applicable), and the raw counterparty-supplied material that failed
// verification" without leaking local secrets.
type Error struct {
	Kind    Kind
	Round   int
	Gate    int
	HasGate bool
	Context string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Context)
	if e.HasGate {
		msg = fmt.Sprintf("%s (round %d, gate %d)", msg, e.Round, e.Gate)
	} else if e.Round != 0 {
		msg = fmt.Sprintf("%s (round %d)", msg, e.Round)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a round-less Error, for failures that occur before or
// outside the per-round lifecycle (e.g. circuit loading).
func New(kind Kind, context string, cause error) *Error {
	return &Error{Kind: kind, Context: context, Err: cause}
}

// WithRound builds an Error scoped to a round, with no specific gate.
func WithRound(kind Kind, round int, context string, cause error) *Error {
	return &Error{Kind: kind, Round: round, Context: context, Err: cause}
}

// WithGate builds an Error scoped to a specific round and gate index.
func WithGate(kind Kind, round, gate int, context string, cause error) *Error {
	return &Error{Kind: kind, Round: round, Gate: gate, HasGate: true, Context: context, Err: cause}
}

// Is reports whether err (or any error it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
