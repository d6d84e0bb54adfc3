package protocol

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rawblock/bitvm-go/internal/protoerr"
)

// Recorder is the persistence/observation seam a Session drives on every
// round transition. internal/store.Store and internal/dashboard.Hub both
// satisfy it; a driver that needs neither can pass NopRecorder{}.
type Recorder interface {
	RecordRound(ctx context.Context, sessionID uuid.UUID, r RoundRecord) error
}

// NopRecorder discards every round transition. Zero value is usable.
type NopRecorder struct{}

func (NopRecorder) RecordRound(context.Context, uuid.UUID, RoundRecord) error { return nil }

// MultiRecorder fans a round transition out to every Recorder in the
// slice, stopping at the first error. Used to record to both the
// session store and the spectator dashboard in the same call.
type MultiRecorder []Recorder

func (m MultiRecorder) RecordRound(ctx context.Context, sessionID uuid.UUID, r RoundRecord) error {
	for _, rec := range m {
		if rec == nil {
			continue
		}
		if err := rec.RecordRound(ctx, sessionID, r); err != nil {
			return err
		}
	}
	return nil
}

// Gauges is the narrow seam Session uses to report round counts and the
// live bond value, satisfied by internal/metrics.Metrics without this
// package importing it directly (mirrors the Recorder seam above).
type Gauges interface {
	IssuedRound()
	AnsweredRound()
	Contradicted()
	SetBondSatoshis(v int64)
}

// NopGauges discards every metric update. Zero value is usable.
type NopGauges struct{}

func (NopGauges) IssuedRound()          {}
func (NopGauges) AnsweredRound()        {}
func (NopGauges) Contradicted()         {}
func (NopGauges) SetBondSatoshis(int64) {}

// Session owns the round-by-round state machine for one Prover/Verifier
// pairing over one circuit, identified by ID across process restarts the
// way the teacher's investigation case IDs survive a restart via
// Postgres. It is the concrete form of spec.md §5's "the core exposes
// next_step(state) -> action": Session.NextStep reads the latest round's
// state, changes nothing, and reports what the caller should do about it.
type Session struct {
	ID       uuid.UUID
	Rounds   []RoundRecord
	Recorder Recorder
	Gauges   Gauges
	Log      zerolog.Logger
}

// NewSession starts a fresh session with a random ID. rec/gauges may be
// nil, in which case round transitions are simply not recorded or
// measured anywhere.
func NewSession(rec Recorder, gauges Gauges) *Session {
	if rec == nil {
		rec = NopRecorder{}
	}
	if gauges == nil {
		gauges = NopGauges{}
	}
	return &Session{ID: uuid.New(), Recorder: rec, Gauges: gauges, Log: zerolog.Nop()}
}

// BeginRound appends a new round in RoundIssued state and returns its
// index.
func (s *Session) BeginRound(gate int) int {
	s.Rounds = append(s.Rounds, RoundRecord{Round: len(s.Rounds), Gate: gate, State: RoundIssued})
	s.Gauges.IssuedRound()
	return len(s.Rounds) - 1
}

// Advance transitions round to a new state (e.g. on-chain confirmation
// of a challenge or response tx) and records the result.
func (s *Session) Advance(ctx context.Context, round int, state RoundState, txid string) error {
	if round < 0 || round >= len(s.Rounds) {
		return protoerr.WithRound(protoerr.WrongRound, round, "no such round in session", nil)
	}
	r := &s.Rounds[round]
	r.State = state
	switch state {
	case RoundIssued:
		r.ChallengeTxid = txid
	case RoundAnswered:
		r.ResponseTxid = txid
		s.Gauges.AnsweredRound()
	case RoundContradicted:
		r.EquivocationTxid = txid
		s.Gauges.Contradicted()
	}
	s.Log.Info().Int("round", round).Str("state", string(state)).Msg("round transition")
	return s.Recorder.RecordRound(ctx, s.ID, *r)
}

// NextStep returns the action the driver should take for the session's
// latest round. An empty session has nothing to do yet.
func (s *Session) NextStep(context.Context) (Action, error) {
	if len(s.Rounds) == 0 {
		return Action{Kind: ActionNone}, nil
	}
	return NextStep(s.Rounds[len(s.Rounds)-1]), nil
}

// Done reports whether the session has reached a terminal round state.
func (s *Session) Done() bool {
	if len(s.Rounds) == 0 {
		return false
	}
	switch s.Rounds[len(s.Rounds)-1].State {
	case RoundContradicted, RoundExpired:
		return true
	default:
		return false
	}
}
