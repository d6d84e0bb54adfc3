package protocol

import (
	"context"
	"testing"
)

type countingGauges struct {
	issued, answered, contradicted int
	bond                           int64
}

func (g *countingGauges) IssuedRound()            { g.issued++ }
func (g *countingGauges) AnsweredRound()          { g.answered++ }
func (g *countingGauges) Contradicted()           { g.contradicted++ }
func (g *countingGauges) SetBondSatoshis(v int64) { g.bond = v }

func TestSessionBeginAndAdvanceTracksGauges(t *testing.T) {
	gauges := &countingGauges{}
	s := NewSession(nil, gauges)

	r0 := s.BeginRound(0)
	if r0 != 0 || gauges.issued != 1 {
		t.Fatalf("expected round 0 issued, gauges=%+v", gauges)
	}

	if err := s.Advance(context.Background(), r0, RoundAnswered, "txid-answer"); err != nil {
		t.Fatal(err)
	}
	if gauges.answered != 1 {
		t.Fatalf("expected answered gauge incremented, got %+v", gauges)
	}
	if s.Rounds[0].ResponseTxid != "txid-answer" {
		t.Fatalf("expected response txid recorded, got %+v", s.Rounds[0])
	}

	r1 := s.BeginRound(1)
	if err := s.Advance(context.Background(), r1, RoundContradicted, "txid-equiv"); err != nil {
		t.Fatal(err)
	}
	if gauges.contradicted != 1 {
		t.Fatalf("expected contradicted gauge incremented, got %+v", gauges)
	}
	if !s.Done() {
		t.Fatal("session should be done after a contradicted round")
	}
}

func TestSessionAdvanceRejectsUnknownRound(t *testing.T) {
	s := NewSession(nil, nil)
	if err := s.Advance(context.Background(), 0, RoundAnswered, "x"); err == nil {
		t.Fatal("expected an error advancing a round that was never begun")
	}
}

func TestSessionNextStepReflectsLatestRound(t *testing.T) {
	s := NewSession(nil, nil)
	action, err := s.NextStep(context.Background())
	if err != nil || action.Kind != ActionNone {
		t.Fatalf("expected ActionNone on an empty session, got %+v, %v", action, err)
	}

	s.BeginRound(0)
	action, err = s.NextStep(context.Background())
	if err != nil || action.Kind != ActionWaitConfirmation {
		t.Fatalf("expected ActionWaitConfirmation for a freshly issued round, got %+v, %v", action, err)
	}
}
