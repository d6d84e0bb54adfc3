package dashboard

import (
	"encoding/json"
	"testing"
)

func TestPublishBroadcastsValidJSON(t *testing.T) {
	h := NewHub()

	h.Publish(RoundEvent{SessionID: "abc", Round: 2, Gate: 5, From: "verifier", To: "prover", State: "ISSUED"})

	select {
	case msg := <-h.broadcast:
		if msg.sessionID != "abc" {
			t.Fatalf("expected broadcast tagged with session %q, got %q", "abc", msg.sessionID)
		}
		var ev RoundEvent
		if err := json.Unmarshal(msg.payload, &ev); err != nil {
			t.Fatalf("broadcast payload did not unmarshal: %v", err)
		}
		if ev.SessionID != "abc" || ev.Round != 2 || ev.Gate != 5 || ev.State != "ISSUED" {
			t.Fatalf("unexpected event payload: %+v", ev)
		}
	default:
		t.Fatal("expected a message on the broadcast channel")
	}
}
