package dashboard

import "encoding/json"

// RoundEvent is the JSON shape pushed to every spectator client on a
// round-state transition: round, gate (when meaningful), the parties
// involved, and the new state.
type RoundEvent struct {
	SessionID string `json:"sessionId"`
	Round     int    `json:"round"`
	Gate      int    `json:"gate,omitempty"`
	From      string `json:"from"`
	To        string `json:"to"`
	State     string `json:"state"`
	Txid      string `json:"txid,omitempty"`
}

// Publish marshals ev and broadcasts it to clients watching ev's
// session (or watching every session), swallowing marshal errors since
// a malformed event is a bug, not something spectators should block a
// round transition over.
func (h *Hub) Publish(ev RoundEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.Broadcast(ev.SessionID, data)
}
