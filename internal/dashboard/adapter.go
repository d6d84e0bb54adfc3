package dashboard

import (
	"context"

	"github.com/google/uuid"

	"github.com/rawblock/bitvm-go/internal/protocol"
)

// RecordRound adapts a protocol.Session's round bookkeeping onto
// Hub.Publish, so a *Hub can be handed to protocol.NewSession directly
// as its Recorder, alongside (or instead of) a *store.Store.
func (h *Hub) RecordRound(_ context.Context, sessionID uuid.UUID, r protocol.RoundRecord) error {
	txid := r.ChallengeTxid
	switch r.State {
	case protocol.RoundAnswered:
		txid = r.ResponseTxid
	case protocol.RoundContradicted:
		txid = r.EquivocationTxid
	}
	h.Publish(RoundEvent{
		SessionID: sessionID.String(),
		Round:     r.Round,
		Gate:      r.Gate,
		State:     string(r.State),
		Txid:      txid,
	})
	return nil
}
