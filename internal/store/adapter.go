package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/rawblock/bitvm-go/internal/protocol"
)

// RecordRound adapts a protocol.Session's round bookkeeping onto
// Store.UpsertRound, so a *Store can be handed to protocol.NewSession
// directly as its Recorder.
func (s *Store) RecordRound(ctx context.Context, sessionID uuid.UUID, r protocol.RoundRecord) error {
	return s.UpsertRound(ctx, Round{
		SessionID:        sessionID,
		Round:            r.Round,
		Gate:             r.Gate,
		State:            RoundState(r.State),
		ChallengeTxid:    r.ChallengeTxid,
		ResponseTxid:     r.ResponseTxid,
		EquivocationTxid: r.EquivocationTxid,
	})
}
