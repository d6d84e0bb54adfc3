// Package store persists session and round bookkeeping — the
// state-machine state this repo's core keeps only in memory — to
// Postgres via pgx, following the same pgxpool.New / InitSchema /
// upsert pattern the teacher's internal/db.PostgresStore uses.
package store

import (
	"context"
	"embed"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/rawblock/bitvm-go/internal/protoerr"
)

//go:embed schema.sql
var schemaFS embed.FS

// RoundState mirrors the per-round state machine from §4.I:
// ISSUED -> ANSWERED | CONTRADICTED | EXPIRED.
type RoundState string

const (
	RoundIssued       RoundState = "ISSUED"
	RoundAnswered     RoundState = "ANSWERED"
	RoundContradicted RoundState = "CONTRADICTED"
	RoundExpired      RoundState = "EXPIRED"
)

// Session is the durable record of one challenge/response engagement
// between a Prover and Verifier over a single circuit.
type Session struct {
	ID          uuid.UUID
	CircuitName string
	ProverPK    string
	VerifierPK  string
	BondAmount  int64
	Fee         int64
	DustLimit   int64
	FundingTxid string
	FundingVout int
}

// Round is the durable record of one round's state and the txids that
// drove its transitions.
type Round struct {
	SessionID        uuid.UUID
	Round            int
	Gate             int
	State            RoundState
	ChallengeTxid    string
	ResponseTxid     string
	EquivocationTxid string
}

// Store persists sessions and rounds.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pgx pool against connStr and verifies connectivity.
func Connect(ctx context.Context, connStr string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, protoerr.New(protoerr.RpcError, "unable to connect to session store", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, protoerr.New(protoerr.RpcError, "session store ping failed", err)
	}
	log.Info().Msg("connected to session store")
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema creates the sessions and rounds tables if they don't
// already exist.
func (s *Store) InitSchema(ctx context.Context) error {
	schemaBytes, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return protoerr.New(protoerr.RpcError, "failed to read embedded schema", err)
	}
	if _, err := s.pool.Exec(ctx, string(schemaBytes)); err != nil {
		return protoerr.New(protoerr.RpcError, "failed to apply session store schema", err)
	}
	return nil
}

// SaveSession inserts a new session record.
func (s *Store) SaveSession(ctx context.Context, sess Session) error {
	const q = `
		INSERT INTO sessions (session_id, circuit_name, prover_pk, verifier_pk, bond_amount, fee, dust_limit, funding_txid, funding_vout)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, q, sess.ID, sess.CircuitName, sess.ProverPK, sess.VerifierPK, sess.BondAmount, sess.Fee, sess.DustLimit, sess.FundingTxid, sess.FundingVout)
	if err != nil {
		return protoerr.New(protoerr.RpcError, "failed to insert session", err)
	}
	return nil
}

// UpsertRound inserts or updates a round's state and txids.
func (s *Store) UpsertRound(ctx context.Context, r Round) error {
	const q = `
		INSERT INTO rounds (session_id, round, gate, state, challenge_txid, response_txid, equivocation_txid)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, round) DO UPDATE SET
			gate = EXCLUDED.gate,
			state = EXCLUDED.state,
			challenge_txid = EXCLUDED.challenge_txid,
			response_txid = EXCLUDED.response_txid,
			equivocation_txid = EXCLUDED.equivocation_txid,
			updated_at = NOW()
	`
	_, err := s.pool.Exec(ctx, q, r.SessionID, r.Round, r.Gate, r.State, nullIfEmpty(r.ChallengeTxid), nullIfEmpty(r.ResponseTxid), nullIfEmpty(r.EquivocationTxid))
	if err != nil {
		return protoerr.New(protoerr.RpcError, "failed to upsert round", err)
	}
	return nil
}

// RoundsForSession returns every round recorded for a session, ordered
// by round index.
func (s *Store) RoundsForSession(ctx context.Context, sessionID uuid.UUID) ([]Round, error) {
	const q = `
		SELECT session_id, round, gate, state,
		       COALESCE(challenge_txid, ''), COALESCE(response_txid, ''), COALESCE(equivocation_txid, '')
		FROM rounds WHERE session_id = $1 ORDER BY round ASC
	`
	rows, err := s.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, protoerr.New(protoerr.RpcError, "failed to query rounds", err)
	}
	defer rows.Close()

	var out []Round
	for rows.Next() {
		var r Round
		var state string
		if err := rows.Scan(&r.SessionID, &r.Round, &r.Gate, &state, &r.ChallengeTxid, &r.ResponseTxid, &r.EquivocationTxid); err != nil {
			return nil, protoerr.New(protoerr.RpcError, "failed to scan round row", err)
		}
		r.State = RoundState(state)
		out = append(out, r)
	}
	return out, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
