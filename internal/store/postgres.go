package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumichat/lumichat/internal/model/chat"
)

const ddlExchanges = `
CREATE TABLE IF NOT EXISTS exchanges (
    id               TEXT         PRIMARY KEY,
    session_id       TEXT         NOT NULL,
    input_text       TEXT         NOT NULL,
    output_text      TEXT         NOT NULL,
    persona_id       TEXT         NOT NULL DEFAULT '',
    user_id          TEXT         NOT NULL DEFAULT '',
    origin_address   TEXT         NOT NULL DEFAULT '',
    client_signature TEXT         NOT NULL DEFAULT '',
    timestamp        TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_exchanges_session_id
    ON exchanges (session_id);

CREATE INDEX IF NOT EXISTS idx_exchanges_session_timestamp
    ON exchanges (session_id, timestamp);
`

// PostgresStore implements ExchangeStore on a pgxpool connection pool.
// All methods are safe for concurrent use.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and applies the schema migration.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("exchange store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("exchange store: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlExchanges); err != nil {
		pool.Close()
		return nil, fmt.Errorf("exchange store: migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Record(ctx context.Context, ex chat.Exchange) error {
	const q = `
		INSERT INTO exchanges
		    (id, session_id, input_text, output_text, persona_id, user_id, origin_address, client_signature, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.pool.Exec(ctx, q,
		ex.ID,
		ex.SessionID,
		ex.InputText,
		ex.OutputText,
		ex.PersonaID,
		ex.UserID,
		ex.OriginAddress,
		ex.ClientSignature,
		ex.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("exchange store: record: %w", err)
	}
	return nil
}

// ListBySession fetches the most recent rows descending and reverses them so
// the caller sees ascending chronological order.
func (s *PostgresStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]chat.Exchange, error) {
	const q = `
		SELECT id, session_id, input_text, output_text, persona_id, user_id, origin_address, client_signature, timestamp
		FROM   exchanges
		WHERE  session_id = $1
		ORDER  BY timestamp DESC
		LIMIT  $2`

	rows, err := s.pool.Query(ctx, q, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("exchange store: list: %w", err)
	}

	exchanges, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (chat.Exchange, error) {
		var ex chat.Exchange
		err := row.Scan(
			&ex.ID,
			&ex.SessionID,
			&ex.InputText,
			&ex.OutputText,
			&ex.PersonaID,
			&ex.UserID,
			&ex.OriginAddress,
			&ex.ClientSignature,
			&ex.Timestamp,
		)
		return ex, err
	})
	if err != nil {
		return nil, fmt.Errorf("exchange store: scan rows: %w", err)
	}

	for i, j := 0, len(exchanges)-1; i < j; i, j = i+1, j-1 {
		exchanges[i], exchanges[j] = exchanges[j], exchanges[i]
	}
	return exchanges, nil
}

func (s *PostgresStore) Count(ctx context.Context, sessionID string) (int, error) {
	const q = `SELECT count(*) FROM exchanges WHERE session_id = $1`

	var count int
	if err := s.pool.QueryRow(ctx, q, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("exchange store: count: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) DeleteBySession(ctx context.Context, sessionID string) error {
	const q = `DELETE FROM exchanges WHERE session_id = $1`

	if _, err := s.pool.Exec(ctx, q, sessionID); err != nil {
		return fmt.Errorf("exchange store: delete session: %w", err)
	}
	return nil
}
