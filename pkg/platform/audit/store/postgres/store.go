package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "oilcert/pkg/domain"
	audit "oilcert/pkg/platform/audit"
)

// Store persists the event log in an append-only audit_events table ordered
// by sequence_number. Appends take a transaction-scoped advisory lock so the
// hash chain stays linear even under concurrent writers.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) (uint64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin append tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext('audit_events'))`); err != nil {
		return 0, fmt.Errorf("acquire audit append lock: %w", err)
	}

	var (
		lastSeq  uint64
		lastHash string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT sequence_number, hash FROM audit_events ORDER BY sequence_number DESC LIMIT 1`,
	).Scan(&lastSeq, &lastHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("read chain head: %w", err)
	}

	event.SequenceNumber = lastSeq + 1
	event.PrevHash = lastHash
	event.Hash = audit.ChainHash(lastHash, event)

	details, err := json.Marshal(event.Details)
	if err != nil {
		return 0, fmt.Errorf("marshal event details: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_events (
			sequence_number, id, certificate_id, kind, actor,
			occurred_at, details, request_id, prev_hash, hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		event.SequenceNumber,
		event.ID,
		uint64(event.CertificateID),
		string(event.Kind),
		event.Actor.String(),
		event.Timestamp,
		details,
		event.RequestID,
		event.PrevHash,
		event.Hash,
	)
	if err != nil {
		return 0, fmt.Errorf("insert audit event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit audit append: %w", err)
	}
	return event.SequenceNumber, nil
}

func (s *Store) ListByCertificate(ctx context.Context, certID id.CertificateID) ([]audit.Event, error) {
	return s.list(ctx, selectEvents+` WHERE certificate_id = $1 ORDER BY sequence_number`, uint64(certID))
}

func (s *Store) ListAll(ctx context.Context) ([]audit.Event, error) {
	return s.list(ctx, selectEvents+` ORDER BY sequence_number`)
}

const selectEvents = `
	SELECT sequence_number, id, certificate_id, kind, actor,
	       occurred_at, details, request_id, prev_hash, hash
	FROM audit_events`

func (s *Store) list(ctx context.Context, query string, args ...any) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event   audit.Event
			eventID uuid.UUID
			certID  uint64
			kind    string
			actor   string
			details []byte
		)
		err := rows.Scan(
			&event.SequenceNumber, &eventID, &certID, &kind, &actor,
			&event.Timestamp, &details, &event.RequestID, &event.PrevHash, &event.Hash,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ID = eventID
		event.CertificateID = id.CertificateID(certID)
		event.Kind = audit.Kind(kind)
		event.Actor = id.Identity(actor)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &event.Details); err != nil {
				return nil, fmt.Errorf("unmarshal event details: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
