package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"oilcert/internal/certificate/models"
	id "oilcert/pkg/domain"
	"oilcert/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

// Postgres persists certificates in a certificates table with a partial
// unique index on restaurant_name excluding revoked rows.
//
// ID allocation goes through a single-row counter table locked inside the
// insert transaction instead of a sequence: sequences leave gaps on rollback,
// and the registry promises gapless, strictly increasing IDs. Locking the
// counter row also serializes concurrent issuances, which is exactly the
// global ordering the name-uniqueness check needs.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateIfNameAvailable(ctx context.Context, cert *models.Certificate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin issuance tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Locks the counter row for the rest of the transaction. A name conflict
	// below rolls the increment back, so failed attempts leave no ID gap.
	var nextID uint64
	err = tx.QueryRowContext(ctx,
		`UPDATE certificate_sequence SET last_id = last_id + 1 RETURNING last_id`,
	).Scan(&nextID)
	if err != nil {
		return fmt.Errorf("allocate certificate id: %w", err)
	}

	var taken bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM certificates WHERE restaurant_name = $1 AND status <> 'revoked'
		)`, cert.RestaurantName,
	).Scan(&taken)
	if err != nil {
		return fmt.Errorf("check restaurant name: %w", err)
	}
	if taken {
		return sentinel.ErrAlreadyUsed
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO certificates (
			id, owner, restaurant_name, location, contact_email, metadata_uri,
			level, status, compliance_score, issue_date, expiry_date, issued_by, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		nextID,
		cert.Owner.String(),
		cert.RestaurantName,
		cert.Location,
		cert.ContactEmail,
		cert.MetadataURI,
		cert.Level.String(),
		cert.Status.String(),
		cert.ComplianceScore,
		cert.IssueDate,
		cert.ExpiryDate,
		cert.IssuedBy.String(),
		cert.LastUpdated,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert certificate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit issuance: %w", err)
	}
	cert.ID = id.CertificateID(nextID)
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, certID id.CertificateID) (*models.Certificate, error) {
	row := s.db.QueryRowContext(ctx, selectCertificate+` WHERE id = $1`, uint64(certID))
	return scanCertificate(row)
}

func (s *Postgres) Execute(
	ctx context.Context,
	certID id.CertificateID,
	validate func(cert *models.Certificate) error,
	mutate func(cert *models.Certificate),
) (*models.Certificate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin mutation tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, selectCertificate+` WHERE id = $1 FOR UPDATE`, uint64(certID))
	cert, err := scanCertificate(row)
	if err != nil {
		return nil, err
	}

	if err := validate(cert); err != nil {
		return nil, err
	}
	mutate(cert)

	_, err = tx.ExecContext(ctx, `
		UPDATE certificates SET
			level = $2, status = $3, compliance_score = $4,
			expiry_date = $5, last_updated = $6
		WHERE id = $1`,
		uint64(cert.ID),
		cert.Level.String(),
		cert.Status.String(),
		cert.ComplianceScore,
		cert.ExpiryDate,
		cert.LastUpdated,
	)
	if err != nil {
		return nil, fmt.Errorf("update certificate: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit mutation: %w", err)
	}
	return cert, nil
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count certificates: %w", err)
	}
	return count, nil
}

func (s *Postgres) ListExpiredActive(ctx context.Context, asOf time.Time) ([]id.CertificateID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM certificates WHERE status = 'active' AND expiry_date < $1`, asOf)
	if err != nil {
		return nil, fmt.Errorf("list expired certificates: %w", err)
	}
	defer rows.Close()

	var due []id.CertificateID
	for rows.Next() {
		var raw uint64
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan certificate id: %w", err)
		}
		due = append(due, id.CertificateID(raw))
	}
	return due, rows.Err()
}

const selectCertificate = `
	SELECT id, owner, restaurant_name, location, contact_email, metadata_uri,
	       level, status, compliance_score, issue_date, expiry_date, issued_by, last_updated
	FROM certificates`

func scanCertificate(row *sql.Row) (*models.Certificate, error) {
	var (
		cert   models.Certificate
		rawID  uint64
		owner  string
		level  string
		status string
		issuer string
	)
	err := row.Scan(
		&rawID, &owner, &cert.RestaurantName, &cert.Location, &cert.ContactEmail,
		&cert.MetadataURI, &level, &status, &cert.ComplianceScore,
		&cert.IssueDate, &cert.ExpiryDate, &issuer, &cert.LastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan certificate: %w", err)
	}
	cert.ID = id.CertificateID(rawID)
	cert.Owner = id.Identity(owner)
	cert.Level = models.Level(level)
	cert.Status = models.Status(status)
	cert.IssuedBy = id.Identity(issuer)
	return &cert, nil
}
