// internal/adapters/out/db/submission_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	dbcommon "tokenflows/internal/adapters/out/db/common"
	sdom "tokenflows/internal/domain/submission"
)

// SubmissionRepositoryPG implements submission.RepositoryPort with PostgreSQL.
type SubmissionRepositoryPG struct {
	DB *sql.DB
}

var _ sdom.RepositoryPort = (*SubmissionRepositoryPG)(nil)

func NewSubmissionRepositoryPG(db *sql.DB) *SubmissionRepositoryPG {
	return &SubmissionRepositoryPG{DB: db}
}

// amount is NUMERIC(20,0) so the full uint64 range fits.
var submissionsDDL = []string{`
CREATE TABLE IF NOT EXISTS submissions (
  id           TEXT PRIMARY KEY,
  flow         TEXT NOT NULL,
  mint         TEXT NOT NULL,
  from_address TEXT NOT NULL DEFAULT '',
  to_address   TEXT NOT NULL DEFAULT '',
  amount       NUMERIC(20,0) NOT NULL DEFAULT 0,
  signature    TEXT,
  status       TEXT NOT NULL,
  error_type   TEXT,
  error_msg    TEXT,
  created_at   TIMESTAMPTZ NOT NULL,
  updated_at   TIMESTAMPTZ
)`,
	`CREATE INDEX IF NOT EXISTS submissions_mint_created_at_idx ON submissions (mint, created_at DESC)`,
}

const submissionColumns = `
  id, flow, mint, from_address, to_address, amount,
  signature, status, error_type, error_msg, created_at, updated_at`

// EnsureSchema creates the submissions table and its index in one transaction.
func (r *SubmissionRepositoryPG) EnsureSchema(ctx context.Context) error {
	return dbcommon.WithTx(ctx, r.DB, func(ctx context.Context) error {
		run := dbcommon.GetRunner(ctx, r.DB)
		for _, stmt := range submissionsDDL {
			if _, err := run.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

// ===============================
// RepositoryPort impl
// ===============================

func (r *SubmissionRepositoryPG) Create(ctx context.Context, s sdom.Submission) (*sdom.Submission, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := `
INSERT INTO submissions (` + submissionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING` + submissionColumns

	row := run.QueryRowContext(ctx, q, submissionArgs(s)...)
	out, err := scanSubmission(row)
	if err != nil {
		if dbcommon.IsUniqueViolation(err) {
			return nil, sdom.ErrAlreadyExists
		}
		return nil, err
	}
	return &out, nil
}

func (r *SubmissionRepositoryPG) Save(ctx context.Context, s sdom.Submission) (*sdom.Submission, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := `
INSERT INTO submissions (` + submissionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
  flow = EXCLUDED.flow,
  mint = EXCLUDED.mint,
  from_address = EXCLUDED.from_address,
  to_address = EXCLUDED.to_address,
  amount = EXCLUDED.amount,
  signature = EXCLUDED.signature,
  status = EXCLUDED.status,
  error_type = EXCLUDED.error_type,
  error_msg = EXCLUDED.error_msg,
  updated_at = EXCLUDED.updated_at
RETURNING` + submissionColumns

	row := run.QueryRowContext(ctx, q, submissionArgs(s)...)
	out, err := scanSubmission(row)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *SubmissionRepositoryPG) GetByID(ctx context.Context, id string) (*sdom.Submission, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	q := `SELECT` + submissionColumns + `
FROM submissions
WHERE id = $1
LIMIT 1`
	out, err := scanSubmission(run.QueryRowContext(ctx, q, strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sdom.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *SubmissionRepositoryPG) ListByMint(ctx context.Context, mint string, limit int) ([]sdom.Submission, error) {
	run := dbcommon.GetRunner(ctx, r.DB)
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT` + submissionColumns + `
FROM submissions
WHERE mint = $1
ORDER BY created_at DESC, id DESC
LIMIT $2`
	rows, err := run.QueryContext(ctx, q, strings.TrimSpace(mint), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sdom.Submission, 0, limit)
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ===============================
// Scanners and builders
// ===============================

func submissionArgs(s sdom.Submission) []any {
	var updatedAt any
	if s.UpdatedAt != nil {
		updatedAt = s.UpdatedAt.UTC()
	}
	return []any{
		strings.TrimSpace(s.ID),
		string(s.Flow),
		strings.TrimSpace(s.Mint),
		strings.TrimSpace(s.From),
		strings.TrimSpace(s.To),
		strconv.FormatUint(s.Amount, 10),
		nullableString(s.Signature),
		string(s.Status),
		nullableErrorType(s.ErrorType),
		nullableString(s.ErrorMsg),
		s.CreatedAt.UTC(),
		updatedAt,
	}
}

func nullableString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableErrorType(p *sdom.ErrorType) any {
	if p == nil {
		return nil
	}
	return string(*p)
}

func scanSubmission(s dbcommon.RowScanner) (sdom.Submission, error) {
	var (
		id, flow, mint, from, to, amount, status string
		sigNS, errTypeNS, errMsgNS              sql.NullString
		createdAt                               time.Time
		updatedAtNS                             sql.NullTime
	)
	if err := s.Scan(&id, &flow, &mint, &from, &to, &amount, &sigNS, &status, &errTypeNS, &errMsgNS, &createdAt, &updatedAtNS); err != nil {
		return sdom.Submission{}, err
	}

	amt, err := strconv.ParseUint(strings.TrimSpace(amount), 10, 64)
	if err != nil {
		return sdom.Submission{}, err
	}

	out := sdom.Submission{
		ID:        strings.TrimSpace(id),
		Flow:      sdom.Flow(strings.TrimSpace(flow)),
		Mint:      strings.TrimSpace(mint),
		From:      strings.TrimSpace(from),
		To:        strings.TrimSpace(to),
		Amount:    amt,
		Status:    sdom.Status(strings.TrimSpace(status)),
		CreatedAt: createdAt.UTC(),
	}
	if sigNS.Valid {
		v := sigNS.String
		out.Signature = &v
	}
	if errTypeNS.Valid && strings.TrimSpace(errTypeNS.String) != "" {
		v := sdom.ErrorType(strings.TrimSpace(errTypeNS.String))
		out.ErrorType = &v
	}
	if errMsgNS.Valid {
		v := errMsgNS.String
		out.ErrorMsg = &v
	}
	if updatedAtNS.Valid {
		t := updatedAtNS.Time.UTC()
		out.UpdatedAt = &t
	}
	return out, nil
}
