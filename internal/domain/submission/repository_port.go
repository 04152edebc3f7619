// internal/domain/submission/repository_port.go
package submission

import "context"

// RepositoryPort is the persistence needed by the flows' submission ledger.
type RepositoryPort interface {
	// Create persists a new pending submission. Duplicate IDs are rejected.
	Create(ctx context.Context, s Submission) (*Submission, error)

	// Save overwrites the submission identified by s.ID.
	Save(ctx context.Context, s Submission) (*Submission, error)

	GetByID(ctx context.Context, id string) (*Submission, error)

	// ListByMint returns submissions for a mint, newest first.
	ListByMint(ctx context.Context, mint string, limit int) ([]Submission, error)
}
