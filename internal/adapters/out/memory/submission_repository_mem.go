// internal/adapters/out/memory/submission_repository_mem.go
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	sdom "tokenflows/internal/domain/submission"
)

// SubmissionRepositoryMem implements submission.RepositoryPort in process memory.
// Used when no ledger backend is configured for a run that still wants a summary, and in tests.
type SubmissionRepositoryMem struct {
	mu    sync.RWMutex
	items map[string]sdom.Submission
}

func NewSubmissionRepositoryMem() *SubmissionRepositoryMem {
	return &SubmissionRepositoryMem{items: map[string]sdom.Submission{}}
}

var _ sdom.RepositoryPort = (*SubmissionRepositoryMem)(nil)

func (r *SubmissionRepositoryMem) Create(_ context.Context, s sdom.Submission) (*sdom.Submission, error) {
	id := strings.TrimSpace(s.ID)
	if id == "" {
		return nil, sdom.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; ok {
		return nil, sdom.ErrAlreadyExists
	}
	s.ID = id
	r.items[id] = s
	out := s
	return &out, nil
}

func (r *SubmissionRepositoryMem) Save(_ context.Context, s sdom.Submission) (*sdom.Submission, error) {
	id := strings.TrimSpace(s.ID)
	if id == "" {
		return nil, sdom.ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = id
	r.items[id] = s
	out := s
	return &out, nil
}

func (r *SubmissionRepositoryMem) GetByID(_ context.Context, id string) (*sdom.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[strings.TrimSpace(id)]
	if !ok {
		return nil, sdom.ErrNotFound
	}
	return &s, nil
}

func (r *SubmissionRepositoryMem) ListByMint(_ context.Context, mint string, limit int) ([]sdom.Submission, error) {
	m := strings.TrimSpace(mint)

	r.mu.RLock()
	out := make([]sdom.Submission, 0)
	for _, s := range r.items {
		if s.Mint == m {
			out = append(out, s)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// All returns every stored submission, oldest first.
func (r *SubmissionRepositoryMem) All() []sdom.Submission {
	r.mu.RLock()
	out := make([]sdom.Submission, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
