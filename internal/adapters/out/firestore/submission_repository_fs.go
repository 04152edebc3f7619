// internal/adapters/out/firestore/submission_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	sdom "tokenflows/internal/domain/submission"
)

// ============================================================
// SubmissionRepositoryFS (Firestore)
// - implements submission.RepositoryPort
// - document id = submission id
// ============================================================

var (
	ErrSubmissionRepoNotConfigured = errors.New("submission_repository_fs: not configured")
	ErrSubmissionAmountTooLarge    = errors.New("submission_repository_fs: amount exceeds int64")
)

const defaultSubmissionsCollection = "submissions"

type SubmissionRepositoryFS struct {
	Client *firestore.Client

	// Collection defaults to "submissions"
	Collection string
}

var _ sdom.RepositoryPort = (*SubmissionRepositoryFS)(nil)

func NewSubmissionRepositoryFS(client *firestore.Client, collection string) *SubmissionRepositoryFS {
	return &SubmissionRepositoryFS{
		Client:     client,
		Collection: strings.TrimSpace(collection),
	}
}

func (r *SubmissionRepositoryFS) col() *firestore.CollectionRef {
	c := strings.TrimSpace(r.Collection)
	if c == "" {
		c = defaultSubmissionsCollection
	}
	return r.Client.Collection(c)
}

func (r *SubmissionRepositoryFS) Create(ctx context.Context, s sdom.Submission) (*sdom.Submission, error) {
	if r == nil || r.Client == nil {
		return nil, ErrSubmissionRepoNotConfigured
	}
	id := strings.TrimSpace(s.ID)
	if id == "" {
		return nil, sdom.ErrInvalidID
	}
	data, err := submissionToDoc(s)
	if err != nil {
		return nil, err
	}

	if _, err := r.col().Doc(id).Create(ctx, data); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, sdom.ErrAlreadyExists
		}
		return nil, err
	}
	s.ID = id
	return &s, nil
}

func (r *SubmissionRepositoryFS) Save(ctx context.Context, s sdom.Submission) (*sdom.Submission, error) {
	if r == nil || r.Client == nil {
		return nil, ErrSubmissionRepoNotConfigured
	}
	id := strings.TrimSpace(s.ID)
	if id == "" {
		return nil, sdom.ErrInvalidID
	}
	data, err := submissionToDoc(s)
	if err != nil {
		return nil, err
	}

	if _, err := r.col().Doc(id).Set(ctx, data); err != nil {
		return nil, err
	}
	s.ID = id
	return &s, nil
}

func (r *SubmissionRepositoryFS) GetByID(ctx context.Context, id string) (*sdom.Submission, error) {
	if r == nil || r.Client == nil {
		return nil, ErrSubmissionRepoNotConfigured
	}
	sid := strings.TrimSpace(id)
	if sid == "" {
		return nil, sdom.ErrInvalidID
	}

	snap, err := r.col().Doc(sid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, sdom.ErrNotFound
		}
		return nil, err
	}
	if snap == nil || !snap.Exists() {
		return nil, sdom.ErrNotFound
	}

	s := docToSubmission(snap.Ref.ID, snap.Data())
	return &s, nil
}

// ListByMint returns the newest submissions first.
// Requires a composite index on (mint ASC, createdAt DESC).
func (r *SubmissionRepositoryFS) ListByMint(ctx context.Context, mint string, limit int) ([]sdom.Submission, error) {
	if r == nil || r.Client == nil {
		return nil, ErrSubmissionRepoNotConfigured
	}
	if limit <= 0 {
		limit = 50
	}

	it := r.col().
		Where("mint", "==", strings.TrimSpace(mint)).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	out := make([]sdom.Submission, 0, limit)
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if doc == nil || doc.Ref == nil {
			continue
		}
		out = append(out, docToSubmission(doc.Ref.ID, doc.Data()))
	}
	return out, nil
}

// ------------------------------------------------------------
// mapping
// ------------------------------------------------------------

func submissionToDoc(s sdom.Submission) (map[string]any, error) {
	if s.Amount > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %d", ErrSubmissionAmountTooLarge, s.Amount)
	}

	m := map[string]any{
		"flow":      string(s.Flow),
		"mint":      s.Mint,
		"from":      s.From,
		"to":        s.To,
		"amount":    int64(s.Amount),
		"status":    string(s.Status),
		"createdAt": s.CreatedAt.UTC(),
	}
	if s.Signature != nil {
		m["signature"] = *s.Signature
	}
	if s.ErrorType != nil {
		m["errorType"] = string(*s.ErrorType)
	}
	if s.ErrorMsg != nil {
		m["errorMsg"] = *s.ErrorMsg
	}
	if s.UpdatedAt != nil {
		m["updatedAt"] = s.UpdatedAt.UTC()
	}
	return m, nil
}

func docToSubmission(id string, raw map[string]any) sdom.Submission {
	s := sdom.Submission{ID: strings.TrimSpace(id)}
	if raw == nil {
		return s
	}

	if v, ok := raw["flow"].(string); ok {
		s.Flow = sdom.Flow(strings.TrimSpace(v))
	}
	if v, ok := raw["mint"].(string); ok {
		s.Mint = strings.TrimSpace(v)
	}
	if v, ok := raw["from"].(string); ok {
		s.From = strings.TrimSpace(v)
	}
	if v, ok := raw["to"].(string); ok {
		s.To = strings.TrimSpace(v)
	}
	if v, ok := raw["amount"].(int64); ok && v >= 0 {
		s.Amount = uint64(v)
	}
	if v, ok := raw["status"].(string); ok {
		s.Status = sdom.Status(strings.TrimSpace(v))
	}
	if v, ok := raw["signature"].(string); ok && strings.TrimSpace(v) != "" {
		sig := strings.TrimSpace(v)
		s.Signature = &sig
	}
	if v, ok := raw["errorType"].(string); ok && strings.TrimSpace(v) != "" {
		et := sdom.ErrorType(strings.TrimSpace(v))
		s.ErrorType = &et
	}
	if v, ok := raw["errorMsg"].(string); ok && v != "" {
		msg := v
		s.ErrorMsg = &msg
	}
	if t, ok := raw["createdAt"].(time.Time); ok && !t.IsZero() {
		s.CreatedAt = t.UTC()
	}
	if t, ok := raw["updatedAt"].(time.Time); ok && !t.IsZero() {
		u := t.UTC()
		s.UpdatedAt = &u
	}
	return s
}
