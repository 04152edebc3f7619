// internal/application/usecase/submission_recorder.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tokenflows/internal/domain/chainerr"
	"tokenflows/internal/domain/submission"
)

// SubmissionRecorder writes the submission ledger around each transaction.
// Ledger failures are logged and never change a flow's outcome.
// A nil recorder or a nil repository records nothing.
type SubmissionRecorder struct {
	repo   submission.RepositoryPort
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewSubmissionRecorder(repo submission.RepositoryPort, logger *zap.Logger) *SubmissionRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionRecorder{
		repo:   repo,
		logger: logger.Named("submission_ledger"),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

func (r *SubmissionRecorder) enabled() bool {
	return r != nil && r.repo != nil
}

// Begin persists a pending entry. It returns nil when the ledger is disabled or the write failed.
func (r *SubmissionRecorder) Begin(ctx context.Context, flow submission.Flow, mint, from, to string, amount uint64) *submission.Submission {
	if !r.enabled() {
		return nil
	}
	s, err := submission.NewPending(r.newID(), flow, mint, from, to, amount, r.now())
	if err != nil {
		r.logger.Warn("build pending submission failed", zap.String("flow", string(flow)), zap.Error(err))
		return nil
	}
	saved, err := r.repo.Create(ctx, s)
	if err != nil {
		r.logger.Warn("create submission failed", zap.String("id", s.ID), zap.Error(err))
		return nil
	}
	return saved
}

func (r *SubmissionRecorder) Succeed(ctx context.Context, s *submission.Submission, sig string) {
	if !r.enabled() || s == nil {
		return
	}
	if err := s.MarkSucceeded(sig, r.now()); err != nil {
		r.logger.Warn("mark submission succeeded failed", zap.String("id", s.ID), zap.Error(err))
		return
	}
	r.save(ctx, s)
}

func (r *SubmissionRecorder) Fail(ctx context.Context, s *submission.Submission, cause error, sig string) {
	if !r.enabled() || s == nil {
		return
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	s.MarkFailed(errorTypeOf(cause), msg, sig, r.now())
	r.save(ctx, s)
}

func (r *SubmissionRecorder) save(ctx context.Context, s *submission.Submission) {
	if _, err := r.repo.Save(ctx, *s); err != nil {
		r.logger.Warn("save submission failed", zap.String("id", s.ID), zap.Error(err))
	}
}

func errorTypeOf(err error) submission.ErrorType {
	switch chainerr.KindOf(err) {
	case chainerr.KindConfiguration:
		return submission.ErrorTypeConfiguration
	case chainerr.KindAddressResolution:
		return submission.ErrorTypeAddressResolution
	case chainerr.KindAccountLookup:
		return submission.ErrorTypeAccountLookup
	case chainerr.KindSubmission:
		return submission.ErrorTypeSubmission
	case chainerr.KindConfirmationTimeout:
		return submission.ErrorTypeConfirmationTimeout
	default:
		return submission.ErrorTypeUnknown
	}
}
