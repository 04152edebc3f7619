// internal/infra/solana/submitter.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	"tokenflows/internal/domain/chainerr"
)

const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"

	defaultConfirmTimeout = 60 * time.Second
	defaultPollInterval   = 500 * time.Millisecond
)

var commitmentRank = map[string]int{
	CommitmentProcessed: 1,
	CommitmentConfirmed: 2,
	CommitmentFinalized: 3,
}

// ValidCommitment reports whether c is a known commitment level.
func ValidCommitment(c string) bool {
	_, ok := commitmentRank[c]
	return ok
}

// Submitter signs, sends and confirms transactions.
// It never resends: the first failure is returned to the caller.
type Submitter struct {
	RPC            RPC
	Commitment     string
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	Logger         *zap.Logger
}

func NewSubmitter(r RPC, commitment string, confirmTimeout time.Duration, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{
		RPC:            r,
		Commitment:     commitment,
		ConfirmTimeout: confirmTimeout,
		PollInterval:   defaultPollInterval,
		Logger:         logger.Named("submitter"),
	}
}

// Submit builds a transaction paid by feePayer, signs it with signers and waits for
// the configured commitment. The signature is returned whenever the transaction
// reached the network, including alongside a confirmation error.
func (s *Submitter) Submit(
	ctx context.Context,
	op string,
	feePayer types.Account,
	signers []types.Account,
	ins ...types.Instruction,
) (string, error) {
	if s == nil || s.RPC == nil {
		return "", chainerr.Submission(op, ErrRPCNotConfigured)
	}
	if len(ins) == 0 {
		return "", chainerr.Submission(op, errors.New("no instructions"))
	}

	blockhash, err := s.RPC.LatestBlockhash(ctx)
	if err != nil {
		return "", chainerr.Submission(op, fmt.Errorf("GetLatestBlockhash: %w", err))
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        feePayer.PublicKey,
			RecentBlockhash: blockhash,
			Instructions:    ins,
		}),
		Signers: uniqueSigners(feePayer, signers),
	})
	if err != nil {
		return "", chainerr.Submission(op, fmt.Errorf("NewTransaction: %w", err))
	}

	sig, err := s.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return "", chainerr.Submission(op, fmt.Errorf("SendTransaction: %w", err))
	}

	s.Logger.Info("transaction submitted",
		zap.String("op", op),
		zap.String("signature", sig),
		zap.Int("instructions", len(ins)),
	)

	if err := s.confirm(ctx, op, sig); err != nil {
		return sig, err
	}
	return sig, nil
}

func (s *Submitter) confirm(ctx context.Context, op, sig string) error {
	want := s.Commitment
	if !ValidCommitment(want) {
		want = CommitmentConfirmed
	}
	timeout := s.ConfirmTimeout
	if timeout <= 0 {
		timeout = defaultConfirmTimeout
	}
	interval := s.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := s.RPC.SignatureStatus(cctx, sig)
		switch {
		case err != nil && cctx.Err() == nil:
			s.Logger.Warn("signature status poll failed", zap.String("signature", sig), zap.Error(err))
		case err == nil && st.Found && st.Err != nil:
			return chainerr.Submission(op, fmt.Errorf("transaction %s failed: %v", sig, st.Err))
		case err == nil && st.Found && commitmentRank[st.ConfirmationStatus] >= commitmentRank[want]:
			s.Logger.Info("transaction confirmed",
				zap.String("op", op),
				zap.String("signature", sig),
				zap.String("commitment", st.ConfirmationStatus),
			)
			return nil
		}

		select {
		case <-cctx.Done():
			if ctx.Err() != nil {
				return chainerr.Submission(op, fmt.Errorf("confirm %s: %w", sig, ctx.Err()))
			}
			return chainerr.Timeout(op, fmt.Errorf("signature %s not %s within %s", sig, want, timeout))
		case <-ticker.C:
		}
	}
}

func uniqueSigners(feePayer types.Account, signers []types.Account) []types.Account {
	out := make([]types.Account, 0, len(signers)+1)
	out = append(out, feePayer)
	for _, a := range signers {
		dup := false
		for _, b := range out {
			if a.PublicKey == b.PublicKey {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, a)
		}
	}
	return out
}
