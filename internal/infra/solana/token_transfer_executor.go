// internal/infra/solana/token_transfer_executor.go
package solana

import (
	"context"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	usecase "tokenflows/internal/application/usecase"
	"tokenflows/internal/domain/chainerr"
)

var (
	ErrTokenTransferNotConfigured = errors.New("token_transfer_executor: not configured")
	ErrTokenTransferAmountZero    = errors.New("token_transfer_executor: amount is zero")
)

type TokenTransferExecutorSolana struct {
	RPC       RPC
	Submitter *Submitter
	Logger    *zap.Logger
}

var _ usecase.TokenTransferExecutor = (*TokenTransferExecutorSolana)(nil)

func NewTokenTransferExecutorSolana(r RPC, s *Submitter, logger *zap.Logger) *TokenTransferExecutorSolana {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenTransferExecutorSolana{
		RPC:       r,
		Submitter: s,
		Logger:    logger.Named("token_transfer_executor"),
	}
}

// ExecuteTransfer submits one SPL token transfer from Source to Destination,
// signed by Authority (owner of Source) and paid by Payer.
func (e *TokenTransferExecutorSolana) ExecuteTransfer(ctx context.Context, in usecase.ExecuteTransferInput) (usecase.ExecuteTransferResult, error) {
	if e == nil || e.Submitter == nil {
		return usecase.ExecuteTransferResult{}, ErrTokenTransferNotConfigured
	}
	if in.Amount == 0 {
		return usecase.ExecuteTransferResult{}, chainerr.Config("transfer", ErrTokenTransferAmountZero)
	}

	e.Logger.Info("submitting transfer",
		zap.String("from_ata", maskShort(in.Source.ToBase58())),
		zap.String("to_ata", maskShort(in.Destination.ToBase58())),
		zap.Uint64("amount", in.Amount),
	)

	sig, err := e.Submitter.Submit(ctx, "transfer", in.Payer, []types.Account{in.Authority},
		token.Transfer(token.TransferParam{
			From:    in.Source,
			To:      in.Destination,
			Auth:    in.Authority.PublicKey,
			Signers: []common.PublicKey{},
			Amount:  in.Amount,
		}),
	)
	if err != nil {
		return usecase.ExecuteTransferResult{TxSignature: sig}, err
	}

	return usecase.ExecuteTransferResult{TxSignature: sig}, nil
}

// TokenBalance returns the raw amount held by a token account.
func (e *TokenTransferExecutorSolana) TokenBalance(ctx context.Context, account common.PublicKey) (uint64, error) {
	if e == nil || e.RPC == nil {
		return 0, ErrTokenTransferNotConfigured
	}
	info, ok, err := e.RPC.GetAccount(ctx, account)
	if err != nil {
		return 0, chainerr.Lookup("token_balance", fmt.Errorf("%s: %w", account.ToBase58(), err))
	}
	if !ok {
		return 0, chainerr.Lookup("token_balance", fmt.Errorf("%s: account not found", account.ToBase58()))
	}
	acc, err := token.TokenAccountFromData(info.Data)
	if err != nil {
		return 0, chainerr.Lookup("token_balance", fmt.Errorf("%s: %w", account.ToBase58(), err))
	}
	return acc.Amount, nil
}
