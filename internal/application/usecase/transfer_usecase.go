// internal/application/usecase/transfer_usecase.go
package usecase

/*
責任と機能:
- 送付元 (payer 自身) と送付先 (recipient) の Associated Token Account を解決し、
  無ければ payer 負担で作成する。
- 1 回だけ SPL token transfer を送信し、確定を待って署名と explorer link を返す。
- ここで起きたエラーはすべて呼び出し元へそのまま返す（リトライしない）。
- チェーンへの I/O は Port(interface) に閉じ込め、Usecase は手順のみを担う。
*/

import (
	"context"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"go.uber.org/zap"

	"tokenflows/internal/domain/chainerr"
	"tokenflows/internal/domain/explorer"
	"tokenflows/internal/domain/submission"
)

// ============================================================
// Ports
// ============================================================

// TokenAccount is a resolved associated token account.
type TokenAccount struct {
	Address common.PublicKey
	Owner   common.PublicKey
	Mint    common.PublicKey

	// Created is true when this call submitted the creation transaction.
	Created   bool
	Signature string
}

// TokenAccountResolver looks up the ATA of (owner, mint) and creates it when absent.
// Repeated calls for the same pair must return the same address without creating again.
type TokenAccountResolver interface {
	ResolveOrCreate(ctx context.Context, payer types.Account, mint, owner common.PublicKey) (TokenAccount, error)
}

// TokenTransferExecutor submits one SPL token transfer and waits for confirmation.
type TokenTransferExecutor interface {
	ExecuteTransfer(ctx context.Context, in ExecuteTransferInput) (ExecuteTransferResult, error)
}

type ExecuteTransferInput struct {
	Payer       types.Account
	Authority   types.Account
	Source      common.PublicKey
	Destination common.PublicKey
	Amount      uint64 // minor units
}

type ExecuteTransferResult struct {
	TxSignature string
}

// ============================================================
// Usecase
// ============================================================

// TokenDecimals is the fixed decimal exponent of the transferred token.
const TokenDecimals = 2

var (
	ErrTransferNotConfigured  = errors.New("transfer_uc: not configured")
	ErrTransferAmountZero     = errors.New("transfer_uc: amount is zero")
	ErrTransferAmountOverflow = errors.New("transfer_uc: amount overflows uint64")
)

type TransferUsecase struct {
	accounts TokenAccountResolver
	executor TokenTransferExecutor
	recorder *SubmissionRecorder

	network string
	logger  *zap.Logger
}

func NewTransferUsecase(
	accounts TokenAccountResolver,
	executor TokenTransferExecutor,
	recorder *SubmissionRecorder,
	network string,
	logger *zap.Logger,
) *TransferUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferUsecase{
		accounts: accounts,
		executor: executor,
		recorder: recorder,
		network:  network,
		logger:   logger.Named("transfer_uc"),
	}
}

// TransferInput: the sender pays fees, owns the source ATA and signs the transfer.
type TransferInput struct {
	Sender    types.Account
	Mint      common.PublicKey
	Recipient common.PublicKey
	Amount    uint64 // minor units, see MinorUnits
}

type TransferResult struct {
	Signature    string
	ExplorerLink string
	Source       TokenAccount
	Destination  TokenAccount
	Amount       uint64
}

// MinorUnits scales a whole-token amount by 10^TokenDecimals.
func MinorUnits(whole uint64) (uint64, error) {
	scale := uint64(1)
	for i := 0; i < TokenDecimals; i++ {
		scale *= 10
	}
	if whole > ^uint64(0)/scale {
		return 0, chainerr.Config("scale_amount", fmt.Errorf("%w: %d", ErrTransferAmountOverflow, whole))
	}
	return whole * scale, nil
}

// Transfer resolves (or creates) both token accounts and moves Amount from the sender's
// ATA to the recipient's ATA.
func (u *TransferUsecase) Transfer(ctx context.Context, in TransferInput) (TransferResult, error) {
	if u == nil || u.accounts == nil || u.executor == nil {
		return TransferResult{}, ErrTransferNotConfigured
	}
	if in.Amount == 0 {
		return TransferResult{}, chainerr.Config("transfer", ErrTransferAmountZero)
	}

	sender := in.Sender.PublicKey

	u.logger.Info("attempting transfer",
		zap.String("mint", in.Mint.ToBase58()),
		zap.String("from", sender.ToBase58()),
		zap.String("to", in.Recipient.ToBase58()),
		zap.Uint64("amount", in.Amount),
	)

	source, err := u.accounts.ResolveOrCreate(ctx, in.Sender, in.Mint, sender)
	if err != nil {
		return TransferResult{}, fmt.Errorf("transfer_uc: resolve source account: %w", err)
	}
	u.recordCreatedATA(ctx, source, sender)

	destination, err := u.accounts.ResolveOrCreate(ctx, in.Sender, in.Mint, in.Recipient)
	if err != nil {
		return TransferResult{}, fmt.Errorf("transfer_uc: resolve destination account: %w", err)
	}
	u.recordCreatedATA(ctx, destination, sender)

	entry := u.recorder.Begin(ctx, submission.FlowTransfer, in.Mint.ToBase58(),
		source.Address.ToBase58(), destination.Address.ToBase58(), in.Amount)

	res, err := u.executor.ExecuteTransfer(ctx, ExecuteTransferInput{
		Payer:       in.Sender,
		Authority:   in.Sender,
		Source:      source.Address,
		Destination: destination.Address,
		Amount:      in.Amount,
	})
	if err != nil {
		u.recorder.Fail(ctx, entry, err, res.TxSignature)
		return TransferResult{}, fmt.Errorf("transfer_uc: %w", err)
	}
	u.recorder.Succeed(ctx, entry, res.TxSignature)

	return TransferResult{
		Signature:    res.TxSignature,
		ExplorerLink: explorer.MustLink(explorer.KindTransaction, res.TxSignature, u.network),
		Source:       source,
		Destination:  destination,
		Amount:       in.Amount,
	}, nil
}

func (u *TransferUsecase) recordCreatedATA(ctx context.Context, acc TokenAccount, payer common.PublicKey) {
	if !acc.Created {
		return
	}
	entry := u.recorder.Begin(ctx, submission.FlowCreateATA, acc.Mint.ToBase58(),
		payer.ToBase58(), acc.Address.ToBase58(), 0)
	u.recorder.Succeed(ctx, entry, acc.Signature)
}
